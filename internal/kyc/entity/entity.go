package entity

// All 需要迁移的全部实体
func All() []interface{} {
	return []interface{}{
		&User{},
		&Team{},
		&TeamMember{},
		&Template{},
		&Invite{},
		&Submission{},
		&KycComment{},
		&ApprovalChain{},
		&ApprovalStep{},
		&SubmissionApprovalStep{},
		&ApprovalAction{},
	}
}
