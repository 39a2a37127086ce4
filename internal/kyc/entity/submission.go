package entity

import "time"

// 提交状态
const (
	SubmissionStatusDraft            = "draft"
	SubmissionStatusSubmitted        = "submitted"
	SubmissionStatusChangesRequested = "changes_requested"
	SubmissionStatusApproved         = "approved"
	SubmissionStatusLocked           = "locked"
)

// Submission LP 针对某个模板的 KYC 提交
type Submission struct {
	ID             string     `json:"id" gorm:"primaryKey;size:36"`
	TemplateID     string     `json:"template_id" gorm:"size:36;not null;index"`
	InvestorUserID string     `json:"investor_user_id" gorm:"size:36;not null;index"`
	Status         string     `json:"status" gorm:"size:20;not null;default:'draft'"`
	Revision       int        `json:"revision" gorm:"not null;default:1"`
	Data           FormData   `json:"data" gorm:"type:jsonb"`
	SubmittedAt    *time.Time `json:"submitted_at"`
	ApprovedAt     *time.Time `json:"approved_at"`
	LockedAt       *time.Time `json:"locked_at"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`

	// 关联
	Template        *Template                `json:"template,omitempty" gorm:"foreignKey:TemplateID"`
	Investor        *User                    `json:"investor,omitempty" gorm:"foreignKey:InvestorUserID"`
	Comments        []KycComment             `json:"comments,omitempty" gorm:"foreignKey:SubmissionID"`
	ApprovalSteps   []SubmissionApprovalStep `json:"approval_steps,omitempty" gorm:"foreignKey:SubmissionID"`
	ApprovalActions []ApprovalAction         `json:"approval_actions,omitempty" gorm:"foreignKey:SubmissionID"`
}

func (Submission) TableName() string {
	return "kyc_submissions"
}

// KycComment 审核人针对字段的修改意见
type KycComment struct {
	ID             string     `json:"id" gorm:"primaryKey;size:36"`
	SubmissionID   string     `json:"submission_id" gorm:"size:36;not null;index"`
	ReviewerUserID string     `json:"reviewer_user_id" gorm:"size:36;not null"`
	SectionKey     string     `json:"section_key,omitempty" gorm:"size:100"`
	FieldKey       string     `json:"field_key,omitempty" gorm:"size:100"`
	Comment        string     `json:"comment" gorm:"type:text;not null"`
	ResolvedAt     *time.Time `json:"resolved_at"`
	CreatedAt      time.Time  `json:"created_at"`

	Reviewer *User `json:"reviewer,omitempty" gorm:"foreignKey:ReviewerUserID"`
}

func (KycComment) TableName() string {
	return "kyc_comments"
}
