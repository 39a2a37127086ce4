package entity

import "time"

// 步骤状态
const (
	StepStatusLocked   = "locked"
	StepStatusPending  = "pending"
	StepStatusApproved = "approved"
	StepStatusRejected = "rejected"
)

// 审批动作
const (
	ActionApprove = "approve"
	ActionReject  = "reject"
)

// ApprovalChain 模板上的多级审批链定义
type ApprovalChain struct {
	ID         string    `json:"id" gorm:"primaryKey;size:36"`
	TeamID     string    `json:"team_id" gorm:"size:36;not null;index"`
	TemplateID string    `json:"template_id" gorm:"size:36;not null;index"`
	Name       string    `json:"name" gorm:"size:200;not null"`
	IsActive   bool      `json:"is_active" gorm:"default:true"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`

	Steps []ApprovalStep `json:"steps,omitempty" gorm:"foreignKey:ChainID"`
}

func (ApprovalChain) TableName() string {
	return "approval_chains"
}

// ApprovalStep 审批链中的一级，order_index 从 1 开始连续
type ApprovalStep struct {
	ID             string    `json:"id" gorm:"primaryKey;size:36"`
	ChainID        string    `json:"chain_id" gorm:"size:36;not null;uniqueIndex:idx_approval_steps_chain_order"`
	OrderIndex     int       `json:"order_index" gorm:"not null;uniqueIndex:idx_approval_steps_chain_order"`
	ApproverUserID string    `json:"approver_user_id" gorm:"size:36;not null"`
	CreatedAt      time.Time `json:"created_at"`

	Approver *User `json:"approver,omitempty" gorm:"foreignKey:ApproverUserID"`
}

func (ApprovalStep) TableName() string {
	return "approval_steps"
}

// SubmissionApprovalStep 审批步骤在某个提交上的进度
type SubmissionApprovalStep struct {
	ID           string     `json:"id" gorm:"primaryKey;size:36"`
	SubmissionID string     `json:"submission_id" gorm:"size:36;not null;uniqueIndex:idx_submission_steps_submission_step"`
	StepID       string     `json:"step_id" gorm:"size:36;not null;uniqueIndex:idx_submission_steps_submission_step"`
	Status       string     `json:"status" gorm:"size:20;not null"`
	ActedAt      *time.Time `json:"acted_at"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`

	Step *ApprovalStep `json:"step,omitempty" gorm:"foreignKey:StepID"`
}

func (SubmissionApprovalStep) TableName() string {
	return "submission_approval_steps"
}

// ApprovalAction 审批动作审计记录，只追加
type ApprovalAction struct {
	ID           string    `json:"id" gorm:"primaryKey;size:36"`
	SubmissionID string    `json:"submission_id" gorm:"size:36;not null;index"`
	StepID       string    `json:"step_id" gorm:"size:36;not null"`
	ActorID      string    `json:"actor_id" gorm:"size:36;not null"`
	Action       string    `json:"action" gorm:"size:20;not null"`
	Comment      string    `json:"comment,omitempty" gorm:"type:text"`
	ActedAt      time.Time `json:"acted_at" gorm:"not null"`
	CreatedAt    time.Time `json:"created_at"`
}

func (ApprovalAction) TableName() string {
	return "approval_actions"
}
