package entity

import (
	"time"

	"gorm.io/datatypes"
)

// 邀请状态
const (
	InviteStatusInvited   = "invited"
	InviteStatusSubmitted = "submitted"
)

// Invite GP 向 LP 发出的填表邀请
type Invite struct {
	ID                  string            `json:"id" gorm:"primaryKey;size:36"`
	TeamID              string            `json:"team_id" gorm:"size:36;not null;index"`
	TemplateID          string            `json:"template_id" gorm:"size:36;not null"`
	InvestorUserID      string            `json:"investor_user_id" gorm:"size:36;not null"`
	InvitedBy           string            `json:"invited_by" gorm:"size:36;not null"`
	CurrentSubmissionID *string           `json:"current_submission_id" gorm:"size:36"`
	Status              string            `json:"status" gorm:"size:20;not null;default:'invited'"`
	Metadata            datatypes.JSONMap `json:"metadata" gorm:"type:jsonb"`
	CreatedAt           time.Time         `json:"created_at"`
	UpdatedAt           time.Time         `json:"updated_at"`

	Investor *User     `json:"investor,omitempty" gorm:"foreignKey:InvestorUserID"`
	Template *Template `json:"template,omitempty" gorm:"foreignKey:TemplateID"`
}

func (Invite) TableName() string {
	return "kyc_invites"
}
