package entity

import (
	"time"

	"gorm.io/datatypes"
)

// 团队角色
const (
	TeamRoleGPAdmin  = "gp_admin"
	TeamRoleReviewer = "reviewer"
)

// Team GP 团队
type Team struct {
	ID              string            `json:"id" gorm:"primaryKey;size:36"`
	Name            string            `json:"name" gorm:"size:200;not null"`
	OwnerUserID     string            `json:"owner_user_id" gorm:"size:36;not null"`
	Timezone        string            `json:"timezone" gorm:"size:64;default:'Asia/Riyadh'"`
	DefaultLanguage string            `json:"default_language" gorm:"size:8;default:'ar'"`
	Branding        datatypes.JSONMap `json:"branding" gorm:"type:jsonb"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`

	// 关联
	Owner   *User        `json:"owner,omitempty" gorm:"foreignKey:OwnerUserID"`
	Members []TeamMember `json:"members,omitempty" gorm:"foreignKey:TeamID"`
}

func (Team) TableName() string {
	return "teams"
}

// TeamMember 团队成员及权限
type TeamMember struct {
	ID          string            `json:"id" gorm:"primaryKey;size:36"`
	TeamID      string            `json:"team_id" gorm:"size:36;not null;uniqueIndex:idx_team_members_team_user"`
	UserID      string            `json:"user_id" gorm:"size:36;not null;uniqueIndex:idx_team_members_team_user"`
	RoleName    string            `json:"role_name" gorm:"size:50;not null"`
	Permissions datatypes.JSONMap `json:"permissions" gorm:"type:jsonb"`
	CreatedAt   time.Time         `json:"created_at"`

	User *User `json:"user,omitempty" gorm:"foreignKey:UserID"`
}

func (TeamMember) TableName() string {
	return "team_members"
}
