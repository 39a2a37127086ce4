package entity

import (
	"time"

	"gorm.io/datatypes"
)

// 模板类型
const (
	TemplateTypeIndividual    = "individual"
	TemplateTypeInstitutional = "institutional"
)

// Template 双语 KYC 表单模板
type Template struct {
	ID              string            `json:"id" gorm:"primaryKey;size:36"`
	TeamID          string            `json:"team_id" gorm:"size:36;not null;index"`
	Name            string            `json:"name" gorm:"size:200;not null"`
	NameAr          string            `json:"name_ar" gorm:"size:200"`
	Description     string            `json:"description" gorm:"type:text"`
	DefaultLanguage string            `json:"default_language" gorm:"size:8;default:'ar'"`
	TemplateType    string            `json:"template_type" gorm:"size:20;not null;default:'individual'"`
	IsActive        bool              `json:"is_active" gorm:"default:true"`
	Schema          Value             `json:"schema" gorm:"type:jsonb"`
	Branding        datatypes.JSONMap `json:"branding" gorm:"type:jsonb"`
	CreatedBy       string            `json:"created_by" gorm:"size:36"`
	UpdatedBy       string            `json:"updated_by" gorm:"size:36"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`

	// 关联
	Team           *Team           `json:"team,omitempty" gorm:"foreignKey:TeamID"`
	ApprovalChains []ApprovalChain `json:"approval_chains,omitempty" gorm:"foreignKey:TemplateID"`
}

func (Template) TableName() string {
	return "kyc_templates"
}
