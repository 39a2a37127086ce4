package service

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/CsAbdulelah/fundy-chatgpt/internal/kyc/apperr"
	"github.com/CsAbdulelah/fundy-chatgpt/internal/kyc/entity"
	"github.com/CsAbdulelah/fundy-chatgpt/internal/kyc/repository"
	"gorm.io/datatypes"
)

//go:embed default_schema.json
var defaultSchemaJSON []byte

var (
	defaultSchemaOnce sync.Once
	defaultSchema     entity.Value
)

// TemplateService 模板服务
type TemplateService struct {
	repo     *repository.TemplateRepository
	teamRepo *repository.TeamRepository
	userRepo *repository.UserRepository
}

func NewTemplateService(repo *repository.TemplateRepository, teamRepo *repository.TeamRepository, userRepo *repository.UserRepository) *TemplateService {
	return &TemplateService{repo: repo, teamRepo: teamRepo, userRepo: userRepo}
}

// CreateTemplateRequest 创建模板请求
type CreateTemplateRequest struct {
	TeamID          string                 `json:"team_id" binding:"required"`
	Name            string                 `json:"name" binding:"required"`
	NameAr          string                 `json:"name_ar"`
	Description     string                 `json:"description"`
	DefaultLanguage string                 `json:"default_language"`
	TemplateType    string                 `json:"template_type"`
	IsActive        *bool                  `json:"is_active"`
	Schema          entity.Value           `json:"schema"`
	Branding        map[string]interface{} `json:"branding"`
	ActorID         string                 `json:"actor_id" binding:"required"`
}

// UpdateTemplateRequest 更新模板请求
type UpdateTemplateRequest struct {
	Name            *string                `json:"name"`
	NameAr          *string                `json:"name_ar"`
	Description     *string                `json:"description"`
	DefaultLanguage *string                `json:"default_language"`
	TemplateType    *string                `json:"template_type"`
	IsActive        *bool                  `json:"is_active"`
	Schema          *entity.Value          `json:"schema"`
	Branding        map[string]interface{} `json:"branding"`
	ActorID         string                 `json:"actor_id" binding:"required"`
}

// DefaultSchema 内置的双语默认表单结构
func (s *TemplateService) DefaultSchema() entity.Value {
	defaultSchemaOnce.Do(func() {
		if err := json.Unmarshal(defaultSchemaJSON, &defaultSchema); err != nil {
			panic(fmt.Sprintf("default_schema.json: %v", err))
		}
	})
	return defaultSchema
}

// List 团队模板列表（新建在前）
func (s *TemplateService) List(ctx context.Context, teamID, templateType string) ([]entity.Template, error) {
	if teamID == "" {
		return nil, apperr.Validation("team_id is required")
	}
	if templateType != "" && !validTemplateType(templateType) {
		return nil, apperr.Validation("template_type must be individual or institutional")
	}
	return s.repo.List(ctx, repository.TemplateFilter{TeamID: teamID, TemplateType: templateType})
}

// Get 模板详情（含审批链）
func (s *TemplateService) Get(ctx context.Context, id string) (*entity.Template, error) {
	return s.repo.FindWithChains(ctx, id)
}

func (s *TemplateService) Create(ctx context.Context, req *CreateTemplateRequest) (*entity.Template, error) {
	if _, err := s.teamRepo.FindByID(ctx, req.TeamID); err != nil {
		if apperr.IsNotFound(err) {
			return nil, apperr.Validation("team_id references unknown team %s", req.TeamID)
		}
		return nil, err
	}
	if err := requireUsers(ctx, s.userRepo, "actor_id", req.ActorID); err != nil {
		return nil, err
	}
	if req.Schema.IsNull() {
		req.Schema = s.DefaultSchema()
	}
	if err := ValidateSchema(req.Schema); err != nil {
		return nil, err
	}
	if req.TemplateType == "" {
		req.TemplateType = entity.TemplateTypeIndividual
	}
	if !validTemplateType(req.TemplateType) {
		return nil, apperr.Validation("template_type must be individual or institutional")
	}
	if req.DefaultLanguage != "" && !isSupportedLanguage(req.DefaultLanguage) {
		return nil, apperr.Validation("default_language %q is not supported", req.DefaultLanguage)
	}

	tpl := &entity.Template{
		ID:              newID(),
		TeamID:          req.TeamID,
		Name:            req.Name,
		NameAr:          req.NameAr,
		Description:     req.Description,
		DefaultLanguage: NormalizeLanguage(req.DefaultLanguage, "ar"),
		TemplateType:    req.TemplateType,
		IsActive:        req.IsActive == nil || *req.IsActive,
		Schema:          req.Schema,
		Branding:        datatypes.JSONMap(req.Branding),
		CreatedBy:       req.ActorID,
		UpdatedBy:       req.ActorID,
	}
	if err := s.repo.Create(ctx, tpl); err != nil {
		return nil, fmt.Errorf("create template: %w", err)
	}
	// 插入时 false 会被列默认值覆盖
	if !tpl.IsActive {
		if err := s.repo.Update(ctx, tpl.ID, map[string]interface{}{"is_active": false}); err != nil {
			return nil, err
		}
	}
	return s.repo.FindWithChains(ctx, tpl.ID)
}

func (s *TemplateService) Update(ctx context.Context, id string, req *UpdateTemplateRequest) (*entity.Template, error) {
	if err := requireUsers(ctx, s.userRepo, "actor_id", req.ActorID); err != nil {
		return nil, err
	}

	fields := map[string]interface{}{"updated_by": req.ActorID}
	if req.Name != nil {
		if *req.Name == "" {
			return nil, apperr.Validation("name cannot be empty")
		}
		fields["name"] = *req.Name
	}
	if req.NameAr != nil {
		fields["name_ar"] = *req.NameAr
	}
	if req.Description != nil {
		fields["description"] = *req.Description
	}
	if req.DefaultLanguage != nil {
		if !isSupportedLanguage(*req.DefaultLanguage) {
			return nil, apperr.Validation("default_language %q is not supported", *req.DefaultLanguage)
		}
		fields["default_language"] = NormalizeLanguage(*req.DefaultLanguage, "ar")
	}
	if req.TemplateType != nil {
		if !validTemplateType(*req.TemplateType) {
			return nil, apperr.Validation("template_type must be individual or institutional")
		}
		fields["template_type"] = *req.TemplateType
	}
	if req.IsActive != nil {
		fields["is_active"] = *req.IsActive
	}
	if req.Schema != nil {
		if err := ValidateSchema(*req.Schema); err != nil {
			return nil, err
		}
		fields["schema"] = *req.Schema
	}
	if req.Branding != nil {
		fields["branding"] = datatypes.JSONMap(req.Branding)
	}

	if err := s.repo.Update(ctx, id, fields); err != nil {
		return nil, err
	}
	return s.repo.FindWithChains(ctx, id)
}

// ValidateSchema 表单结构至少为 {"sections":[{"key":...,"fields":[...]}]}
func ValidateSchema(schema entity.Value) error {
	if schema.Kind() != entity.KindMap {
		return apperr.Validation("schema must be an object")
	}
	sections, ok := schema.Get("sections").AsList()
	if !ok {
		return apperr.Validation("schema.sections must be a list")
	}
	seen := make(map[string]bool, len(sections))
	for i, section := range sections {
		key, ok := section.Get("key").AsString()
		if !ok || key == "" {
			return apperr.Validation("schema.sections[%d].key is required", i)
		}
		if seen[key] {
			return apperr.Validation("schema.sections[%d].key %q is duplicated", i, key)
		}
		seen[key] = true
		if f := section.Get("fields"); !f.IsNull() && f.Kind() != entity.KindList {
			return apperr.Validation("schema.sections[%d].fields must be a list", i)
		}
	}
	return nil
}

func validTemplateType(t string) bool {
	return t == entity.TemplateTypeIndividual || t == entity.TemplateTypeInstitutional
}
