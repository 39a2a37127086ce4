package service

import (
	"context"
	"fmt"

	"github.com/CsAbdulelah/fundy-chatgpt/internal/kyc/apperr"
	"github.com/CsAbdulelah/fundy-chatgpt/internal/kyc/entity"
	"github.com/CsAbdulelah/fundy-chatgpt/internal/kyc/repository"
	"gorm.io/datatypes"
)

// TeamService 团队服务
type TeamService struct {
	repo     *repository.TeamRepository
	userRepo *repository.UserRepository
}

func NewTeamService(repo *repository.TeamRepository, userRepo *repository.UserRepository) *TeamService {
	return &TeamService{repo: repo, userRepo: userRepo}
}

// CreateTeamRequest 创建团队请求
type CreateTeamRequest struct {
	Name            string                 `json:"name" binding:"required"`
	OwnerUserID     string                 `json:"owner_user_id" binding:"required"`
	Timezone        string                 `json:"timezone"`
	DefaultLanguage string                 `json:"default_language"`
	Branding        map[string]interface{} `json:"branding"`
}

// UpdateTeamRequest 更新团队请求
type UpdateTeamRequest struct {
	Name            *string                `json:"name"`
	Timezone        *string                `json:"timezone"`
	DefaultLanguage *string                `json:"default_language"`
	Branding        map[string]interface{} `json:"branding"`
}

func (s *TeamService) List(ctx context.Context) ([]entity.Team, error) {
	return s.repo.List(ctx)
}

func (s *TeamService) Get(ctx context.Context, id string) (*entity.Team, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *TeamService) Create(ctx context.Context, req *CreateTeamRequest) (*entity.Team, error) {
	if err := requireUsers(ctx, s.userRepo, "owner_user_id", req.OwnerUserID); err != nil {
		return nil, err
	}
	if req.DefaultLanguage != "" && !isSupportedLanguage(req.DefaultLanguage) {
		return nil, apperr.Validation("default_language %q is not supported", req.DefaultLanguage)
	}

	team := &entity.Team{
		ID:              newID(),
		Name:            req.Name,
		OwnerUserID:     req.OwnerUserID,
		Timezone:        req.Timezone,
		DefaultLanguage: NormalizeLanguage(req.DefaultLanguage, "ar"),
		Branding:        datatypes.JSONMap(req.Branding),
	}
	if team.Timezone == "" {
		team.Timezone = "Asia/Riyadh"
	}
	if err := s.repo.Create(ctx, team); err != nil {
		return nil, fmt.Errorf("create team: %w", err)
	}
	return s.repo.FindByID(ctx, team.ID)
}

func (s *TeamService) Update(ctx context.Context, id string, req *UpdateTeamRequest) (*entity.Team, error) {
	fields := map[string]interface{}{}
	if req.Name != nil {
		if *req.Name == "" {
			return nil, apperr.Validation("name cannot be empty")
		}
		fields["name"] = *req.Name
	}
	if req.Timezone != nil {
		fields["timezone"] = *req.Timezone
	}
	if req.DefaultLanguage != nil {
		if !isSupportedLanguage(*req.DefaultLanguage) {
			return nil, apperr.Validation("default_language %q is not supported", *req.DefaultLanguage)
		}
		fields["default_language"] = NormalizeLanguage(*req.DefaultLanguage, "ar")
	}
	if req.Branding != nil {
		fields["branding"] = datatypes.JSONMap(req.Branding)
	}
	if len(fields) > 0 {
		if err := s.repo.Update(ctx, id, fields); err != nil {
			return nil, err
		}
	}
	return s.repo.FindByID(ctx, id)
}
