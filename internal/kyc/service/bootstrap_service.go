package service

import (
	"context"
	"fmt"

	"github.com/CsAbdulelah/fundy-chatgpt/internal/config"
	"github.com/CsAbdulelah/fundy-chatgpt/internal/kyc/entity"
	"github.com/CsAbdulelah/fundy-chatgpt/internal/kyc/repository"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

// BootstrapService 部署时的一次性数据初始化
type BootstrapService struct {
	teamRepo *repository.TeamRepository
	logger   *zap.Logger
}

func NewBootstrapService(teamRepo *repository.TeamRepository, logger *zap.Logger) *BootstrapService {
	return &BootstrapService{teamRepo: teamRepo, logger: logger}
}

// EnsureDefaultTeam 没有任何团队时创建默认 GP 管理员、GP 团队及其成员关系。
// 可重复调用；已有团队时不做任何事。
func (s *BootstrapService) EnsureDefaultTeam(ctx context.Context, cfg config.SeedConfig) (bool, error) {
	n, err := s.teamRepo.Count(ctx)
	if err != nil {
		return false, fmt.Errorf("count teams: %w", err)
	}
	if n > 0 {
		return false, nil
	}

	owner := &entity.User{ID: newID(), Name: cfg.AdminName, Email: cfg.AdminEmail}
	team := &entity.Team{
		ID:              newID(),
		Name:            cfg.TeamName,
		Timezone:        cfg.Timezone,
		DefaultLanguage: NormalizeLanguage(cfg.DefaultLanguage, "ar"),
		Branding:        datatypes.JSONMap{},
	}
	member := &entity.TeamMember{
		ID:       newID(),
		RoleName: entity.TeamRoleGPAdmin,
		Permissions: datatypes.JSONMap{
			"templates": true,
			"review":    true,
		},
	}
	if err := s.teamRepo.CreateWithOwner(ctx, owner, team, member); err != nil {
		return false, fmt.Errorf("seed default team: %w", err)
	}

	s.logger.Info("Default GP team created",
		zap.String("team_id", team.ID),
		zap.String("owner_email", owner.Email),
	)
	return true, nil
}
