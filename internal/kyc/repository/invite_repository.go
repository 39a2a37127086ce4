package repository

import (
	"context"

	"github.com/CsAbdulelah/fundy-chatgpt/internal/kyc/entity"
	"gorm.io/gorm"
)

type InviteRepository struct {
	db *gorm.DB
}

func NewInviteRepository(db *gorm.DB) *InviteRepository {
	return &InviteRepository{db: db}
}

// ListByTeam 团队邀请列表（含投资人、模板）
func (r *InviteRepository) ListByTeam(ctx context.Context, teamID string) ([]entity.Invite, error) {
	var invites []entity.Invite
	err := r.db.WithContext(ctx).
		Preload("Investor").
		Preload("Template").
		Where("team_id = ?", teamID).
		Order("created_at DESC").
		Find(&invites).Error
	return invites, err
}

func (r *InviteRepository) FindByID(ctx context.Context, id string) (*entity.Invite, error) {
	var invite entity.Invite
	err := r.db.WithContext(ctx).
		Preload("Investor").
		Preload("Template").
		First(&invite, "id = ?", id).Error
	if err != nil {
		return nil, notFound(err, "invite", id)
	}
	return &invite, nil
}

func (r *InviteRepository) Create(ctx context.Context, invite *entity.Invite) error {
	return r.db.WithContext(ctx).Create(invite).Error
}
