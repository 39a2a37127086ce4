package repository

import (
	"context"

	"github.com/CsAbdulelah/fundy-chatgpt/internal/kyc/entity"
	"gorm.io/gorm"
)

type TeamRepository struct {
	db *gorm.DB
}

func NewTeamRepository(db *gorm.DB) *TeamRepository {
	return &TeamRepository{db: db}
}

// List 团队列表（含成员）
func (r *TeamRepository) List(ctx context.Context) ([]entity.Team, error) {
	var teams []entity.Team
	err := r.db.WithContext(ctx).
		Preload("Members.User").
		Order("created_at ASC").
		Find(&teams).Error
	return teams, err
}

func (r *TeamRepository) FindByID(ctx context.Context, id string) (*entity.Team, error) {
	var team entity.Team
	err := r.db.WithContext(ctx).
		Preload("Owner").
		Preload("Members.User").
		First(&team, "id = ?", id).Error
	if err != nil {
		return nil, notFound(err, "team", id)
	}
	return &team, nil
}

func (r *TeamRepository) Create(ctx context.Context, team *entity.Team) error {
	return r.db.WithContext(ctx).Create(team).Error
}

func (r *TeamRepository) Update(ctx context.Context, id string, fields map[string]interface{}) error {
	res := r.db.WithContext(ctx).Model(&entity.Team{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return notFound(gorm.ErrRecordNotFound, "team", id)
	}
	return nil
}

func (r *TeamRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&entity.Team{}).Count(&n).Error
	return n, err
}

// CreateWithOwner 在同一事务内创建用户（如不存在）、团队和管理员成员
func (r *TeamRepository) CreateWithOwner(ctx context.Context, owner *entity.User, team *entity.Team, member *entity.TeamMember) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("email = ?", owner.Email).FirstOrCreate(owner).Error; err != nil {
			return err
		}
		team.OwnerUserID = owner.ID
		if err := tx.Create(team).Error; err != nil {
			return err
		}
		member.TeamID = team.ID
		member.UserID = owner.ID
		return tx.Create(member).Error
	})
}
