package repository

import (
	"context"

	"github.com/CsAbdulelah/fundy-chatgpt/internal/kyc/entity"
	"gorm.io/gorm"
)

type TemplateRepository struct {
	db *gorm.DB
}

func NewTemplateRepository(db *gorm.DB) *TemplateRepository {
	return &TemplateRepository{db: db}
}

// TemplateFilter 模板查询条件
type TemplateFilter struct {
	TeamID       string
	TemplateType string
}

func (r *TemplateRepository) List(ctx context.Context, f TemplateFilter) ([]entity.Template, error) {
	var templates []entity.Template
	q := r.db.WithContext(ctx).Where("team_id = ?", f.TeamID)
	if f.TemplateType != "" {
		q = q.Where("template_type = ?", f.TemplateType)
	}
	err := q.Order("created_at DESC").Find(&templates).Error
	return templates, err
}

func (r *TemplateRepository) FindByID(ctx context.Context, id string) (*entity.Template, error) {
	var tpl entity.Template
	if err := r.db.WithContext(ctx).Preload("Team").First(&tpl, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "template", id)
	}
	return &tpl, nil
}

// FindWithChains 模板详情，含审批链及有序步骤
func (r *TemplateRepository) FindWithChains(ctx context.Context, id string) (*entity.Template, error) {
	var tpl entity.Template
	err := r.db.WithContext(ctx).
		Preload("ApprovalChains", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		Preload("ApprovalChains.Steps", func(db *gorm.DB) *gorm.DB {
			return db.Order("order_index ASC")
		}).
		First(&tpl, "id = ?", id).Error
	if err != nil {
		return nil, notFound(err, "template", id)
	}
	return &tpl, nil
}

func (r *TemplateRepository) Create(ctx context.Context, tpl *entity.Template) error {
	return r.db.WithContext(ctx).Create(tpl).Error
}

func (r *TemplateRepository) Update(ctx context.Context, id string, fields map[string]interface{}) error {
	res := r.db.WithContext(ctx).Model(&entity.Template{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return notFound(gorm.ErrRecordNotFound, "template", id)
	}
	return nil
}
