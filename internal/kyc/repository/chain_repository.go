package repository

import (
	"context"

	"github.com/CsAbdulelah/fundy-chatgpt/internal/kyc/entity"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ChainRepository struct {
	db *gorm.DB
}

func NewChainRepository(db *gorm.DB) *ChainRepository {
	return &ChainRepository{db: db}
}

// FindByID 审批链（步骤按 order_index 升序）
func (r *ChainRepository) FindByID(ctx context.Context, id string) (*entity.ApprovalChain, error) {
	return findChain(r.db.WithContext(ctx), id)
}

// ListByTemplate 模板下的审批链
func (r *ChainRepository) ListByTemplate(ctx context.Context, templateID string) ([]entity.ApprovalChain, error) {
	var chains []entity.ApprovalChain
	err := r.db.WithContext(ctx).
		Preload("Steps", func(db *gorm.DB) *gorm.DB {
			return db.Order("order_index ASC")
		}).
		Where("template_id = ?", templateID).
		Order("created_at ASC").
		Find(&chains).Error
	return chains, err
}

// Create 创建审批链及步骤
func (r *ChainRepository) Create(ctx context.Context, chain *entity.ApprovalChain) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		steps := chain.Steps
		chain.Steps = nil
		if err := tx.Create(chain).Error; err != nil {
			return err
		}
		if len(steps) > 0 {
			if err := tx.Create(&steps).Error; err != nil {
				return err
			}
		}
		chain.Steps = steps
		return nil
	})
}

// Replace 更新审批链。steps 非 nil 时整体替换步骤：
// 引用旧步骤的提交进度一并删除，审批记录保留。
func (r *ChainRepository) Replace(ctx context.Context, id string, fields map[string]interface{}, steps []entity.ApprovalStep) (*entity.ApprovalChain, error) {
	var out *entity.ApprovalChain
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var chain entity.ApprovalChain
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&chain, "id = ?", id).Error; err != nil {
			return notFound(err, "approval chain", id)
		}

		if len(fields) > 0 {
			if err := tx.Model(&chain).Updates(fields).Error; err != nil {
				return err
			}
		}

		if steps != nil {
			oldSteps := tx.Model(&entity.ApprovalStep{}).Select("id").Where("chain_id = ?", id)
			if err := tx.Where("step_id IN (?)", oldSteps).Delete(&entity.SubmissionApprovalStep{}).Error; err != nil {
				return err
			}
			if err := tx.Where("chain_id = ?", id).Delete(&entity.ApprovalStep{}).Error; err != nil {
				return err
			}
			if len(steps) > 0 {
				if err := tx.Create(&steps).Error; err != nil {
					return err
				}
			}
		}

		var err error
		out, err = findChain(tx, id)
		return err
	})
	return out, err
}

func findChain(db *gorm.DB, id string) (*entity.ApprovalChain, error) {
	var chain entity.ApprovalChain
	err := db.
		Preload("Steps", func(db *gorm.DB) *gorm.DB {
			return db.Order("order_index ASC")
		}).
		First(&chain, "id = ?", id).Error
	if err != nil {
		return nil, notFound(err, "approval chain", id)
	}
	return &chain, nil
}
