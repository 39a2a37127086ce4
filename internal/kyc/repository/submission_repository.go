package repository

import (
	"context"
	"sort"

	"github.com/CsAbdulelah/fundy-chatgpt/internal/kyc/entity"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SubmissionRepository struct {
	db *gorm.DB
}

func NewSubmissionRepository(db *gorm.DB) *SubmissionRepository {
	return &SubmissionRepository{db: db}
}

// SubmissionFilter 提交查询条件
type SubmissionFilter struct {
	TemplateID     string
	InvestorUserID string
}

// List 提交列表（含评论）
func (r *SubmissionRepository) List(ctx context.Context, f SubmissionFilter) ([]entity.Submission, error) {
	var subs []entity.Submission
	q := r.db.WithContext(ctx).Preload("Comments", func(db *gorm.DB) *gorm.DB {
		return db.Order("created_at ASC")
	})
	if f.TemplateID != "" {
		q = q.Where("template_id = ?", f.TemplateID)
	}
	if f.InvestorUserID != "" {
		q = q.Where("investor_user_id = ?", f.InvestorUserID)
	}
	err := q.Order("created_at DESC").Find(&subs).Error
	return subs, err
}

// ListForExport 导出用：含投资人和审批进度
func (r *SubmissionRepository) ListForExport(ctx context.Context, templateID string) ([]entity.Submission, error) {
	var subs []entity.Submission
	err := r.db.WithContext(ctx).
		Preload("Investor").
		Preload("ApprovalSteps.Step").
		Preload("ApprovalActions", func(db *gorm.DB) *gorm.DB {
			return db.Order("acted_at ASC, created_at ASC")
		}).
		Where("template_id = ?", templateID).
		Order("created_at ASC").
		Find(&subs).Error
	for i := range subs {
		sortStepStates(subs[i].ApprovalSteps)
	}
	return subs, err
}

func (r *SubmissionRepository) FindByID(ctx context.Context, id string) (*entity.Submission, error) {
	var sub entity.Submission
	if err := r.db.WithContext(ctx).First(&sub, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "submission", id)
	}
	return &sub, nil
}

// FindDetail 提交详情：评论、审批步骤、审批记录
func (r *SubmissionRepository) FindDetail(ctx context.Context, id string) (*entity.Submission, error) {
	return findDetail(r.db.WithContext(ctx), id)
}

// FindForRender PDF 渲染用：模板、团队、投资人
func (r *SubmissionRepository) FindForRender(ctx context.Context, id string) (*entity.Submission, error) {
	var sub entity.Submission
	err := r.db.WithContext(ctx).
		Preload("Template.Team").
		Preload("Investor").
		First(&sub, "id = ?", id).Error
	if err != nil {
		return nil, notFound(err, "submission", id)
	}
	return &sub, nil
}

func (r *SubmissionRepository) Create(ctx context.Context, sub *entity.Submission) error {
	return r.db.WithContext(ctx).Create(sub).Error
}

// WithLock 在事务中对提交行加 FOR UPDATE 锁后执行 fn
func (r *SubmissionRepository) WithLock(ctx context.Context, id string, fn func(tx *gorm.DB, sub *entity.Submission) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		sub, err := lockSubmission(tx, id)
		if err != nil {
			return err
		}
		return fn(tx, sub)
	})
}

// UpdateSubmissionFields 更新提交字段（需在 WithLock 的事务内调用）
func UpdateSubmissionFields(tx *gorm.DB, id string, fields map[string]interface{}) error {
	return tx.Model(&entity.Submission{}).Where("id = ?", id).Updates(fields).Error
}

// CreateComments 批量创建审核意见
func CreateComments(tx *gorm.DB, comments []entity.KycComment) error {
	if len(comments) == 0 {
		return nil
	}
	return tx.Create(&comments).Error
}

// MarkInviteSubmitted 邀请状态改为已提交并关联当前提交
func MarkInviteSubmitted(tx *gorm.DB, inviteID, submissionID string) error {
	res := tx.Model(&entity.Invite{}).Where("id = ?", inviteID).Updates(map[string]interface{}{
		"status":                entity.InviteStatusSubmitted,
		"current_submission_id": submissionID,
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return notFound(gorm.ErrRecordNotFound, "invite", inviteID)
	}
	return nil
}

// FindComment 按提交查找评论
func (r *SubmissionRepository) FindComment(ctx context.Context, submissionID, commentID string) (*entity.KycComment, error) {
	var c entity.KycComment
	err := r.db.WithContext(ctx).
		Where("submission_id = ?", submissionID).
		First(&c, "id = ?", commentID).Error
	if err != nil {
		return nil, notFound(err, "comment", commentID)
	}
	return &c, nil
}

func (r *SubmissionRepository) SaveComment(ctx context.Context, c *entity.KycComment) error {
	return r.db.WithContext(ctx).Save(c).Error
}

func lockSubmission(tx *gorm.DB, id string) (*entity.Submission, error) {
	var sub entity.Submission
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&sub, "id = ?", id).Error
	if err != nil {
		return nil, notFound(err, "submission", id)
	}
	return &sub, nil
}

func findDetail(db *gorm.DB, id string) (*entity.Submission, error) {
	var sub entity.Submission
	err := db.
		Preload("Comments", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		Preload("ApprovalSteps.Step").
		Preload("ApprovalActions", func(db *gorm.DB) *gorm.DB {
			return db.Order("acted_at ASC, created_at ASC")
		}).
		First(&sub, "id = ?", id).Error
	if err != nil {
		return nil, notFound(err, "submission", id)
	}
	sortStepStates(sub.ApprovalSteps)
	return &sub, nil
}

// sortStepStates 按步骤 order_index 排序
func sortStepStates(states []entity.SubmissionApprovalStep) {
	sort.SliceStable(states, func(i, j int) bool {
		return stepOrder(states[i]) < stepOrder(states[j])
	})
}

func stepOrder(s entity.SubmissionApprovalStep) int {
	if s.Step == nil {
		return 0
	}
	return s.Step.OrderIndex
}
