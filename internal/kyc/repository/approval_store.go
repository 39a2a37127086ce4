package repository

import (
	"context"

	"github.com/CsAbdulelah/fundy-chatgpt/internal/kyc/engine"
	"github.com/CsAbdulelah/fundy-chatgpt/internal/kyc/entity"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ApprovalStore 审批引擎的 gorm 存储。
// 每次 Atomic 开启事务并对提交行加 FOR UPDATE 锁，同一提交的审批操作串行执行。
type ApprovalStore struct {
	db *gorm.DB
}

func NewApprovalStore(db *gorm.DB) *ApprovalStore {
	return &ApprovalStore{db: db}
}

var _ engine.Store = (*ApprovalStore)(nil)

func (s *ApprovalStore) Atomic(ctx context.Context, submissionID string, fn func(tx engine.Tx) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		sub, err := lockSubmission(tx, submissionID)
		if err != nil {
			return err
		}
		return fn(&approvalTx{db: tx, sub: sub})
	})
}

type approvalTx struct {
	db  *gorm.DB
	sub *entity.Submission
}

func (t *approvalTx) Submission() (*entity.Submission, error) {
	cp := *t.sub
	return &cp, nil
}

func (t *approvalTx) SaveSubmission(sub *entity.Submission) error {
	err := t.db.Model(&entity.Submission{}).Where("id = ?", sub.ID).Updates(map[string]interface{}{
		"status":      sub.Status,
		"locked_at":   sub.LockedAt,
		"approved_at": sub.ApprovedAt,
	}).Error
	if err != nil {
		return err
	}
	t.sub.Status = sub.Status
	t.sub.LockedAt = sub.LockedAt
	t.sub.ApprovedAt = sub.ApprovedAt
	return nil
}

// Chain 读取时加共享锁，与并发的审批链替换互斥
func (t *approvalTx) Chain(chainID string) (*entity.ApprovalChain, error) {
	var chain entity.ApprovalChain
	if err := t.db.Clauses(clause.Locking{Strength: "SHARE"}).First(&chain, "id = ?", chainID).Error; err != nil {
		return nil, notFound(err, "approval chain", chainID)
	}
	err := t.db.Where("chain_id = ?", chainID).Order("order_index ASC").Find(&chain.Steps).Error
	return &chain, err
}

func (t *approvalTx) Step(stepID string) (*entity.ApprovalStep, error) {
	var step entity.ApprovalStep
	if err := t.db.First(&step, "id = ?", stepID).Error; err != nil {
		return nil, notFound(err, "approval step", stepID)
	}
	return &step, nil
}

func (t *approvalTx) StepStates() ([]entity.SubmissionApprovalStep, error) {
	var states []entity.SubmissionApprovalStep
	err := t.db.Preload("Step").Where("submission_id = ?", t.sub.ID).Find(&states).Error
	sortStepStates(states)
	return states, err
}

func (t *approvalTx) ReplaceStepStates(states []entity.SubmissionApprovalStep) error {
	if err := t.db.Where("submission_id = ?", t.sub.ID).Delete(&entity.SubmissionApprovalStep{}).Error; err != nil {
		return err
	}
	if len(states) == 0 {
		return nil
	}
	return t.db.Omit(clause.Associations).Create(&states).Error
}

func (t *approvalTx) SaveStepState(state *entity.SubmissionApprovalStep) error {
	return t.db.Model(&entity.SubmissionApprovalStep{}).Where("id = ?", state.ID).Updates(map[string]interface{}{
		"status":   state.Status,
		"acted_at": state.ActedAt,
	}).Error
}

func (t *approvalTx) AppendAction(action *entity.ApprovalAction) error {
	return t.db.Create(action).Error
}

func (t *approvalTx) Detail() (*entity.Submission, error) {
	return findDetail(t.db, t.sub.ID)
}
