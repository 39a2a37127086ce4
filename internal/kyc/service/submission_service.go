package service

import (
	"context"
	"fmt"

	"github.com/CsAbdulelah/fundy-chatgpt/internal/kyc/apperr"
	"github.com/CsAbdulelah/fundy-chatgpt/internal/kyc/entity"
	"github.com/CsAbdulelah/fundy-chatgpt/internal/kyc/repository"
	"gorm.io/gorm"
)

var ErrSubmissionLocked = apperr.Conflict("Submission is locked")

// SubmissionService LP 提交服务
type SubmissionService struct {
	repo         *repository.SubmissionRepository
	templateRepo *repository.TemplateRepository
	userRepo     *repository.UserRepository
}

func NewSubmissionService(repo *repository.SubmissionRepository, templateRepo *repository.TemplateRepository, userRepo *repository.UserRepository) *SubmissionService {
	return &SubmissionService{repo: repo, templateRepo: templateRepo, userRepo: userRepo}
}

// CreateSubmissionRequest 创建提交请求
type CreateSubmissionRequest struct {
	TemplateID     string          `json:"template_id" binding:"required"`
	InvestorUserID string          `json:"investor_user_id" binding:"required"`
	Data           entity.FormData `json:"data"`
}

// UpdateSubmissionRequest 保存表单数据
type UpdateSubmissionRequest struct {
	Data entity.FormData `json:"data" binding:"required"`
}

// SubmitRequest 提交（可关联邀请）
type SubmitRequest struct {
	InviteID string `json:"invite_id"`
}

func (s *SubmissionService) List(ctx context.Context, f repository.SubmissionFilter) ([]entity.Submission, error) {
	return s.repo.List(ctx, f)
}

// Get 提交详情（评论、审批步骤、审批记录）
func (s *SubmissionService) Get(ctx context.Context, id string) (*entity.Submission, error) {
	return s.repo.FindDetail(ctx, id)
}

// Create 新建草稿
func (s *SubmissionService) Create(ctx context.Context, req *CreateSubmissionRequest) (*entity.Submission, error) {
	if _, err := s.templateRepo.FindByID(ctx, req.TemplateID); err != nil {
		if apperr.IsNotFound(err) {
			return nil, apperr.Validation("template_id references unknown template %s", req.TemplateID)
		}
		return nil, err
	}
	if err := requireUsers(ctx, s.userRepo, "investor_user_id", req.InvestorUserID); err != nil {
		return nil, err
	}

	sub := &entity.Submission{
		ID:             newID(),
		TemplateID:     req.TemplateID,
		InvestorUserID: req.InvestorUserID,
		Status:         entity.SubmissionStatusDraft,
		Revision:       1,
		Data:           req.Data,
	}
	if sub.Data == nil {
		sub.Data = entity.FormData{}
	}
	if err := s.repo.Create(ctx, sub); err != nil {
		return nil, fmt.Errorf("create submission: %w", err)
	}
	return s.repo.FindDetail(ctx, sub.ID)
}

// Update 替换表单数据；已锁定的提交不可修改
func (s *SubmissionService) Update(ctx context.Context, id string, req *UpdateSubmissionRequest) (*entity.Submission, error) {
	err := s.repo.WithLock(ctx, id, func(tx *gorm.DB, sub *entity.Submission) error {
		if sub.Status == entity.SubmissionStatusLocked {
			return ErrSubmissionLocked
		}
		return repository.UpdateSubmissionFields(tx, id, map[string]interface{}{"data": req.Data})
	})
	if err != nil {
		return nil, err
	}
	return s.repo.FindDetail(ctx, id)
}

// Submit 提交审核，带 invite_id 时同步邀请状态
func (s *SubmissionService) Submit(ctx context.Context, id string, req *SubmitRequest) (*entity.Submission, error) {
	err := s.repo.WithLock(ctx, id, func(tx *gorm.DB, sub *entity.Submission) error {
		if sub.Status == entity.SubmissionStatusLocked {
			return ErrSubmissionLocked
		}
		err := repository.UpdateSubmissionFields(tx, id, map[string]interface{}{
			"status":       entity.SubmissionStatusSubmitted,
			"submitted_at": nowPtr(),
		})
		if err != nil {
			return err
		}
		if req != nil && req.InviteID != "" {
			if err := repository.MarkInviteSubmitted(tx, req.InviteID, id); err != nil {
				if apperr.IsNotFound(err) {
					return apperr.Validation("invite_id references unknown invite %s", req.InviteID)
				}
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.repo.FindDetail(ctx, id)
}

// Resubmit 修改后重新提交，版本号加一
func (s *SubmissionService) Resubmit(ctx context.Context, id string) (*entity.Submission, error) {
	err := s.repo.WithLock(ctx, id, func(tx *gorm.DB, sub *entity.Submission) error {
		if sub.Status == entity.SubmissionStatusLocked {
			return ErrSubmissionLocked
		}
		return repository.UpdateSubmissionFields(tx, id, map[string]interface{}{
			"status":       entity.SubmissionStatusSubmitted,
			"revision":     sub.Revision + 1,
			"submitted_at": nowPtr(),
		})
	})
	if err != nil {
		return nil, err
	}
	return s.repo.FindDetail(ctx, id)
}
