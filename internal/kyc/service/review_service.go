package service

import (
	"context"
	"time"

	"github.com/CsAbdulelah/fundy-chatgpt/internal/kyc/engine"
	"github.com/CsAbdulelah/fundy-chatgpt/internal/kyc/entity"
	"github.com/CsAbdulelah/fundy-chatgpt/internal/kyc/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ReviewService 单人审核：驳回（附字段意见）或直接通过，不经过审批链
type ReviewService struct {
	repo      *repository.SubmissionRepository
	userRepo  *repository.UserRepository
	publisher engine.Publisher
	logger    *zap.Logger
	now       func() time.Time
}

func NewReviewService(repo *repository.SubmissionRepository, userRepo *repository.UserRepository, publisher engine.Publisher, logger *zap.Logger) *ReviewService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReviewService{repo: repo, userRepo: userRepo, publisher: publisher, logger: logger, now: time.Now}
}

// CommentInput 字段级意见
type CommentInput struct {
	SectionKey string `json:"section_key"`
	FieldKey   string `json:"field_key"`
	Comment    string `json:"comment" binding:"required"`
}

// RejectRequest 驳回请求
type RejectRequest struct {
	ReviewerUserID string         `json:"reviewer_user_id" binding:"required"`
	Comments       []CommentInput `json:"comments" binding:"required,dive"`
}

// Reject 写入意见并将提交置为 changes_requested。comments 为空时只改状态。
func (s *ReviewService) Reject(ctx context.Context, id string, req *RejectRequest) (*entity.Submission, error) {
	if err := requireUsers(ctx, s.userRepo, "reviewer_user_id", req.ReviewerUserID); err != nil {
		return nil, err
	}

	now := s.now()
	err := s.repo.WithLock(ctx, id, func(tx *gorm.DB, sub *entity.Submission) error {
		comments := make([]entity.KycComment, 0, len(req.Comments))
		for _, c := range req.Comments {
			comments = append(comments, entity.KycComment{
				ID:             newID(),
				SubmissionID:   sub.ID,
				ReviewerUserID: req.ReviewerUserID,
				SectionKey:     c.SectionKey,
				FieldKey:       c.FieldKey,
				Comment:        c.Comment,
			})
		}
		if err := repository.CreateComments(tx, comments); err != nil {
			return err
		}
		return repository.UpdateSubmissionFields(tx, sub.ID, map[string]interface{}{
			"status": entity.SubmissionStatusChangesRequested,
		})
	})
	if err != nil {
		return nil, err
	}

	if len(req.Comments) == 0 {
		s.logger.Warn("Submission rejected without comments", zap.String("submission_id", id))
	}
	s.publish(ctx, engine.Event{
		Type:         engine.EventChangesRequested,
		SubmissionID: id,
		ActorID:      req.ReviewerUserID,
		Action:       entity.ActionReject,
		Status:       entity.SubmissionStatusChangesRequested,
		At:           now,
	})
	return s.repo.FindDetail(ctx, id)
}

// Approve 直接通过，记录 approved_at
func (s *ReviewService) Approve(ctx context.Context, id string) (*entity.Submission, error) {
	now := s.now()
	err := s.repo.WithLock(ctx, id, func(tx *gorm.DB, sub *entity.Submission) error {
		return repository.UpdateSubmissionFields(tx, sub.ID, map[string]interface{}{
			"status":      entity.SubmissionStatusApproved,
			"approved_at": now,
		})
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, engine.Event{
		Type:         engine.EventSubmissionApproved,
		SubmissionID: id,
		Action:       entity.ActionApprove,
		Status:       entity.SubmissionStatusApproved,
		At:           now,
	})
	return s.repo.FindDetail(ctx, id)
}

// ResolveComment 标记意见已处理
func (s *ReviewService) ResolveComment(ctx context.Context, submissionID, commentID string) (*entity.KycComment, error) {
	c, err := s.repo.FindComment(ctx, submissionID, commentID)
	if err != nil {
		return nil, err
	}
	if c.ResolvedAt == nil {
		now := s.now()
		c.ResolvedAt = &now
		if err := s.repo.SaveComment(ctx, c); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func (s *ReviewService) publish(ctx context.Context, evt engine.Event) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, evt); err != nil {
		s.logger.Warn("Publish review event failed", zap.String("type", evt.Type), zap.Error(err))
	}
}
