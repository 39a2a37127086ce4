// Package engine drives the per-submission approval chain: sequential unlock
// of ordered steps, approve/reject decisions and the append-only audit trail.
package engine

import (
	"context"
	"time"

	"github.com/CsAbdulelah/fundy-chatgpt/internal/kyc/apperr"
	"github.com/CsAbdulelah/fundy-chatgpt/internal/kyc/entity"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrStepLocked         = apperr.Conflict("Step is locked")
	ErrStepAlreadyDecided = apperr.Conflict("Step already decided")
)

// ActRequest is one approver decision on one step.
type ActRequest struct {
	StepID  string
	ActorID string
	Action  string
	Comment string
}

type Engine struct {
	store     Store
	publisher Publisher
	logger    *zap.Logger
	now       func() time.Time
	newID     func() string
}

type Option func(*Engine)

func WithPublisher(p Publisher) Option {
	return func(e *Engine) {
		if p != nil {
			e.publisher = p
		}
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

func WithIDGenerator(newID func() string) Option {
	return func(e *Engine) { e.newID = newID }
}

func New(store Store, opts ...Option) *Engine {
	e := &Engine{
		store:     store,
		publisher: nopPublisher{},
		logger:    zap.NewNop(),
		now:       time.Now,
		newID:     func() string { return uuid.New().String() },
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// StartChain instantiates the chain's steps on the submission. Existing step
// states are discarded; the first step becomes pending and the rest locked.
// Recorded approval actions are left in place.
func (e *Engine) StartChain(ctx context.Context, submissionID, chainID string) (*entity.Submission, error) {
	var (
		detail *entity.Submission
		events []Event
	)
	err := e.store.Atomic(ctx, submissionID, func(tx Tx) error {
		sub, err := tx.Submission()
		if err != nil {
			return err
		}
		chain, err := tx.Chain(chainID)
		if err != nil {
			return err
		}
		if len(chain.Steps) == 0 {
			return apperr.Validation("approval chain %s has no steps", chainID)
		}

		states := make([]entity.SubmissionApprovalStep, len(chain.Steps))
		for i, step := range chain.Steps {
			status := entity.StepStatusLocked
			if i == 0 {
				status = entity.StepStatusPending
			}
			states[i] = entity.SubmissionApprovalStep{
				ID:           e.newID(),
				SubmissionID: sub.ID,
				StepID:       step.ID,
				Status:       status,
			}
		}
		if err := tx.ReplaceStepStates(states); err != nil {
			return err
		}

		events = append(events, Event{
			Type:         EventChainStarted,
			SubmissionID: sub.ID,
			ChainID:      chain.ID,
			StepID:       chain.Steps[0].ID,
			Status:       sub.Status,
			At:           e.now(),
		})
		detail, err = tx.Detail()
		return err
	})
	if err != nil {
		return nil, err
	}

	e.logger.Info("Approval chain started",
		zap.String("submission_id", submissionID),
		zap.String("chain_id", chainID),
	)
	e.publish(ctx, events)
	return detail, nil
}

// ActOnStep applies an approve or reject decision to a pending step.
//
// Approving unlocks the next step in chain order; approving the final step
// locks the submission once every step is approved. Rejecting moves the
// submission to changes_requested and leaves the other steps untouched.
// Each accepted decision appends exactly one audit action.
func (e *Engine) ActOnStep(ctx context.Context, submissionID string, req ActRequest) (*entity.Submission, error) {
	if req.Action != entity.ActionApprove && req.Action != entity.ActionReject {
		return nil, apperr.Validation("action must be approve or reject, got %q", req.Action)
	}

	var (
		detail *entity.Submission
		events []Event
	)
	err := e.store.Atomic(ctx, submissionID, func(tx Tx) error {
		sub, err := tx.Submission()
		if err != nil {
			return err
		}
		step, err := tx.Step(req.StepID)
		if err != nil {
			return err
		}
		// Chain lock is taken before any step-state write.
		chain, err := tx.Chain(step.ChainID)
		if err != nil {
			return err
		}
		if !containsStep(chain.Steps, step.ID) {
			return apperr.NotFound("approval step", step.ID)
		}
		states, err := tx.StepStates()
		if err != nil {
			return err
		}
		current := findState(states, step.ID)
		if current == nil {
			return apperr.NotFound("approval step state", step.ID)
		}

		switch current.Status {
		case entity.StepStatusLocked:
			return ErrStepLocked
		case entity.StepStatusApproved, entity.StepStatusRejected:
			return ErrStepAlreadyDecided
		}

		now := e.now()
		current.Status = entity.StepStatusApproved
		evtType := EventStepApproved
		if req.Action == entity.ActionReject {
			current.Status = entity.StepStatusRejected
			evtType = EventStepRejected
		}
		current.ActedAt = &now
		if err := tx.SaveStepState(current); err != nil {
			return err
		}

		if err := tx.AppendAction(&entity.ApprovalAction{
			ID:           e.newID(),
			SubmissionID: sub.ID,
			StepID:       step.ID,
			ActorID:      req.ActorID,
			Action:       req.Action,
			Comment:      req.Comment,
			ActedAt:      now,
		}); err != nil {
			return err
		}

		if req.Action == entity.ActionReject {
			sub.Status = entity.SubmissionStatusChangesRequested
			if err := tx.SaveSubmission(sub); err != nil {
				return err
			}
			events = append(events,
				e.stepEvent(evtType, sub, step, req, now),
				Event{Type: EventChangesRequested, SubmissionID: sub.ID, ChainID: step.ChainID, StepID: step.ID, Status: sub.Status, At: now},
			)
		} else {
			locked := false
			if next := successor(chain.Steps, step.ID); next != nil {
				if ns := findState(states, next.ID); ns != nil && ns.Status == entity.StepStatusLocked {
					ns.Status = entity.StepStatusPending
					if err := tx.SaveStepState(ns); err != nil {
						return err
					}
				}
			} else if allApproved(states) {
				sub.Status = entity.SubmissionStatusLocked
				sub.LockedAt = &now
				if err := tx.SaveSubmission(sub); err != nil {
					return err
				}
				locked = true
			}
			events = append(events, e.stepEvent(evtType, sub, step, req, now))
			if locked {
				events = append(events, Event{Type: EventSubmissionLocked, SubmissionID: sub.ID, ChainID: chain.ID, Status: sub.Status, At: now})
			}
		}

		detail, err = tx.Detail()
		return err
	})
	if err != nil {
		return nil, err
	}

	e.logger.Info("Approval step decided",
		zap.String("submission_id", submissionID),
		zap.String("step_id", req.StepID),
		zap.String("actor_id", req.ActorID),
		zap.String("action", req.Action),
		zap.String("submission_status", detail.Status),
	)
	e.publish(ctx, events)
	return detail, nil
}

func (e *Engine) stepEvent(typ string, sub *entity.Submission, step *entity.ApprovalStep, req ActRequest, at time.Time) Event {
	return Event{
		Type:         typ,
		SubmissionID: sub.ID,
		ChainID:      step.ChainID,
		StepID:       step.ID,
		ActorID:      req.ActorID,
		Action:       req.Action,
		Status:       sub.Status,
		At:           at,
	}
}

func (e *Engine) publish(ctx context.Context, events []Event) {
	for _, evt := range events {
		if err := e.publisher.Publish(ctx, evt); err != nil {
			e.logger.Warn("Publish approval event failed",
				zap.String("type", evt.Type),
				zap.String("submission_id", evt.SubmissionID),
				zap.Error(err),
			)
		}
	}
}

func containsStep(steps []entity.ApprovalStep, stepID string) bool {
	for i := range steps {
		if steps[i].ID == stepID {
			return true
		}
	}
	return false
}

func findState(states []entity.SubmissionApprovalStep, stepID string) *entity.SubmissionApprovalStep {
	for i := range states {
		if states[i].StepID == stepID {
			return &states[i]
		}
	}
	return nil
}

// successor walks the ordered step list, so gaps in order_index never stall the chain.
func successor(steps []entity.ApprovalStep, stepID string) *entity.ApprovalStep {
	for i := range steps {
		if steps[i].ID == stepID && i+1 < len(steps) {
			return &steps[i+1]
		}
	}
	return nil
}

func allApproved(states []entity.SubmissionApprovalStep) bool {
	for _, s := range states {
		if s.Status != entity.StepStatusApproved {
			return false
		}
	}
	return len(states) > 0
}
