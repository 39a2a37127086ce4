package engine

import (
	"context"

	"github.com/CsAbdulelah/fundy-chatgpt/internal/kyc/entity"
)

// Store runs engine work against persisted chain and submission state.
//
// Atomic must serialize every call for the same submission id: the read of
// the step-state set, the decision and the writes that follow are observed
// as one unit. Calls for different submissions must not block each other.
// A missing submission is reported as an apperr not-found error.
type Store interface {
	Atomic(ctx context.Context, submissionID string, fn func(tx Tx) error) error
}

// Tx is a unit of work scoped to one submission.
type Tx interface {
	Submission() (*entity.Submission, error)
	SaveSubmission(sub *entity.Submission) error

	// Chain returns the chain with its steps ordered by order_index.
	Chain(chainID string) (*entity.ApprovalChain, error)
	Step(stepID string) (*entity.ApprovalStep, error)

	StepStates() ([]entity.SubmissionApprovalStep, error)
	// ReplaceStepStates deletes every existing state of the submission and inserts states.
	ReplaceStepStates(states []entity.SubmissionApprovalStep) error
	SaveStepState(state *entity.SubmissionApprovalStep) error

	AppendAction(action *entity.ApprovalAction) error

	// Detail reloads the submission with step states and action history.
	Detail() (*entity.Submission, error)
}
