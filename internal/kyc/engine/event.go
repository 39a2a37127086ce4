package engine

import (
	"context"
	"time"
)

// Event types
const (
	EventChainStarted       = "chain_started"
	EventStepApproved       = "step_approved"
	EventStepRejected       = "step_rejected"
	EventSubmissionLocked   = "submission_locked"
	EventChangesRequested   = "changes_requested"
	EventSubmissionApproved = "submission_approved"
)

// Event describes a committed approval transition.
type Event struct {
	Type         string    `json:"type"`
	SubmissionID string    `json:"submission_id"`
	ChainID      string    `json:"chain_id,omitempty"`
	StepID       string    `json:"step_id,omitempty"`
	ActorID      string    `json:"actor_id,omitempty"`
	Action       string    `json:"action,omitempty"`
	Status       string    `json:"status"`
	At           time.Time `json:"at"`
}

// Publisher delivers events after the transaction that produced them commits.
type Publisher interface {
	Publish(ctx context.Context, evt Event) error
}

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, Event) error { return nil }
