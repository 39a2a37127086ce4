package engine

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/CsAbdulelah/fundy-chatgpt/internal/kyc/apperr"
	"github.com/CsAbdulelah/fundy-chatgpt/internal/kyc/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memStore keeps engine state in maps; Atomic holds a per-submission mutex.
type memStore struct {
	mu          sync.Mutex
	locks       map[string]*sync.Mutex
	submissions map[string]*entity.Submission
	chains      map[string]*entity.ApprovalChain
	states      map[string][]entity.SubmissionApprovalStep
	actions     []entity.ApprovalAction
}

func newMemStore() *memStore {
	return &memStore{
		locks:       map[string]*sync.Mutex{},
		submissions: map[string]*entity.Submission{},
		chains:      map[string]*entity.ApprovalChain{},
		states:      map[string][]entity.SubmissionApprovalStep{},
	}
}

func (s *memStore) lockFor(id string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[id]
	if !ok {
		l = &sync.Mutex{}
		s.locks[id] = l
	}
	return l
}

func (s *memStore) Atomic(ctx context.Context, submissionID string, fn func(tx Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	l := s.lockFor(submissionID)
	l.Lock()
	defer l.Unlock()
	return fn(&memTx{s: s, id: submissionID})
}

func (s *memStore) addSubmission(id, status string) {
	s.submissions[id] = &entity.Submission{ID: id, Status: status, Revision: 1}
}

func (s *memStore) addChain(id string, approvers ...string) *entity.ApprovalChain {
	chain := &entity.ApprovalChain{ID: id, Name: id, IsActive: true}
	for i, a := range approvers {
		chain.Steps = append(chain.Steps, entity.ApprovalStep{
			ID: fmt.Sprintf("%s-s%d", id, i+1), ChainID: id, OrderIndex: i + 1, ApproverUserID: a,
		})
	}
	s.chains[id] = chain
	return chain
}

func (s *memStore) statuses(submissionID string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []string
	for _, st := range s.states[submissionID] {
		out = append(out, st.Status)
	}
	return out
}

func (s *memStore) actionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.actions)
}

type memTx struct {
	s  *memStore
	id string
}

func (t *memTx) Submission() (*entity.Submission, error) {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	sub, ok := t.s.submissions[t.id]
	if !ok {
		return nil, apperr.NotFound("submission", t.id)
	}
	cp := *sub
	return &cp, nil
}

func (t *memTx) SaveSubmission(sub *entity.Submission) error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	cp := *sub
	t.s.submissions[sub.ID] = &cp
	return nil
}

func (t *memTx) Chain(chainID string) (*entity.ApprovalChain, error) {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	chain, ok := t.s.chains[chainID]
	if !ok {
		return nil, apperr.NotFound("approval chain", chainID)
	}
	cp := *chain
	cp.Steps = append([]entity.ApprovalStep(nil), chain.Steps...)
	sort.Slice(cp.Steps, func(i, j int) bool { return cp.Steps[i].OrderIndex < cp.Steps[j].OrderIndex })
	return &cp, nil
}

func (t *memTx) Step(stepID string) (*entity.ApprovalStep, error) {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	for _, c := range t.s.chains {
		for _, st := range c.Steps {
			if st.ID == stepID {
				cp := st
				return &cp, nil
			}
		}
	}
	return nil, apperr.NotFound("approval step", stepID)
}

func (t *memTx) StepStates() ([]entity.SubmissionApprovalStep, error) {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	return append([]entity.SubmissionApprovalStep(nil), t.s.states[t.id]...), nil
}

func (t *memTx) ReplaceStepStates(states []entity.SubmissionApprovalStep) error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	t.s.states[t.id] = append([]entity.SubmissionApprovalStep(nil), states...)
	return nil
}

func (t *memTx) SaveStepState(state *entity.SubmissionApprovalStep) error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	for i, st := range t.s.states[t.id] {
		if st.ID == state.ID {
			t.s.states[t.id][i] = *state
			return nil
		}
	}
	return apperr.NotFound("approval step state", state.ID)
}

func (t *memTx) AppendAction(action *entity.ApprovalAction) error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	t.s.actions = append(t.s.actions, *action)
	return nil
}

func (t *memTx) Detail() (*entity.Submission, error) {
	sub, err := t.Submission()
	if err != nil {
		return nil, err
	}
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	sub.ApprovalSteps = append([]entity.SubmissionApprovalStep(nil), t.s.states[t.id]...)
	for _, a := range t.s.actions {
		if a.SubmissionID == t.id {
			sub.ApprovalActions = append(sub.ApprovalActions, a)
		}
	}
	return sub, nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []Event
}

func (p *recordingPublisher) Publish(_ context.Context, evt Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, evt)
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []string
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

var fixedNow = time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)

func newTestEngine(store *memStore, pub Publisher) *Engine {
	var seq int64
	return New(store,
		WithPublisher(pub),
		WithClock(func() time.Time { return fixedNow }),
		WithIDGenerator(func() string { return fmt.Sprintf("id-%d", atomic.AddInt64(&seq, 1)) }),
	)
}

func approve(step, actor string) ActRequest {
	return ActRequest{StepID: step, ActorID: actor, Action: entity.ActionApprove}
}

func TestSequentialUnlock(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	store.addSubmission("sub-1", entity.SubmissionStatusSubmitted)
	store.addChain("c", "u1", "u2", "u3")
	eng := newTestEngine(store, nil)

	sub, err := eng.StartChain(ctx, "sub-1", "c")
	require.NoError(t, err)
	assert.Len(t, sub.ApprovalSteps, 3)
	assert.Equal(t, []string{"pending", "locked", "locked"}, store.statuses("sub-1"))

	_, err = eng.ActOnStep(ctx, "sub-1", approve("c-s1", "u1"))
	require.NoError(t, err)
	assert.Equal(t, []string{"approved", "pending", "locked"}, store.statuses("sub-1"))

	_, err = eng.ActOnStep(ctx, "sub-1", approve("c-s2", "u2"))
	require.NoError(t, err)
	assert.Equal(t, []string{"approved", "approved", "pending"}, store.statuses("sub-1"))

	sub, err = eng.ActOnStep(ctx, "sub-1", approve("c-s3", "u3"))
	require.NoError(t, err)
	assert.Equal(t, []string{"approved", "approved", "approved"}, store.statuses("sub-1"))
	assert.Equal(t, entity.SubmissionStatusLocked, sub.Status)
	require.NotNil(t, sub.LockedAt)
	assert.Equal(t, fixedNow, *sub.LockedAt)
	for _, st := range sub.ApprovalSteps {
		require.NotNil(t, st.ActedAt)
	}
}

func TestLockedStepRejected(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	store.addSubmission("sub-1", entity.SubmissionStatusSubmitted)
	store.addChain("c", "u1", "u2", "u3")
	eng := newTestEngine(store, nil)

	_, err := eng.StartChain(ctx, "sub-1", "c")
	require.NoError(t, err)

	for _, step := range []string{"c-s2", "c-s3"} {
		for _, action := range []string{entity.ActionApprove, entity.ActionReject} {
			_, err := eng.ActOnStep(ctx, "sub-1", ActRequest{StepID: step, ActorID: "u2", Action: action})
			assert.ErrorIs(t, err, ErrStepLocked)
			assert.True(t, apperr.IsConflict(err))
		}
	}

	assert.Equal(t, 0, store.actionCount())
	assert.Equal(t, []string{"pending", "locked", "locked"}, store.statuses("sub-1"))
	assert.Equal(t, entity.SubmissionStatusSubmitted, store.submissions["sub-1"].Status)
}

func TestRejectionShortCircuits(t *testing.T) {
	tests := []struct {
		name        string
		approveTill int
		want        []string
	}{
		{"first step", 0, []string{"rejected", "locked", "locked"}},
		{"middle step", 1, []string{"approved", "rejected", "locked"}},
		{"last step", 2, []string{"approved", "approved", "rejected"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			store := newMemStore()
			store.addSubmission("sub-1", entity.SubmissionStatusSubmitted)
			chain := store.addChain("c", "u1", "u2", "u3")
			eng := newTestEngine(store, nil)

			_, err := eng.StartChain(ctx, "sub-1", "c")
			require.NoError(t, err)
			for i := 0; i < tt.approveTill; i++ {
				_, err := eng.ActOnStep(ctx, "sub-1", approve(chain.Steps[i].ID, "u"))
				require.NoError(t, err)
			}

			sub, err := eng.ActOnStep(ctx, "sub-1", ActRequest{
				StepID: chain.Steps[tt.approveTill].ID, ActorID: "u", Action: entity.ActionReject, Comment: "missing passport",
			})
			require.NoError(t, err)
			assert.Equal(t, entity.SubmissionStatusChangesRequested, sub.Status)
			assert.Nil(t, sub.LockedAt)
			assert.Equal(t, tt.want, store.statuses("sub-1"))
		})
	}
}

func TestAuditTrail(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	store.addSubmission("sub-1", entity.SubmissionStatusSubmitted)
	store.addChain("c", "alice", "bob")
	eng := newTestEngine(store, nil)

	_, err := eng.StartChain(ctx, "sub-1", "c")
	require.NoError(t, err)
	_, err = eng.ActOnStep(ctx, "sub-1", ActRequest{StepID: "c-s1", ActorID: "alice", Action: entity.ActionApprove, Comment: "docs ok"})
	require.NoError(t, err)
	sub, err := eng.ActOnStep(ctx, "sub-1", ActRequest{StepID: "c-s2", ActorID: "bob", Action: entity.ActionReject})
	require.NoError(t, err)

	require.Len(t, sub.ApprovalActions, 2)
	first, second := sub.ApprovalActions[0], sub.ApprovalActions[1]
	assert.Equal(t, "alice", first.ActorID)
	assert.Equal(t, entity.ActionApprove, first.Action)
	assert.Equal(t, "docs ok", first.Comment)
	assert.Equal(t, fixedNow, first.ActedAt)
	assert.Equal(t, "bob", second.ActorID)
	assert.Equal(t, entity.ActionReject, second.Action)
	assert.Empty(t, second.Comment)
	assert.NotEqual(t, first.ID, second.ID)
}

func TestRestartDiscardsProgressKeepsAudit(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	store.addSubmission("sub-1", entity.SubmissionStatusSubmitted)
	store.addChain("c", "u1", "u2", "u3")
	eng := newTestEngine(store, nil)

	_, err := eng.StartChain(ctx, "sub-1", "c")
	require.NoError(t, err)
	_, err = eng.ActOnStep(ctx, "sub-1", approve("c-s1", "u1"))
	require.NoError(t, err)
	_, err = eng.ActOnStep(ctx, "sub-1", approve("c-s2", "u2"))
	require.NoError(t, err)

	sub, err := eng.StartChain(ctx, "sub-1", "c")
	require.NoError(t, err)
	assert.Equal(t, []string{"pending", "locked", "locked"}, store.statuses("sub-1"))
	for _, st := range sub.ApprovalSteps {
		assert.Nil(t, st.ActedAt)
	}
	assert.Len(t, sub.ApprovalActions, 2)
	assert.Equal(t, entity.SubmissionStatusSubmitted, sub.Status)
}

func TestRepeatedActionIsConflict(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	store.addSubmission("sub-1", entity.SubmissionStatusSubmitted)
	store.addChain("c", "u1", "u2")
	eng := newTestEngine(store, nil)

	_, err := eng.StartChain(ctx, "sub-1", "c")
	require.NoError(t, err)

	_, err = eng.ActOnStep(ctx, "sub-1", approve("c-s1", "u1"))
	require.NoError(t, err)
	_, err = eng.ActOnStep(ctx, "sub-1", approve("c-s1", "u1"))
	assert.ErrorIs(t, err, ErrStepAlreadyDecided)

	assert.Equal(t, 1, store.actionCount())
	assert.Equal(t, []string{"approved", "pending"}, store.statuses("sub-1"))

	_, err = eng.ActOnStep(ctx, "sub-1", ActRequest{StepID: "c-s2", ActorID: "u2", Action: entity.ActionReject})
	require.NoError(t, err)
	_, err = eng.ActOnStep(ctx, "sub-1", approve("c-s2", "u2"))
	assert.ErrorIs(t, err, ErrStepAlreadyDecided)
	assert.Equal(t, 2, store.actionCount())
	assert.Equal(t, entity.SubmissionStatusChangesRequested, store.submissions["sub-1"].Status)
}

func TestTwoApproverScenario(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	store.addSubmission("42", entity.SubmissionStatusSubmitted)
	store.addChain("chain", "alice", "bob")
	pub := &recordingPublisher{}
	eng := newTestEngine(store, pub)

	_, err := eng.StartChain(ctx, "42", "chain")
	require.NoError(t, err)
	assert.Equal(t, []string{"pending", "locked"}, store.statuses("42"))

	_, err = eng.ActOnStep(ctx, "42", approve("chain-s2", "bob"))
	assert.ErrorIs(t, err, ErrStepLocked)
	assert.Equal(t, []string{"pending", "locked"}, store.statuses("42"))

	sub, err := eng.ActOnStep(ctx, "42", approve("chain-s1", "alice"))
	require.NoError(t, err)
	assert.Equal(t, []string{"approved", "pending"}, store.statuses("42"))
	assert.Equal(t, entity.SubmissionStatusSubmitted, sub.Status)

	sub, err = eng.ActOnStep(ctx, "42", approve("chain-s2", "bob"))
	require.NoError(t, err)
	assert.Equal(t, []string{"approved", "approved"}, store.statuses("42"))
	assert.Equal(t, entity.SubmissionStatusLocked, sub.Status)
	assert.NotNil(t, sub.LockedAt)

	assert.Equal(t, []string{EventChainStarted, EventStepApproved, EventStepApproved, EventSubmissionLocked}, pub.types())
}

func TestSuccessorIgnoresOrderGaps(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	store.addSubmission("sub-1", entity.SubmissionStatusSubmitted)
	chain := store.addChain("c", "u1", "u2")
	chain.Steps[1].OrderIndex = 5
	eng := newTestEngine(store, nil)

	_, err := eng.StartChain(ctx, "sub-1", "c")
	require.NoError(t, err)
	_, err = eng.ActOnStep(ctx, "sub-1", approve("c-s1", "u1"))
	require.NoError(t, err)
	assert.Equal(t, []string{"approved", "pending"}, store.statuses("sub-1"))

	sub, err := eng.ActOnStep(ctx, "sub-1", approve("c-s2", "u2"))
	require.NoError(t, err)
	assert.Equal(t, entity.SubmissionStatusLocked, sub.Status)
}

func TestConcurrentApproversDecideOnce(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	store.addSubmission("sub-1", entity.SubmissionStatusSubmitted)
	store.addChain("c", "u1", "u2")
	eng := newTestEngine(store, nil)

	_, err := eng.StartChain(ctx, "sub-1", "c")
	require.NoError(t, err)

	const workers = 16
	var (
		wg        sync.WaitGroup
		succeeded int64
		conflicts int64
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := eng.ActOnStep(ctx, "sub-1", approve("c-s1", fmt.Sprintf("u%d", i)))
			switch {
			case err == nil:
				atomic.AddInt64(&succeeded, 1)
			case apperr.IsConflict(err):
				atomic.AddInt64(&conflicts, 1)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int64(1), succeeded)
	assert.Equal(t, int64(workers-1), conflicts)
	assert.Equal(t, 1, store.actionCount())
	assert.Equal(t, []string{"approved", "pending"}, store.statuses("sub-1"))
}

func TestEngineErrors(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	store.addSubmission("sub-1", entity.SubmissionStatusSubmitted)
	store.addChain("c", "u1")
	store.chains["empty"] = &entity.ApprovalChain{ID: "empty"}
	eng := newTestEngine(store, nil)

	_, err := eng.StartChain(ctx, "missing", "c")
	assert.True(t, apperr.IsNotFound(err))

	_, err = eng.StartChain(ctx, "sub-1", "nope")
	assert.True(t, apperr.IsNotFound(err))

	_, err = eng.StartChain(ctx, "sub-1", "empty")
	assert.True(t, apperr.IsValidation(err))

	_, err = eng.ActOnStep(ctx, "sub-1", ActRequest{StepID: "c-s1", ActorID: "u1", Action: "hold"})
	assert.True(t, apperr.IsValidation(err))

	// chain never started on this submission
	_, err = eng.ActOnStep(ctx, "sub-1", approve("c-s1", "u1"))
	assert.True(t, apperr.IsNotFound(err))

	_, err = eng.ActOnStep(ctx, "sub-1", approve("ghost", "u1"))
	assert.True(t, apperr.IsNotFound(err))
	assert.Equal(t, 0, store.actionCount())
}
