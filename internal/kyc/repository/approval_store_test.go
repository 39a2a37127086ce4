package repository

import (
	"context"
	"sync"
	"testing"

	"github.com/CsAbdulelah/fundy-chatgpt/internal/kyc/apperr"
	"github.com/CsAbdulelah/fundy-chatgpt/internal/kyc/engine"
	"github.com/CsAbdulelah/fundy-chatgpt/internal/kyc/entity"
	"github.com/CsAbdulelah/fundy-chatgpt/internal/kyc/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type approvalFixture struct {
	repos  *Repositories
	engine *engine.Engine
	chain  *entity.ApprovalChain
	sub    *entity.Submission
}

func setupApproval(t *testing.T, approvers ...string) (*gorm.DB, *approvalFixture) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	testutil.SeedUser(t, db, "gp-owner", "Owner")
	testutil.SeedUser(t, db, "lp-1", "Investor")
	for _, id := range approvers {
		testutil.SeedUser(t, db, id, id)
	}
	team, tpl := testutil.SeedTeamTemplate(t, db, "gp-owner")

	repos := NewRepositories(db)
	chain := &entity.ApprovalChain{ID: uuid.New().String(), TeamID: team.ID, TemplateID: tpl.ID, Name: "Compliance", IsActive: true}
	for i, id := range approvers {
		chain.Steps = append(chain.Steps, entity.ApprovalStep{
			ID:             uuid.New().String(),
			ChainID:        chain.ID,
			OrderIndex:     i + 1,
			ApproverUserID: id,
		})
	}
	require.NoError(t, repos.Chain.Create(context.Background(), chain))

	return db, &approvalFixture{
		repos:  repos,
		engine: engine.New(repos.Approval),
		chain:  chain,
		sub:    testutil.SeedSubmission(t, db, tpl.ID, "lp-1"),
	}
}

func statuses(sub *entity.Submission) []string {
	out := make([]string, len(sub.ApprovalSteps))
	for i, s := range sub.ApprovalSteps {
		out[i] = s.Status
	}
	return out
}

func TestApprovalStoreSequentialFlow(t *testing.T) {
	_, fx := setupApproval(t, "alice", "bob")
	ctx := context.Background()
	s1, s2 := fx.chain.Steps[0].ID, fx.chain.Steps[1].ID

	detail, err := fx.engine.StartChain(ctx, fx.sub.ID, fx.chain.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"pending", "locked"}, statuses(detail))
	assert.Equal(t, entity.SubmissionStatusSubmitted, detail.Status)

	_, err = fx.engine.ActOnStep(ctx, fx.sub.ID, engine.ActRequest{StepID: s2, ActorID: "bob", Action: "approve"})
	require.Error(t, err)
	assert.ErrorIs(t, err, engine.ErrStepLocked)

	detail, err = fx.engine.ActOnStep(ctx, fx.sub.ID, engine.ActRequest{StepID: s1, ActorID: "alice", Action: "approve", Comment: "looks fine"})
	require.NoError(t, err)
	assert.Equal(t, []string{"approved", "pending"}, statuses(detail))

	detail, err = fx.engine.ActOnStep(ctx, fx.sub.ID, engine.ActRequest{StepID: s2, ActorID: "bob", Action: "approve"})
	require.NoError(t, err)
	assert.Equal(t, []string{"approved", "approved"}, statuses(detail))
	assert.Equal(t, entity.SubmissionStatusLocked, detail.Status)
	assert.NotNil(t, detail.LockedAt)
	require.Len(t, detail.ApprovalActions, 2)
	assert.Equal(t, "looks fine", detail.ApprovalActions[0].Comment)
	assert.Equal(t, "bob", detail.ApprovalActions[1].ActorID)
}

func TestApprovalStoreRejection(t *testing.T) {
	_, fx := setupApproval(t, "alice", "bob", "carol")
	ctx := context.Background()

	_, err := fx.engine.StartChain(ctx, fx.sub.ID, fx.chain.ID)
	require.NoError(t, err)
	_, err = fx.engine.ActOnStep(ctx, fx.sub.ID, engine.ActRequest{StepID: fx.chain.Steps[0].ID, ActorID: "alice", Action: "approve"})
	require.NoError(t, err)

	detail, err := fx.engine.ActOnStep(ctx, fx.sub.ID, engine.ActRequest{StepID: fx.chain.Steps[1].ID, ActorID: "bob", Action: "reject", Comment: "missing passport"})
	require.NoError(t, err)
	assert.Equal(t, entity.SubmissionStatusChangesRequested, detail.Status)
	assert.Equal(t, []string{"approved", "rejected", "locked"}, statuses(detail))
	assert.Len(t, detail.ApprovalActions, 2)

	_, err = fx.engine.ActOnStep(ctx, fx.sub.ID, engine.ActRequest{StepID: fx.chain.Steps[1].ID, ActorID: "bob", Action: "approve"})
	assert.ErrorIs(t, err, engine.ErrStepAlreadyDecided)
}

func TestApprovalStoreRestartKeepsActions(t *testing.T) {
	_, fx := setupApproval(t, "alice", "bob")
	ctx := context.Background()

	_, err := fx.engine.StartChain(ctx, fx.sub.ID, fx.chain.ID)
	require.NoError(t, err)
	_, err = fx.engine.ActOnStep(ctx, fx.sub.ID, engine.ActRequest{StepID: fx.chain.Steps[0].ID, ActorID: "alice", Action: "approve"})
	require.NoError(t, err)

	detail, err := fx.engine.StartChain(ctx, fx.sub.ID, fx.chain.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"pending", "locked"}, statuses(detail))
	assert.Len(t, detail.ApprovalActions, 1)
}

func TestApprovalStoreMissingRecords(t *testing.T) {
	_, fx := setupApproval(t, "alice")
	ctx := context.Background()

	_, err := fx.engine.StartChain(ctx, "missing", fx.chain.ID)
	assert.True(t, apperr.IsNotFound(err))

	_, err = fx.engine.StartChain(ctx, fx.sub.ID, "missing")
	assert.True(t, apperr.IsNotFound(err))

	_, err = fx.engine.ActOnStep(ctx, fx.sub.ID, engine.ActRequest{StepID: fx.chain.Steps[0].ID, ActorID: "alice", Action: "approve"})
	assert.True(t, apperr.IsNotFound(err), "no state before the chain is started")
}

func TestApprovalStoreConcurrentApprovals(t *testing.T) {
	_, fx := setupApproval(t, "alice", "bob")
	ctx := context.Background()

	_, err := fx.engine.StartChain(ctx, fx.sub.ID, fx.chain.ID)
	require.NoError(t, err)

	const workers = 6
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		conflicts int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := fx.engine.ActOnStep(ctx, fx.sub.ID, engine.ActRequest{StepID: fx.chain.Steps[0].ID, ActorID: "alice", Action: "approve"})
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				succeeded++
			} else if apperr.IsConflict(err) {
				conflicts++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded)
	assert.Equal(t, workers-1, conflicts)

	detail, err := fx.repos.Submission.FindDetail(ctx, fx.sub.ID)
	require.NoError(t, err)
	assert.Len(t, detail.ApprovalActions, 1)
	assert.Equal(t, []string{"approved", "pending"}, statuses(detail))
}

func TestChainReplaceDropsStaleProgress(t *testing.T) {
	db, fx := setupApproval(t, "alice", "bob")
	ctx := context.Background()

	_, err := fx.engine.StartChain(ctx, fx.sub.ID, fx.chain.ID)
	require.NoError(t, err)
	_, err = fx.engine.ActOnStep(ctx, fx.sub.ID, engine.ActRequest{StepID: fx.chain.Steps[0].ID, ActorID: "alice", Action: "approve"})
	require.NoError(t, err)

	newStep := entity.ApprovalStep{ID: uuid.New().String(), ChainID: fx.chain.ID, OrderIndex: 1, ApproverUserID: "bob"}
	chain, err := fx.repos.Chain.Replace(ctx, fx.chain.ID, map[string]interface{}{"name": "Fast track"}, []entity.ApprovalStep{newStep})
	require.NoError(t, err)
	assert.Equal(t, "Fast track", chain.Name)
	require.Len(t, chain.Steps, 1)
	assert.Equal(t, newStep.ID, chain.Steps[0].ID)

	var states int64
	require.NoError(t, db.Model(&entity.SubmissionApprovalStep{}).Where("submission_id = ?", fx.sub.ID).Count(&states).Error)
	assert.Zero(t, states)

	var actions int64
	require.NoError(t, db.Model(&entity.ApprovalAction{}).Where("submission_id = ?", fx.sub.ID).Count(&actions).Error)
	assert.Equal(t, int64(1), actions)

	_, err = fx.repos.Chain.Replace(ctx, "missing", nil, nil)
	assert.True(t, apperr.IsNotFound(err))
}

func TestChainReplaceConcurrentWithDecision(t *testing.T) {
	for round := 0; round < 5; round++ {
		_, fx := setupApproval(t, "alice", "bob")
		ctx := context.Background()

		_, err := fx.engine.StartChain(ctx, fx.sub.ID, fx.chain.ID)
		require.NoError(t, err)

		var (
			wg         sync.WaitGroup
			actErr     error
			replaceErr error
		)
		start := make(chan struct{})
		wg.Add(2)
		go func() {
			defer wg.Done()
			<-start
			_, actErr = fx.engine.ActOnStep(ctx, fx.sub.ID, engine.ActRequest{StepID: fx.chain.Steps[0].ID, ActorID: "alice", Action: "approve"})
		}()
		go func() {
			defer wg.Done()
			<-start
			step := entity.ApprovalStep{ID: uuid.New().String(), ChainID: fx.chain.ID, OrderIndex: 1, ApproverUserID: "bob"}
			_, replaceErr = fx.repos.Chain.Replace(ctx, fx.chain.ID, nil, []entity.ApprovalStep{step})
		}()
		close(start)
		wg.Wait()

		require.NoError(t, replaceErr)
		if actErr != nil {
			assert.True(t, apperr.IsNotFound(actErr), "round %d: %v", round, actErr)
		}

		detail, err := fx.repos.Submission.FindDetail(ctx, fx.sub.ID)
		require.NoError(t, err)
		assert.Empty(t, detail.ApprovalSteps)
	}
}
