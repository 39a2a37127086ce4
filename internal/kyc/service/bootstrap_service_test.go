package service

import (
	"context"
	"testing"

	"github.com/CsAbdulelah/fundy-chatgpt/internal/config"
	"github.com/CsAbdulelah/fundy-chatgpt/internal/kyc/entity"
	"github.com/CsAbdulelah/fundy-chatgpt/internal/kyc/repository"
	"github.com/CsAbdulelah/fundy-chatgpt/internal/kyc/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestEnsureDefaultTeamIsIdempotent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repos := repository.NewRepositories(db)
	svc := NewBootstrapService(repos.Team, zaptest.NewLogger(t))
	ctx := context.Background()

	seed := config.SeedConfig{
		TeamName:        "GP Team",
		AdminName:       "GP Admin",
		AdminEmail:      "gp@example.com",
		Timezone:        "Asia/Riyadh",
		DefaultLanguage: "ar-SA",
	}

	created, err := svc.EnsureDefaultTeam(ctx, seed)
	require.NoError(t, err)
	assert.True(t, created)

	created, err = svc.EnsureDefaultTeam(ctx, seed)
	require.NoError(t, err)
	assert.False(t, created)

	teams, err := repos.Team.List(ctx)
	require.NoError(t, err)
	require.Len(t, teams, 1)
	team := teams[0]
	assert.Equal(t, "GP Team", team.Name)
	assert.Equal(t, "ar", team.DefaultLanguage)
	require.Len(t, team.Members, 1)
	assert.Equal(t, entity.TeamRoleGPAdmin, team.Members[0].RoleName)
	assert.Equal(t, team.OwnerUserID, team.Members[0].UserID)
	require.NotNil(t, team.Members[0].User)
	assert.Equal(t, "gp@example.com", team.Members[0].User.Email)
}
