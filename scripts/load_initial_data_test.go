package main

import (
	"context"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"gift-exchange-backend/internal/database/models"
	"gift-exchange-backend/internal/matching"
	"gift-exchange-backend/internal/repository/memory"
	"gift-exchange-backend/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestLoadExchanges(t *testing.T) {
	exchanges, err := loadExchanges("data")
	require.NoError(t, err)
	require.Len(t, exchanges, 3)

	assert.Equal(t, "Winter24", exchanges[0].Name)
	assert.Equal(t, "alice", exchanges[0].Captain.ID)
	assert.Len(t, exchanges[0].Members, 3)
	assert.True(t, exchanges[0].Assign)
	assert.Equal(t, "mistletoe", exchanges[1].Secret)
}

func TestLoadExchangesRejectsBadYAML(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.yaml"), []byte("exchanges: [\n"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o600))

	_, err := loadExchanges(dir)
	assert.Error(t, err)
}

func TestSeedExchanges(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	v := validator.New()
	groups := service.NewGroupService(store, matching.NewGenerator(rand.NewSource(5), 0), v, nil).WithSecretCost(bcrypt.MinCost)
	memberships := service.NewMembershipService(store, v, nil, 0)

	exchanges, err := loadExchanges("data")
	require.NoError(t, err)

	stats, err := seedExchanges(ctx, groups, memberships, exchanges)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.created)
	assert.Equal(t, 7, stats.joined)

	list, err := groups.List(ctx, service.Identity{}, service.ListModeAll, 1, 20)
	require.NoError(t, err)
	states := map[string]models.LifecycleState{}
	for _, g := range list.Groups {
		states[g.Name] = g.State
	}
	assert.Equal(t, models.LifecycleStateAssigned, states["Winter24"])
	assert.Equal(t, models.LifecycleStateOpen, states["Office Party"])
	assert.Equal(t, models.LifecycleStateRevealed, states["Book Club"])

	// a second run only skips
	stats, err = seedExchanges(ctx, groups, memberships, exchanges)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.created)
	assert.Equal(t, 3, stats.skipped)
}
