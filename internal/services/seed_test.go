package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/teslo-shop/apiserver/internal/logging"
	"github.com/teslo-shop/apiserver/types"
)

func TestSeedService_Run(t *testing.T) {
	users := newMemUsers()
	repo := newMemProducts()
	products := NewProductService(repo, nil, logging.Nop())
	seed := NewSeedService(products, users, plainHasher{}, logging.Nop())
	ctx := context.Background()

	stale := types.User{ID: uuid.New(), Email: "stale@shop.io"}
	users.rows[stale.ID] = stale
	_, err := products.Create(ctx, CreateProductInput{Title: "Stale", Gender: "men"}, stale)
	require.NoError(t, err)

	require.NoError(t, seed.Run(ctx))
	// Running twice must leave the same state.
	require.NoError(t, seed.Run(ctx))

	require.Len(t, users.rows, len(seedUsers))
	_, stillThere := users.rows[stale.ID]
	assert.False(t, stillThere)

	admin, err := users.GetByEmail(ctx, "test1@google.com")
	require.NoError(t, err)
	assert.Equal(t, []string{types.RoleAdmin}, admin.Roles)
	assert.Equal(t, "hashed:Abc123", admin.PasswordHash)

	require.Len(t, repo.rows, len(seedProducts))
	for _, p := range repo.rows {
		assert.Equal(t, admin.ID, p.UserID)
		assert.NotEmpty(t, p.Images)
		assert.NotEqual(t, "Stale", p.Title)
	}

	tee, err := products.FindOne(ctx, "cybertruck_bulletproof_tee")
	require.NoError(t, err)
	assert.Equal(t, "unisex", tee.Gender)
}
