package auth

import (
	"context"
	"testing"

	"velure/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestBcryptHasher_Hash(t *testing.T) {
	hasher := NewBcryptHasherWithCost(bcrypt.MinCost, 2)
	ctx := context.Background()

	password := "StrongPass123!"
	hash, err := hasher.Hash(ctx, password)
	require.NoError(t, err)
	assert.NotEmpty(t, hash)
	assert.NotEqual(t, password, hash)

	cost, err := bcrypt.Cost([]byte(hash))
	require.NoError(t, err)
	assert.Equal(t, bcrypt.MinCost, cost)

	ok, err := hasher.Check(ctx, password, hash)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestBcryptHasher_Check(t *testing.T) {
	hasher := NewBcryptHasherWithCost(bcrypt.MinCost, 1)
	ctx := context.Background()

	hash, err := hasher.Hash(ctx, "StrongPass123!")
	require.NoError(t, err)

	ok, err := hasher.Check(ctx, "WrongPassword123!", hash)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = hasher.Check(ctx, "", hash)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = hasher.Check(ctx, "StrongPass123!", "not-a-bcrypt-hash")
	assert.Error(t, err)
	assert.False(t, ok)
}

func TestBcryptHasher_SaltsEachHash(t *testing.T) {
	hasher := NewBcryptHasherWithCost(bcrypt.MinCost, 1)

	first, err := hasher.Hash(context.Background(), "same")
	require.NoError(t, err)
	second, err := hasher.Hash(context.Background(), "same")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestBcryptHasher_CancelledWhileWaiting(t *testing.T) {
	hasher := NewBcryptHasherWithCost(bcrypt.MinCost, 1).(*bcryptHasher)
	require.NoError(t, hasher.pool.Acquire(context.Background(), 1))
	defer hasher.pool.Release(1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := hasher.Hash(ctx, "pw")
	assert.ErrorIs(t, err, context.Canceled)

	_, err = hasher.Check(ctx, "pw", "hash")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewBcryptHasher_UsesConfig(t *testing.T) {
	cfg := &config.Config{Auth: &config.AuthConfig{BcryptCost: 1, BcryptWorkers: 0}}

	hasher := NewBcryptHasher(cfg).(*bcryptHasher)

	assert.Equal(t, bcrypt.MinCost, hasher.cost)
}
