package cache

import (
	"context"
	"testing"
	"time"

	"velure/internal/domain/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryTokenCache_SetGetDelete(t *testing.T) {
	c := NewMemoryTokenCache()
	ctx := context.Background()
	user := &entity.User{ID: 4, Email: "cy@velure.dev", Name: "Cy", PasswordHash: "secret-hash"}

	_, ok, err := c.Get(ctx, "token")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Set(ctx, "token", user, time.Minute))

	got, ok, err := c.Get(ctx, "token")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, uint(4), got.ID)
	assert.Equal(t, "cy@velure.dev", got.Email)
	assert.Empty(t, got.PasswordHash)

	require.NoError(t, c.Delete(ctx, "token"))
	_, ok, err = c.Get(ctx, "token")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryTokenCache_Expiry(t *testing.T) {
	now := time.Now()
	c := NewMemoryTokenCache()
	c.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "short", &entity.User{ID: 1}, time.Second))
	require.NoError(t, c.Set(ctx, "long", &entity.User{ID: 2}, time.Hour))
	require.NoError(t, c.Set(ctx, "never", &entity.User{ID: 3}, 0))
	assert.Equal(t, 2, c.Len())

	now = now.Add(2 * time.Second)

	_, ok, err := c.Get(ctx, "short")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 1, c.Len())

	require.NoError(t, c.Set(ctx, "short", &entity.User{ID: 1}, time.Second))
	now = now.Add(2 * time.Second)
	assert.Equal(t, 1, c.Purge())

	_, ok, err = c.Get(ctx, "long")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestTokenKey_HidesToken(t *testing.T) {
	key := tokenKey("velure:", "header.payload.signature")

	assert.NotContains(t, key, "payload")
	assert.Equal(t, key, tokenKey("velure:", "header.payload.signature"))
	assert.NotEqual(t, key, tokenKey("velure:", "other"))
}
