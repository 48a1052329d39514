package cache

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"testing"
	"time"

	"velure/internal/domain/entity"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockRedis struct {
	mock.Mock
}

func (m *mockRedis) Get(ctx context.Context, key string) *redis.StringCmd {
	args := m.Called(ctx, key)

	return args.Get(0).(*redis.StringCmd)
}

func (m *mockRedis) Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd {
	args := m.Called(ctx, key, value, expiration)

	return args.Get(0).(*redis.StatusCmd)
}

func (m *mockRedis) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	args := m.Called(ctx, keys)

	return args.Get(0).(*redis.IntCmd)
}

func (m *mockRedis) Close() error {
	return m.Called().Error(0)
}

func TestRedisTokenCache_GetHit(t *testing.T) {
	client := &mockRedis{}
	c := NewRedisTokenCache(client, "velure:")
	ctx := context.Background()

	raw, err := json.Marshal(cachedUser{ID: 9, Email: "di@velure.dev", Name: "Di"})
	require.NoError(t, err)
	client.On("Get", ctx, tokenKey("velure:", "tok")).Return(redis.NewStringResult(string(raw), nil))

	user, ok, err := c.Get(ctx, "tok")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, uint(9), user.ID)
	assert.Equal(t, "Di", user.Name)
	client.AssertExpectations(t)
}

func TestRedisTokenCache_GetMiss(t *testing.T) {
	client := &mockRedis{}
	c := NewRedisTokenCache(client, "")
	ctx := context.Background()

	client.On("Get", ctx, mock.Anything).Return(redis.NewStringResult("", redis.Nil))

	user, ok, err := c.Get(ctx, "tok")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, user)
}

func TestRedisTokenCache_GetError(t *testing.T) {
	client := &mockRedis{}
	c := NewRedisTokenCache(client, "")
	ctx := context.Background()
	boom := stderrors.New("connection refused")

	client.On("Get", ctx, mock.Anything).Return(redis.NewStringResult("", boom))

	_, ok, err := c.Get(ctx, "tok")
	assert.False(t, ok)
	assert.ErrorIs(t, err, boom)
}

func TestRedisTokenCache_SetAndDelete(t *testing.T) {
	client := &mockRedis{}
	c := NewRedisTokenCache(client, "velure:")
	ctx := context.Background()
	key := tokenKey("velure:", "tok")

	client.On("Set", ctx, key, mock.AnythingOfType("[]uint8"), time.Minute).Return(redis.NewStatusResult("OK", nil))
	client.On("Del", ctx, []string{key}).Return(redis.NewIntResult(1, nil))

	require.NoError(t, c.Set(ctx, "tok", &entity.User{ID: 1, PasswordHash: "hash"}, time.Minute))
	require.NoError(t, c.Set(ctx, "tok", &entity.User{ID: 1}, 0))
	require.NoError(t, c.Delete(ctx, "tok"))

	client.AssertNumberOfCalls(t, "Set", 1)
	client.AssertExpectations(t)

	stored := client.Calls[0].Arguments.Get(2).([]byte)
	assert.NotContains(t, string(stored), "hash")
}
