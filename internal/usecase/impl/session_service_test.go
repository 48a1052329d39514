package impl

import (
	"context"
	"testing"
	"time"

	"velure/internal/domain/entity"
	"velure/internal/errors"
	"velure/internal/infra/persistence/memory"
	mockRepo "velure/internal/mocks/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestSessionService_CleanupExpiredSessions(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	users := memory.NewUserRepository(store)
	sessions := memory.NewSessionRepository(store)
	m := newRecordingMetrics()

	now := time.Now()
	for i, expiresAt := range []time.Time{now.Add(-time.Hour), now.Add(-time.Minute), now.Add(time.Hour)} {
		user := &entity.User{Email: string(rune('a'+i)) + "@velure.dev"}
		require.NoError(t, users.Create(ctx, user))
		require.NoError(t, sessions.Upsert(ctx, &entity.Session{
			UserID:       user.ID,
			AccessToken:  "access",
			RefreshToken: user.Email,
			ExpiresAt:    expiresAt,
		}))
	}

	svc := NewSessionService(SessionServiceParams{SessionRepo: sessions, Metrics: m, Logger: newDiscardLogger()})

	removed, err := svc.CleanupExpiredSessions(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), removed)
	assert.Equal(t, 1, store.SessionCount())
	assert.Equal(t, 2, m.count("expired", "removed"))
	assert.Equal(t, int64(1), m.activeSessions())

	removed, err = svc.CleanupExpiredSessions(ctx)
	require.NoError(t, err)
	assert.Zero(t, removed)
}

func TestSessionService_CleanupFailure(t *testing.T) {
	ctx := context.Background()
	sessions := mockRepo.NewMockSessionRepository(t)
	m := newRecordingMetrics()

	sessions.EXPECT().DeleteExpired(ctx, mock.AnythingOfType("time.Time")).Return(int64(0), errors.New("timeout"))

	svc := NewSessionService(SessionServiceParams{SessionRepo: sessions, Metrics: m, Logger: newDiscardLogger()})

	_, err := svc.CleanupExpiredSessions(ctx)
	require.Error(t, err)
	sessions.AssertNotCalled(t, "CountActive", mock.Anything, mock.Anything)
}
