package memory

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"velure/internal/domain/entity"
	domainerrors "velure/internal/domain/errors"
	"velure/internal/domain/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedUser(t *testing.T, store *Store, email string) *entity.User {
	t.Helper()

	user := &entity.User{Email: email, PasswordHash: "hash", Name: "N"}
	require.NoError(t, NewUserRepository(store).Create(context.Background(), user))

	return user
}

func TestUserRepository_CreateRejectsDuplicateEmail(t *testing.T) {
	store := NewStore()
	repo := NewUserRepository(store)
	ctx := context.Background()

	first := seedUser(t, store, "ana@velure.dev")
	assert.Equal(t, uint(1), first.ID)

	err := repo.Create(ctx, &entity.User{Email: "ana@velure.dev"})
	assert.ErrorIs(t, err, domainerrors.ErrUserAlreadyExists)

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestUserRepository_ReturnsCopies(t *testing.T) {
	store := NewStore()
	repo := NewUserRepository(store)
	user := seedUser(t, store, "ana@velure.dev")

	found, err := repo.FindByID(context.Background(), user.ID)
	require.NoError(t, err)
	found.PasswordHash = ""

	again, err := repo.FindByEmail(context.Background(), "ana@velure.dev")
	require.NoError(t, err)
	assert.Equal(t, "hash", again.PasswordHash)

	_, err = repo.FindByEmail(context.Background(), "nobody@velure.dev")
	assert.ErrorIs(t, err, repository.ErrUserNotFound)
}

func TestUserRepository_FindPage(t *testing.T) {
	store := NewStore()
	repo := NewUserRepository(store)
	for i := range 5 {
		seedUser(t, store, fmt.Sprintf("u%d@velure.dev", i))
	}

	page, err := repo.FindPage(context.Background(), 2, 2)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, uint(3), page[0].ID)
	assert.Equal(t, uint(4), page[1].ID)

	tail, err := repo.FindPage(context.Background(), 4, 10)
	require.NoError(t, err)
	assert.Len(t, tail, 1)

	empty, err := repo.FindPage(context.Background(), 10, 10)
	require.NoError(t, err)
	assert.Empty(t, empty)

	negative, err := repo.FindPage(context.Background(), -10, 10)
	require.NoError(t, err)
	assert.Empty(t, negative)
}

func TestSessionRepository_UpsertKeepsOneRowPerUser(t *testing.T) {
	store := NewStore()
	repo := NewSessionRepository(store)
	user := seedUser(t, store, "ana@velure.dev")
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			session := &entity.Session{
				UserID:       user.ID,
				AccessToken:  fmt.Sprintf("access-%d", i),
				RefreshToken: fmt.Sprintf("refresh-%d", i),
				ExpiresAt:    time.Now().Add(time.Hour),
			}
			assert.NoError(t, repo.Upsert(ctx, session))
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, store.SessionCount())

	session, err := repo.FindByUserID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, uint(1), session.ID)
}

func TestSessionRepository_UpsertOverwritesTokens(t *testing.T) {
	store := NewStore()
	repo := NewSessionRepository(store)
	user := seedUser(t, store, "ana@velure.dev")
	ctx := context.Background()

	first := &entity.Session{UserID: user.ID, AccessToken: "a1", RefreshToken: "r1", ExpiresAt: time.Now().Add(time.Hour)}
	require.NoError(t, repo.Upsert(ctx, first))
	second := &entity.Session{UserID: user.ID, AccessToken: "a2", RefreshToken: "r2", ExpiresAt: time.Now().Add(2 * time.Hour)}
	require.NoError(t, repo.Upsert(ctx, second))

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, first.CreatedAt, second.CreatedAt)

	_, err := repo.FindByRefreshToken(ctx, "r1")
	assert.ErrorIs(t, err, repository.ErrSessionNotFound)

	found, err := repo.FindByRefreshToken(ctx, "r2")
	require.NoError(t, err)
	assert.Equal(t, "a2", found.AccessToken)
}

func TestSessionRepository_UpsertUnknownUser(t *testing.T) {
	repo := NewSessionRepository(NewStore())

	err := repo.Upsert(context.Background(), &entity.Session{UserID: 99})

	assert.ErrorIs(t, err, domainerrors.ErrUserNotFound)
}

func TestSessionRepository_CreateAndUpdate(t *testing.T) {
	store := NewStore()
	repo := NewSessionRepository(store)
	user := seedUser(t, store, "ana@velure.dev")
	ctx := context.Background()

	assert.ErrorIs(t, repo.Update(ctx, &entity.Session{UserID: user.ID}), repository.ErrSessionNotFound)

	require.NoError(t, repo.Create(ctx, &entity.Session{UserID: user.ID, RefreshToken: "r1"}))
	assert.Error(t, repo.Create(ctx, &entity.Session{UserID: user.ID, RefreshToken: "r2"}))

	require.NoError(t, repo.Update(ctx, &entity.Session{UserID: user.ID, RefreshToken: "r3"}))
	found, err := repo.FindByUserID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "r3", found.RefreshToken)
}

func TestSessionRepository_DeleteAndExpire(t *testing.T) {
	store := NewStore()
	repo := NewSessionRepository(store)
	ctx := context.Background()
	now := time.Now()

	live := seedUser(t, store, "live@velure.dev")
	stale := seedUser(t, store, "stale@velure.dev")
	require.NoError(t, repo.Upsert(ctx, &entity.Session{UserID: live.ID, RefreshToken: "live", ExpiresAt: now.Add(time.Hour)}))
	require.NoError(t, repo.Upsert(ctx, &entity.Session{UserID: stale.ID, RefreshToken: "stale", ExpiresAt: now.Add(-time.Minute)}))

	active, err := repo.CountActive(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), active)

	removed, err := repo.DeleteExpired(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	require.NoError(t, repo.DeleteByRefreshToken(ctx, "live"))
	require.NoError(t, repo.DeleteByRefreshToken(ctx, "live"))
	assert.Equal(t, 0, store.SessionCount())
}

func TestTransactionManager_Execute(t *testing.T) {
	store := NewStore()
	tm := NewTransactionManager(store)

	err := tm.Execute(context.Background(), func(f repository.RepositoryFactory) error {
		return f.NewUserRepository().Create(context.Background(), &entity.User{Email: "tx@velure.dev"})
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = tm.Execute(ctx, func(repository.RepositoryFactory) error {
		t.Fatal("fn must not run on a cancelled context")

		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
}
