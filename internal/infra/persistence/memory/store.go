// Package memory is an in-process implementation of the repositories, used
// for local runs without Postgres and for end-to-end service tests.
package memory

import (
	"context"
	"sync"
	"time"

	"velure/internal/domain/entity"
	"velure/internal/domain/repository"
	"velure/internal/errors"
)

// Store holds users and sessions. All repositories created from the same Store share state.
type Store struct {
	mu            sync.RWMutex
	txMu          sync.Mutex
	users         map[uint]*entity.User
	usersByEmail  map[string]uint
	sessions      map[uint]*entity.Session // keyed by user ID
	nextUserID    uint
	nextSessionID uint
	now           func() time.Time
}

func NewStore() *Store {
	return &Store{
		users:        make(map[uint]*entity.User),
		usersByEmail: make(map[string]uint),
		sessions:     make(map[uint]*entity.Session),
		now:          time.Now,
	}
}

// SessionCount returns the number of stored sessions.
func (s *Store) SessionCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.sessions)
}

type transactionManager struct {
	store *Store
}

// NewTransactionManager serializes Execute calls on the store. There is no
// rollback: a failed fn leaves the writes it already made.
func NewTransactionManager(store *Store) repository.TransactionManager {
	return &transactionManager{store: store}
}

func (tm *transactionManager) Execute(ctx context.Context, fn func(repository.RepositoryFactory) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	tm.store.txMu.Lock()
	defer tm.store.txMu.Unlock()

	return fn(repositoryFactory{store: tm.store})
}

type repositoryFactory struct {
	store *Store
}

func (f repositoryFactory) NewUserRepository() repository.UserRepository {
	return NewUserRepository(f.store)
}

func (f repositoryFactory) NewSessionRepository() repository.SessionRepository {
	return NewSessionRepository(f.store)
}

func cloneUser(u *entity.User) *entity.User {
	c := *u

	return &c
}

func cloneSession(s *entity.Session) *entity.Session {
	c := *s

	return &c
}

var errDuplicateSession = errors.New("duplicate key value violates unique constraint \"idx_sessions_user_id\"")
