package memory

import (
	"context"
	"time"

	"velure/internal/domain/entity"
	domainerrors "velure/internal/domain/errors"
	"velure/internal/domain/repository"
)

type sessionRepository struct {
	store *Store
}

func NewSessionRepository(store *Store) repository.SessionRepository {
	return &sessionRepository{store: store}
}

func (r *sessionRepository) FindByUserID(ctx context.Context, userID uint) (*entity.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	session, ok := r.store.sessions[userID]
	if !ok {
		return nil, repository.ErrSessionNotFound
	}

	return cloneSession(session), nil
}

func (r *sessionRepository) FindByRefreshToken(ctx context.Context, refreshToken string) (*entity.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	for _, session := range r.store.sessions {
		if session.RefreshToken == refreshToken {
			return cloneSession(session), nil
		}
	}

	return nil, repository.ErrSessionNotFound
}

func (r *sessionRepository) Create(ctx context.Context, session *entity.Session) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[session.UserID]; !ok {
		return domainerrors.ErrUserNotFound.WrapMessage("session owner does not exist")
	}
	if _, exists := s.sessions[session.UserID]; exists {
		return domainerrors.NewDatabaseExecuteError(errDuplicateSession, "failed to create session")
	}

	s.insertLocked(session)

	return nil
}

func (r *sessionRepository) Update(ctx context.Context, session *entity.Session) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.sessions[session.UserID]
	if !ok {
		return repository.ErrSessionNotFound
	}
	s.overwriteLocked(stored, session)

	return nil
}

func (r *sessionRepository) Upsert(ctx context.Context, session *entity.Session) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[session.UserID]; !ok {
		return domainerrors.ErrUserNotFound.WrapMessage("session owner does not exist")
	}

	if stored, ok := s.sessions[session.UserID]; ok {
		s.overwriteLocked(stored, session)

		return nil
	}

	s.insertLocked(session)

	return nil
}

func (r *sessionRepository) DeleteByRefreshToken(ctx context.Context, refreshToken string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	for userID, session := range s.sessions {
		if session.RefreshToken == refreshToken {
			delete(s.sessions, userID)
		}
	}

	return nil
}

func (r *sessionRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	var removed int64
	for userID, session := range s.sessions {
		if session.Expired(now) {
			delete(s.sessions, userID)
			removed++
		}
	}

	return removed, nil
}

func (r *sessionRepository) CountActive(ctx context.Context, now time.Time) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var active int64
	for _, session := range r.store.sessions {
		if !session.Expired(now) {
			active++
		}
	}

	return active, nil
}

// insertLocked stores a new row for session and fills in its ID and timestamps.
func (s *Store) insertLocked(session *entity.Session) {
	s.nextSessionID++
	now := s.now()
	session.ID = s.nextSessionID
	session.CreatedAt = now
	session.UpdatedAt = now

	s.sessions[session.UserID] = cloneSession(session)
}

// overwriteLocked replaces tokens and expiry of stored and copies the row back into session.
func (s *Store) overwriteLocked(stored, session *entity.Session) {
	stored.AccessToken = session.AccessToken
	stored.RefreshToken = session.RefreshToken
	stored.ExpiresAt = session.ExpiresAt
	stored.UpdatedAt = s.now()

	*session = *cloneSession(stored)
}
