package repository

import (
	"context"
	"time"

	"velure/internal/domain/entity"

	"github.com/pkg/errors"
)

// ErrSessionNotFound is returned when no session matches the lookup.
var ErrSessionNotFound = errors.New("session not found")

// SessionRepository is the session store. There is at most one session per user.
type SessionRepository interface {
	// FindByUserID returns the session owned by userID.
	FindByUserID(ctx context.Context, userID uint) (*entity.Session, error)

	// FindByRefreshToken returns the session holding refreshToken.
	FindByRefreshToken(ctx context.Context, refreshToken string) (*entity.Session, error)

	// Create inserts a session for a user that has none.
	Create(ctx context.Context, session *entity.Session) error

	// Update overwrites tokens and expiry of an existing session.
	Update(ctx context.Context, session *entity.Session) error

	// Upsert inserts the session or, when the user already has one, overwrites
	// its tokens and expiry. It is a single atomic store operation and fills
	// session with the stored row.
	Upsert(ctx context.Context, session *entity.Session) error

	// DeleteByRefreshToken removes the session holding refreshToken.
	// A missing session is not an error.
	DeleteByRefreshToken(ctx context.Context, refreshToken string) error

	// DeleteExpired removes sessions that expired at or before now and
	// returns how many were removed.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)

	// CountActive returns the number of sessions still valid at now.
	CountActive(ctx context.Context, now time.Time) (int64, error)
}
