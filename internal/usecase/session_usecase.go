package usecase

import "context"

// SessionUsecase defines housekeeping over stored sessions.
type SessionUsecase interface {
	// CleanupExpiredSessions removes expired sessions and returns how many were removed.
	CleanupExpiredSessions(ctx context.Context) (int64, error)

	// RefreshActiveSessions recounts the sessions that are still valid.
	RefreshActiveSessions(ctx context.Context) (int64, error)
}
