package impl

import (
	"context"
	"log/slog"
	"time"

	"velure/internal/domain/repository"
	"velure/internal/domain/service"
	"velure/internal/errors"
	"velure/internal/usecase"

	"go.uber.org/fx"
)

// sessionService implements the SessionUsecase interface.
type sessionService struct {
	sessionRepo repository.SessionRepository
	metrics     service.AuthMetrics
	now         func() time.Time
	logger      *slog.Logger
}

// SessionServiceParams holds dependencies for SessionService, injected by Fx.
type SessionServiceParams struct {
	fx.In

	SessionRepo repository.SessionRepository
	Metrics     service.AuthMetrics
	Logger      *slog.Logger
}

// NewSessionService is the constructor for sessionService.
func NewSessionService(params SessionServiceParams) usecase.SessionUsecase {
	return &sessionService{
		sessionRepo: params.SessionRepo,
		metrics:     params.Metrics,
		now:         time.Now,
		logger:      params.Logger,
	}
}

// CleanupExpiredSessions deletes sessions past their expiry and refreshes the active gauge.
func (srv *sessionService) CleanupExpiredSessions(ctx context.Context) (int64, error) {
	removed, err := srv.sessionRepo.DeleteExpired(ctx, srv.now())
	if err != nil {
		return 0, errors.Wrap(err, "failed to delete expired sessions")
	}
	srv.metrics.ObserveExpiredSessionsRemoved(removed)

	if removed > 0 {
		srv.logger.Info("Expired sessions removed", slog.Int64("count", removed))
	}

	if _, err := srv.RefreshActiveSessions(ctx); err != nil {
		return removed, err
	}

	return removed, nil
}

// RefreshActiveSessions recounts valid sessions and publishes the number.
func (srv *sessionService) RefreshActiveSessions(ctx context.Context) (int64, error) {
	active, err := srv.sessionRepo.CountActive(ctx, srv.now())
	if err != nil {
		return 0, errors.Wrap(err, "failed to count active sessions")
	}
	srv.metrics.SetActiveSessions(active)

	return active, nil
}
