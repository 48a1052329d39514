// Package worker runs the periodic session housekeeping.
package worker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"velure/config"
	"velure/internal/delivery"
	"velure/internal/domain/lifecycle"
	"velure/internal/usecase"

	"go.uber.org/fx"
)

type cleanupWorker struct {
	interval time.Duration
	uc       usecase.SessionUsecase
	logger   *slog.Logger

	stopOnce sync.Once
	stopCh   chan struct{}
	done     chan struct{}
}

// ServerParams holds dependencies for the cleanup worker
type ServerParams struct {
	fx.In

	Lc     fx.Lifecycle
	Cfg    *config.Config
	Logger *slog.Logger
	UC     usecase.SessionUsecase
}

// NewServer creates the session cleanup worker. A zero session.cleanupInterval disables it.
func NewServer(params ServerParams) (delivery.Delivery, error) {
	w := &cleanupWorker{
		interval: params.Cfg.Session.CleanupInterval,
		uc:       params.UC,
		logger:   params.Logger.With(slog.String("component", "session_cleanup")),
		stopCh:   make(chan struct{}),
		done:     make(chan struct{}),
	}

	params.Lc.Append(fx.Hook{
		OnStop: w.stop,
	})

	return w, nil
}

// Serve refreshes the active-session gauge once, then reaps expired sessions
// every interval until stopped.
func (w *cleanupWorker) Serve(ctx context.Context) error {
	defer close(w.done)

	if w.interval <= 0 {
		w.logger.Info("Session cleanup disabled")

		return nil
	}

	w.logger.Info("Starting session cleanup worker", slog.Duration("interval", w.interval))

	if _, err := w.uc.RefreshActiveSessions(ctx); err != nil {
		w.logger.Warn("Failed to count active sessions", slog.Any("error", err))
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-w.stopCh:
			return nil
		case <-ticker.C:
			w.runOnce(ctx)
		}
	}
}

func (w *cleanupWorker) runOnce(ctx context.Context) {
	runCtx, cancel := context.WithTimeout(ctx, lifecycle.DefaultTimeout)
	defer cancel()

	if _, err := w.uc.CleanupExpiredSessions(runCtx); err != nil {
		w.logger.Error("Session cleanup failed", slog.Any("error", err))
	}
}

// stop signals the loop and waits for the run in progress to finish.
func (w *cleanupWorker) stop(ctx context.Context) error {
	w.stopOnce.Do(func() { close(w.stopCh) })

	select {
	case <-w.done:
	case <-ctx.Done():
		return ctx.Err()
	}

	w.logger.Info("Session cleanup worker stopped")

	return nil
}
