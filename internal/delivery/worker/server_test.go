package worker

import (
	"context"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"velure/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx/fxtest"
)

type countingSessions struct {
	cleanups  atomic.Int32
	refreshes atomic.Int32
}

func (c *countingSessions) CleanupExpiredSessions(context.Context) (int64, error) {
	c.cleanups.Add(1)

	return 0, nil
}

func (c *countingSessions) RefreshActiveSessions(context.Context) (int64, error) {
	c.refreshes.Add(1)

	return 0, nil
}

func newWorker(t *testing.T, interval time.Duration, uc *countingSessions) (*fxtest.Lifecycle, *cleanupWorker) {
	t.Helper()

	cfg := &config.Config{}
	cfg.Session.CleanupInterval = interval
	lc := fxtest.NewLifecycle(t)

	d, err := NewServer(ServerParams{
		Lc:     lc,
		Cfg:    cfg,
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		UC:     uc,
	})
	require.NoError(t, err)

	return lc, d.(*cleanupWorker)
}

func TestCleanupWorker_RunsUntilStopped(t *testing.T) {
	uc := &countingSessions{}
	lc, w := newWorker(t, 10*time.Millisecond, uc)
	lc.RequireStart()

	go func() { _ = w.Serve(context.Background()) }()

	assert.Eventually(t, func() bool { return uc.cleanups.Load() >= 2 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, int32(1), uc.refreshes.Load())

	lc.RequireStop()

	stopped := uc.cleanups.Load()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, stopped, uc.cleanups.Load())
}

func TestCleanupWorker_Disabled(t *testing.T) {
	uc := &countingSessions{}
	lc, w := newWorker(t, 0, uc)
	lc.RequireStart()

	require.NoError(t, w.Serve(context.Background()))
	assert.Zero(t, uc.refreshes.Load())

	lc.RequireStop()
}
