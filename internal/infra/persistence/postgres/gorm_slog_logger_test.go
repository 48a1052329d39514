package postgres

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
	"time"

	"velure/config"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func newBufferedLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func TestGormSlogLogger_Trace(t *testing.T) {
	sqlFn := func() (string, int64) { return `SELECT * FROM "users"`, 1 }
	cfg := &config.Config{Postgres: &config.PostgresConfig{SlowThreshold: 10 * time.Millisecond}}

	t.Run("ignores record not found", func(t *testing.T) {
		var buf bytes.Buffer
		l := newGormSlogLogger(newBufferedLogger(&buf), cfg)

		l.Trace(context.Background(), time.Now(), sqlFn, gorm.ErrRecordNotFound)

		assert.Empty(t, buf.String())
	})

	t.Run("logs failures", func(t *testing.T) {
		var buf bytes.Buffer
		l := newGormSlogLogger(newBufferedLogger(&buf), cfg)

		l.Trace(context.Background(), time.Now(), sqlFn, assert.AnError)

		assert.Contains(t, buf.String(), "Query failed")
		assert.Contains(t, buf.String(), "component=gorm")
	})

	t.Run("logs slow queries", func(t *testing.T) {
		var buf bytes.Buffer
		l := newGormSlogLogger(newBufferedLogger(&buf), cfg)

		l.Trace(context.Background(), time.Now().Add(-time.Second), sqlFn, nil)

		assert.Contains(t, buf.String(), "Slow query")
	})

	t.Run("quiet for fast queries outside debug", func(t *testing.T) {
		var buf bytes.Buffer
		l := newGormSlogLogger(newBufferedLogger(&buf), cfg)

		l.Trace(context.Background(), time.Now(), sqlFn, nil)

		assert.Empty(t, buf.String())
	})
}
