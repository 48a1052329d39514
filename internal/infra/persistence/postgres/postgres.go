// Package postgres contains the concrete implementation of the persistence layer using GORM and PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"velure/config"
	"velure/internal/domain/lifecycle"
	"velure/internal/errors"
	"velure/internal/infra/persistence/model"

	"go.uber.org/fx"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/plugin/dbresolver"
)

const (
	dbPoolMonitorInterval       = 5 * time.Second
	dbPoolWarnDurationThreshold = 50 * time.Millisecond
)

// Params defines the required parameters
type Params struct {
	fx.In
	fx.Lifecycle

	Config *config.Config
	Logger *slog.Logger
}

// New creates the GORM client, registering read replicas when configured.
func New(params Params) (*gorm.DB, error) {
	db, err := Open(params.Config, params.Logger)
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, errors.Wrap(err, "failed to get PostgreSQL sql.DB")
	}

	monitorCtx, cancelMonitor := context.WithCancel(context.Background())

	params.Append(fx.Hook{
		OnStart: func(startCtx context.Context) error {
			ctx, cancel := context.WithTimeout(startCtx, lifecycle.DefaultTimeout)
			defer cancel()

			if err := sqlDB.PingContext(ctx); err != nil {
				return errors.Wrap(err, "failed to ping PostgreSQL")
			}

			if params.Config.Postgres.AutoMigrate {
				if err := Migrate(ctx, db); err != nil {
					return err
				}
				params.Logger.Info("Postgres schema migrated")
			}

			go monitorDBPool(monitorCtx, params.Logger, sqlDB, dbPoolMonitorInterval)

			return nil
		},
		OnStop: func(_ context.Context) error {
			cancelMonitor()

			return errors.WithStack(sqlDB.Close())
		},
	})

	return db, nil
}

// Open connects to the primary node and applies pool settings. It does not ping.
func Open(cfg *config.Config, logger *slog.Logger) (*gorm.DB, error) {
	pgCfg := cfg.Postgres
	if pgCfg == nil {
		return nil, errors.New("postgres configuration is required")
	}

	db, err := gorm.Open(postgres.Open(pgCfg.DSN(pgCfg.Master)), &gorm.Config{
		// Explicit transactions go through the TransactionManager.
		SkipDefaultTransaction: true,
		TranslateError:         true,
		Logger:                 newGormSlogLogger(logger, cfg),
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to create PostgreSQL client")
	}

	if len(pgCfg.Replicas) > 0 {
		replicas := make([]gorm.Dialector, 0, len(pgCfg.Replicas))
		for _, replica := range pgCfg.Replicas {
			replicas = append(replicas, postgres.Open(pgCfg.DSN(replica)))
		}

		resolver := dbresolver.Register(dbresolver.Config{
			Replicas: replicas,
			Policy:   dbresolver.RandomPolicy{},
		})
		if pgCfg.MaxIdleConns > 0 {
			resolver.SetMaxIdleConns(pgCfg.MaxIdleConns)
		}
		if pgCfg.MaxOpenConns > 0 {
			resolver.SetMaxOpenConns(pgCfg.MaxOpenConns)
		}
		if pgCfg.ConnMaxLifetime > 0 {
			resolver.SetConnMaxLifetime(pgCfg.ConnMaxLifetime)
		}

		if err := db.Use(resolver); err != nil {
			return nil, errors.Wrap(err, "failed to register read replicas")
		}
		logger.Info("Postgres read replicas registered", slog.Int("replicas", len(replicas)))
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, errors.Wrap(err, "failed to get PostgreSQL sql.DB")
	}
	applyPool(sqlDB, pgCfg)

	return db, nil
}

func applyPool(target *sql.DB, cfg *config.PostgresConfig) {
	if cfg.MaxIdleConns > 0 {
		target.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.MaxOpenConns > 0 {
		target.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		target.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}
}

// Migrate creates or updates the users and sessions tables.
func Migrate(ctx context.Context, db *gorm.DB) error {
	if err := db.WithContext(ctx).AutoMigrate(model.All()...); err != nil {
		return errors.Wrap(err, "failed to migrate schema")
	}

	return nil
}

func monitorDBPool(ctx context.Context, logger *slog.Logger, sqlDB *sql.DB, interval time.Duration) {
	if logger == nil || sqlDB == nil {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	prev := sqlDB.Stats()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			cur := sqlDB.Stats()
			waitDelta := cur.WaitCount - prev.WaitCount
			waitDurationDelta := cur.WaitDuration - prev.WaitDuration

			if waitDelta > 0 {
				attrs := []slog.Attr{
					slog.Int64("waitCountDelta", waitDelta),
					slog.Duration("avgWait", waitDurationDelta/time.Duration(waitDelta)),
					slog.Int("maxOpenConns", cur.MaxOpenConnections),
					slog.Int("inUseConns", cur.InUse),
					slog.Int("idleConns", cur.Idle),
				}
				level := slog.LevelDebug
				if waitDurationDelta >= dbPoolWarnDurationThreshold {
					level = slog.LevelWarn
				}
				logger.LogAttrs(ctx, level, "Postgres pool wait", attrs...)
			}

			prev = cur
		}
	}
}
