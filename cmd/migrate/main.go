// Command migrate creates or updates the Postgres schema and exits.
package main

import (
	"context"
	"log/slog"
	"os"

	"velure/config"
	"velure/internal/domain/lifecycle"
	logs "velure/internal/infra/log"
	"velure/internal/infra/persistence/postgres"
)

func main() {
	if err := run(); err != nil {
		slog.Error("Migration failed", slog.Any("error", err))
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.New()
	if err != nil {
		return err
	}

	logger, err := logs.New(logs.Params{Config: cfg})
	if err != nil {
		return err
	}

	db, err := postgres.Open(cfg, logger)
	if err != nil {
		return err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 6*lifecycle.DefaultTimeout)
	defer cancel()

	if err := postgres.Migrate(ctx, db); err != nil {
		return err
	}

	logger.Info("Schema migrated", slog.String("database", cfg.Postgres.Database))

	return nil
}
