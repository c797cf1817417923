// Command migrate applies pending schema migrations and exits. Deploy
// pipelines run it before rolling the server; the server also applies
// migrations on boot, so this is for pipelines that separate the two steps.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"visleg/internal/platform/config"
	"visleg/internal/platform/logger"
	"visleg/internal/platform/postgres"
	"visleg/migrations"
)

func main() {
	log := logger.New()
	if err := run(log); err != nil {
		log.Error("migrate failed", "error", err)
		os.Exit(1)
	}
}

func run(log *slog.Logger) error {
	cfg, err := config.FromEnv()
	if err != nil {
		return err
	}
	if cfg.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	db, err := postgres.Open(cfg.DatabaseURL, cfg.Database)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	if err := migrations.Apply(context.Background(), db); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	log.Info("migrations applied")
	return nil
}
