// Command seed populates a fresh database with a test organization and
// one user per role, for local development and demo environments.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"visleg/internal/admin/models"
	"visleg/internal/admin/secrets"
	"visleg/internal/admin/store/organization"
	"visleg/internal/admin/store/user"
	"visleg/internal/platform/config"
	"visleg/internal/platform/logger"
	"visleg/internal/platform/postgres"
	"visleg/migrations"
	"visleg/pkg/platform/sentinel"
)

func main() {
	log := logger.New()
	if err := run(log); err != nil {
		log.Error("seed failed", "error", err)
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

	ctx := context.Background()
	db, err := postgres.Open(cfg.DatabaseURL, cfg.Database)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	if err := migrations.Apply(ctx, db); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}

	orgs := organization.NewPostgres(db)
	users := user.NewPostgres(db)
	now := time.Now()

	org, err := models.NewOrganization("Test Organization", "admin@test.no", "MFX-TEST-001", now)
	if err != nil {
		return err
	}
	if err := orgs.Create(ctx, org); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return fmt.Errorf("database already seeded")
		}
		return fmt.Errorf("create organization: %w", err)
	}
	log.Info("created organization", "name", org.Name)

	accounts := []struct {
		username string
		password string
		role     models.Role
	}{
		{"admin", "admin123", models.RoleAdmin},
		{"orgadmin", "orgadmin123", models.RoleOrgAdmin},
		{"user", "user123", models.RoleUser},
	}
	for _, account := range accounts {
		hash, err := secrets.HashPassword(account.password)
		if err != nil {
			return fmt.Errorf("hash password for %s: %w", account.username, err)
		}
		seeded, err := models.NewAdminUser(account.username, hash, org.ID, account.role, now)
		if err != nil {
			return err
		}
		if err := users.Create(ctx, seeded); err != nil {
			return fmt.Errorf("create user %s: %w", account.username, err)
		}
		log.Info("created user", "username", account.username, "role", account.role)
	}

	log.Info("database seeded")
	return nil
}
