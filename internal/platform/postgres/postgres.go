// Package postgres opens the shared database handle and provides error
// helpers used by the SQL stores.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"visleg/internal/platform/config"
)

// Open connects to PostgreSQL and verifies the connection.
func Open(url string, cfg config.DatabaseConfig) (*sql.DB, error) {
	db, err := sql.Open("postgres", url)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return db, nil
}

// UniqueViolation reports whether err is a PostgreSQL unique constraint
// violation (SQLSTATE 23505). Stores map this to sentinel.ErrConflict.
func UniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

// ForeignKeyViolation reports whether err is a PostgreSQL foreign key
// violation (SQLSTATE 23503).
func ForeignKeyViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23503"
}
