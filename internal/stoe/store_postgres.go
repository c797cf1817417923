package stoe

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"visleg/pkg/platform/sentinel"
)

// PostgresTokenStore persists cached provider tokens in PostgreSQL.
type PostgresTokenStore struct {
	db *sql.DB
}

func NewPostgresTokenStore(db *sql.DB) *PostgresTokenStore {
	return &PostgresTokenStore{db: db}
}

func (s *PostgresTokenStore) FindValid(ctx context.Context, scope string, now time.Time) (*Token, error) {
	query := `
		SELECT id, access_token, scope, expires_at, created_at
		FROM auth_tokens
		WHERE scope = $1 AND expires_at > $2
		ORDER BY expires_at DESC
		LIMIT 1
	`
	var token Token
	err := s.db.QueryRowContext(ctx, query, scope, now).Scan(
		&token.ID, &token.AccessToken, &token.Scope, &token.ExpiresAt, &token.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("get auth token: %w", err)
	}
	return &token, nil
}

func (s *PostgresTokenStore) Create(ctx context.Context, token *Token) error {
	query := `
		INSERT INTO auth_tokens (id, access_token, scope, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := s.db.ExecContext(ctx, query,
		token.ID, token.AccessToken, token.Scope, token.ExpiresAt, token.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert auth token: %w", err)
	}
	return nil
}

func (s *PostgresTokenStore) DeleteExpired(ctx context.Context, now time.Time) (int, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM auth_tokens WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, fmt.Errorf("delete expired tokens: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete expired tokens rows affected: %w", err)
	}
	return int(rows), nil
}
