package verification

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"visleg/internal/platform/postgres"
	"visleg/pkg/platform/sentinel"
)

// PostgresStore persists verification sessions in PostgreSQL. The unique
// index on session_id enforces the single-use invariant under concurrency.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, session *Session) error {
	query := `
		INSERT INTO verification_sessions
			(id, session_id, first_name, last_name, document_photo, age,
			 verified, verified_at, organization_id, performed_by_user_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := s.db.ExecContext(ctx, query,
		session.ID, session.SessionID, session.FirstName, session.LastName,
		session.DocumentPhoto, session.Age, session.Verified, session.VerifiedAt,
		session.OrganizationID, session.PerformedByUserID, session.CreatedAt,
	)
	if err != nil {
		if postgres.UniqueViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert verification session: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindBySessionID(ctx context.Context, sessionID string) (*Session, error) {
	query := `
		SELECT id, session_id, first_name, last_name, document_photo, age,
		       verified, verified_at, organization_id, performed_by_user_id, created_at
		FROM verification_sessions
		WHERE session_id = $1
	`
	var (
		session    Session
		verifiedAt sql.NullTime
	)
	err := s.db.QueryRowContext(ctx, query, sessionID).Scan(
		&session.ID, &session.SessionID, &session.FirstName, &session.LastName,
		&session.DocumentPhoto, &session.Age, &session.Verified, &verifiedAt,
		&session.OrganizationID, &session.PerformedByUserID, &session.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("get verification session: %w", err)
	}
	if verifiedAt.Valid {
		session.VerifiedAt = &verifiedAt.Time
	}
	return &session, nil
}

func (s *PostgresStore) MonthlyStats(ctx context.Context, organizationID uuid.UUID, month, year int) (int, int, error) {
	start, end := monthRange(month, year)

	query := `
		SELECT COUNT(*), COUNT(*) FILTER (WHERE verified)
		FROM verification_sessions
		WHERE organization_id = $1 AND created_at >= $2 AND created_at < $3
	`
	var total, successful int
	err := s.db.QueryRowContext(ctx, query, organizationID, start, end).Scan(&total, &successful)
	if err != nil {
		return 0, 0, fmt.Errorf("monthly stats: %w", err)
	}
	return total, successful, nil
}
