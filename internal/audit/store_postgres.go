package audit

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
)

// PostgresStore persists the audit trail in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Append(ctx context.Context, entry *Entry) error {
	query := `
		INSERT INTO audit_logs (id, user_id, action, entity_type, entity_id, entity_name, details, ip_address, user_agent, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := s.db.ExecContext(ctx, query,
		entry.ID, entry.UserID, entry.Action, entry.EntityType, entry.EntityID,
		entry.EntityName, nullIfEmpty(entry.Details), nullIfEmpty(entry.IPAddress),
		nullIfEmpty(entry.UserAgent), entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert audit log: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListRecent(ctx context.Context, limit int) ([]*Record, error) {
	query := `
		SELECT a.id, a.user_id, u.username, a.action, a.entity_type, a.entity_id,
		       a.entity_name, a.details, a.ip_address, a.user_agent, a.created_at
		FROM audit_logs a
		LEFT JOIN admin_users u ON u.id = a.user_id
		ORDER BY a.created_at DESC
		LIMIT $1
	`
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query audit logs: %w", err)
	}
	defer rows.Close()

	var records []*Record
	for rows.Next() {
		var (
			record    Record
			userID    *uuid.UUID
			username  sql.NullString
			details   sql.NullString
			ipAddress sql.NullString
			userAgent sql.NullString
		)
		err := rows.Scan(&record.ID, &userID, &username, &record.Action, &record.EntityType,
			&record.EntityID, &record.EntityName, &details, &ipAddress, &userAgent, &record.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan audit log: %w", err)
		}
		record.UserID = userID
		record.Username = username.String
		record.Details = details.String
		record.IPAddress = ipAddress.String
		record.UserAgent = userAgent.String
		records = append(records, &record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit logs: %w", err)
	}
	return records, nil
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
