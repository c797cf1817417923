package organization

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"visleg/internal/admin/models"
	"visleg/internal/platform/postgres"
	"visleg/pkg/platform/sentinel"
)

// PostgresStore persists organizations in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const organizationColumns = `id, name, contact_email, mfxid, is_active, created_at, updated_at`

func (s *PostgresStore) Create(ctx context.Context, org *models.Organization) error {
	query := `
		INSERT INTO organizations (id, name, contact_email, mfxid, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := s.db.ExecContext(ctx, query,
		org.ID, org.Name, org.ContactEmail, org.MFXID, org.IsActive, org.CreatedAt, org.UpdatedAt,
	)
	if err != nil {
		if postgres.UniqueViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert organization: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, id uuid.UUID) (*models.Organization, error) {
	query := `SELECT ` + organizationColumns + ` FROM organizations WHERE id = $1`
	org, err := scanOrganization(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("get organization: %w", err)
	}
	return org, nil
}

func (s *PostgresStore) List(ctx context.Context) ([]*models.Organization, error) {
	query := `SELECT ` + organizationColumns + ` FROM organizations ORDER BY created_at`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list organizations: %w", err)
	}
	defer rows.Close()

	var orgs []*models.Organization
	for rows.Next() {
		org, err := scanOrganization(rows)
		if err != nil {
			return nil, fmt.Errorf("scan organization: %w", err)
		}
		orgs = append(orgs, org)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate organizations: %w", err)
	}
	return orgs, nil
}

func (s *PostgresStore) Update(ctx context.Context, org *models.Organization) error {
	query := `
		UPDATE organizations
		SET name = $2, contact_email = $3, mfxid = $4, is_active = $5, updated_at = $6
		WHERE id = $1
	`
	result, err := s.db.ExecContext(ctx, query,
		org.ID, org.Name, org.ContactEmail, org.MFXID, org.IsActive, org.UpdatedAt,
	)
	if err != nil {
		if postgres.UniqueViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("update organization: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update organization rows affected: %w", err)
	}
	if rows == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM organizations WHERE id = $1`, id)
	if err != nil {
		if postgres.ForeignKeyViolation(err) {
			return sentinel.ErrInvalidState
		}
		return fmt.Errorf("delete organization: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete organization rows affected: %w", err)
	}
	if rows == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

type row interface {
	Scan(dest ...any) error
}

func scanOrganization(r row) (*models.Organization, error) {
	var org models.Organization
	if err := r.Scan(&org.ID, &org.Name, &org.ContactEmail, &org.MFXID, &org.IsActive, &org.CreatedAt, &org.UpdatedAt); err != nil {
		return nil, err
	}
	return &org, nil
}
