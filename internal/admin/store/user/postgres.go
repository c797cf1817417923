package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"visleg/internal/admin/models"
	"visleg/internal/platform/postgres"
	"visleg/pkg/platform/sentinel"
)

// PostgresStore persists admin users in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const userColumns = `id, username, password_hash, organization_id, role, is_active, last_login, created_at, updated_at`

func (s *PostgresStore) Create(ctx context.Context, user *models.AdminUser) error {
	query := `
		INSERT INTO admin_users (id, username, password_hash, organization_id, role, is_active, last_login, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := s.db.ExecContext(ctx, query,
		user.ID, user.Username, user.PasswordHash, user.OrganizationID,
		string(user.Role), user.IsActive, user.LastLogin, user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		if postgres.UniqueViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert admin user: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, id uuid.UUID) (*models.AdminUser, error) {
	query := `SELECT ` + userColumns + ` FROM admin_users WHERE id = $1`
	return s.findOne(ctx, query, id)
}

func (s *PostgresStore) FindByUsername(ctx context.Context, username string) (*models.AdminUser, error) {
	query := `SELECT ` + userColumns + ` FROM admin_users WHERE lower(username) = lower($1)`
	return s.findOne(ctx, query, username)
}

func (s *PostgresStore) findOne(ctx context.Context, query string, arg any) (*models.AdminUser, error) {
	user, err := scanUser(s.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("get admin user: %w", err)
	}
	return user, nil
}

func (s *PostgresStore) List(ctx context.Context) ([]*models.AdminUser, error) {
	query := `SELECT ` + userColumns + ` FROM admin_users ORDER BY created_at`
	return s.listUsers(ctx, query)
}

func (s *PostgresStore) ListByOrganization(ctx context.Context, organizationID uuid.UUID) ([]*models.AdminUser, error) {
	query := `SELECT ` + userColumns + ` FROM admin_users WHERE organization_id = $1 ORDER BY created_at`
	return s.listUsers(ctx, query, organizationID)
}

func (s *PostgresStore) listUsers(ctx context.Context, query string, args ...any) ([]*models.AdminUser, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list admin users: %w", err)
	}
	defer rows.Close()

	var users []*models.AdminUser
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan admin user: %w", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate admin users: %w", err)
	}
	return users, nil
}

func (s *PostgresStore) Update(ctx context.Context, user *models.AdminUser) error {
	query := `
		UPDATE admin_users
		SET username = $2, password_hash = $3, organization_id = $4, role = $5,
		    is_active = $6, last_login = $7, updated_at = $8
		WHERE id = $1
	`
	result, err := s.db.ExecContext(ctx, query,
		user.ID, user.Username, user.PasswordHash, user.OrganizationID,
		string(user.Role), user.IsActive, user.LastLogin, user.UpdatedAt,
	)
	if err != nil {
		if postgres.UniqueViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("update admin user: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update admin user rows affected: %w", err)
	}
	if rows == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE admin_users SET last_login = $2 WHERE id = $1`, id, at)
	if err != nil {
		return fmt.Errorf("update last login: %w", err)
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM admin_users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete admin user: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete admin user rows affected: %w", err)
	}
	if rows == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) CountByOrganization(ctx context.Context, organizationID uuid.UUID) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM admin_users WHERE organization_id = $1`, organizationID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count admin users: %w", err)
	}
	return count, nil
}

type row interface {
	Scan(dest ...any) error
}

func scanUser(r row) (*models.AdminUser, error) {
	var user models.AdminUser
	var role string
	var lastLogin sql.NullTime
	if err := r.Scan(&user.ID, &user.Username, &user.PasswordHash, &user.OrganizationID,
		&role, &user.IsActive, &lastLogin, &user.CreatedAt, &user.UpdatedAt); err != nil {
		return nil, err
	}
	user.Role = models.Role(role)
	if lastLogin.Valid {
		user.LastLogin = &lastLogin.Time
	}
	return &user, nil
}
