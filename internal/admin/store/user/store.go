// Package user persists AdminUser records. Stores are pure I/O; role and
// tenant scoping rules live in the admin service.
package user

import (
	"context"
	"time"

	"github.com/google/uuid"

	"visleg/internal/admin/models"
)

// Store is the persistence contract for admin users.
//
// Create returns sentinel.ErrConflict when the username is taken. Lookups
// return sentinel.ErrNotFound for missing rows.
type Store interface {
	Create(ctx context.Context, user *models.AdminUser) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.AdminUser, error)
	FindByUsername(ctx context.Context, username string) (*models.AdminUser, error)
	List(ctx context.Context) ([]*models.AdminUser, error)
	ListByOrganization(ctx context.Context, organizationID uuid.UUID) ([]*models.AdminUser, error)
	Update(ctx context.Context, user *models.AdminUser) error
	UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error
	Delete(ctx context.Context, id uuid.UUID) error
	CountByOrganization(ctx context.Context, organizationID uuid.UUID) (int, error)
}
