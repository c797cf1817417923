// Package organization persists Organization records. Stores are pure I/O;
// authorization and lifecycle rules live in the admin service.
package organization

import (
	"context"

	"github.com/google/uuid"

	"visleg/internal/admin/models"
)

// Store is the persistence contract for organizations.
//
// Create returns sentinel.ErrConflict when the name or MFX ID is taken.
// Lookups return sentinel.ErrNotFound for missing rows.
type Store interface {
	Create(ctx context.Context, org *models.Organization) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Organization, error)
	List(ctx context.Context) ([]*models.Organization, error)
	Update(ctx context.Context, org *models.Organization) error
	Delete(ctx context.Context, id uuid.UUID) error
}
