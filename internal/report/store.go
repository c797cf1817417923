package report

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Store persists monthly report snapshots.
//
// Lookups return sentinel.ErrNotFound for missing rows. MarkInvoiced is
// idempotent: invoicing an already-invoiced report keeps the original
// invoiced_at timestamp.
type Store interface {
	Create(ctx context.Context, report *MonthlyReport) error
	FindByID(ctx context.Context, id uuid.UUID) (*MonthlyReport, error)
	// ListByOrganization returns reports newest first.
	ListByOrganization(ctx context.Context, organizationID uuid.UUID) ([]*MonthlyReport, error)
	MarkInvoiced(ctx context.Context, id uuid.UUID, at time.Time) (*MonthlyReport, error)
}
