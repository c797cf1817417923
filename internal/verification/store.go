package verification

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Store persists verification sessions.
//
// Create returns sentinel.ErrConflict when the session id already exists;
// the service treats that conflict as the authoritative already-used signal.
// FindBySessionID returns sentinel.ErrNotFound for unknown ids.
type Store interface {
	Create(ctx context.Context, session *Session) error
	FindBySessionID(ctx context.Context, sessionID string) (*Session, error)
	// MonthlyStats counts sessions created in the given month for the
	// organization, and the subset with verified = true. Month boundaries
	// are evaluated in UTC.
	MonthlyStats(ctx context.Context, organizationID uuid.UUID, month, year int) (total, successful int, err error)
}

// monthRange returns the half-open UTC interval [start, end) of a month.
func monthRange(month, year int) (time.Time, time.Time) {
	start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 1, 0)
}
