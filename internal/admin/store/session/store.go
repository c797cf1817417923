// Package session persists admin login sessions keyed by opaque bearer token.
//
// Two implementations exist: InMemory for single-instance deployments (lost
// on restart, swept periodically) and Redis for multi-instance deployments
// (expiry delegated to key TTLs). The backing is selected by configuration;
// the access control layer only sees this interface.
package session

import (
	"context"
	"time"

	"visleg/internal/admin/models"
)

// Store is the persistence contract for admin sessions.
//
// Find returns sentinel.ErrNotFound for unknown tokens. Expiry is checked by
// the caller against Session.ExpiresAt; DeleteExpired is the bulk sweep used
// by the background worker and may be a no-op for backings with native TTLs.
type Store interface {
	Create(ctx context.Context, session *models.Session) error
	Find(ctx context.Context, token string) (*models.Session, error)
	Delete(ctx context.Context, token string) error
	DeleteExpired(ctx context.Context, now time.Time) (int, error)
}
