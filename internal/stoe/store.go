package stoe

import (
	"context"
	"time"
)

// TokenStore persists cached provider tokens.
//
// FindValid returns sentinel.ErrNotFound when no non-expired token exists
// for the scope. DeleteExpired is the lazy purge run by the background
// worker every minute.
type TokenStore interface {
	FindValid(ctx context.Context, scope string, now time.Time) (*Token, error)
	Create(ctx context.Context, token *Token) error
	DeleteExpired(ctx context.Context, now time.Time) (int, error)
}
