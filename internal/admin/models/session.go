package models

import (
	"time"

	"github.com/google/uuid"
)

// Session maps an opaque bearer token to a logged-in admin user.
//
// Sessions are non-renewing: ExpiresAt is fixed at creation (TTL, default
// 24h) and a request after that instant is rejected regardless of activity.
// Memory-backed sessions are lost on restart; all admins re-login.
type Session struct {
	Token     string    `json:"token"`
	UserID    uuid.UUID `json:"userId"`
	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Expired reports whether the session lifetime has passed at the given instant.
func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}
