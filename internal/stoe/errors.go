package stoe

import (
	"errors"
	"fmt"
)

// ErrNotConfigured is returned when provider credentials are unset. Always
// fatal: fallback data must never hide a configuration problem.
var ErrNotConfigured = errors.New("provider credentials not configured")

// AuthError is an authentication failure against the provider (token grant
// rejected, or the merchant API returned 401). Always fatal.
type AuthError struct {
	Status int
	Body   string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("provider authentication failed: %d - %s", e.Status, e.Body)
}

// APIError is a non-success merchant API response that is not an auth
// failure, typically a rejected or expired session id. The session engine
// decides whether it triggers fallback substitution.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("provider verification failed: %d - %s", e.Status, e.Body)
}

// IsFatal reports whether err is an auth/configuration failure that must be
// propagated rather than softened with fallback data.
func IsFatal(err error) bool {
	if errors.Is(err, ErrNotConfigured) {
		return true
	}
	var authErr *AuthError
	return errors.As(err, &authErr)
}
