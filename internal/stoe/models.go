// Package stoe integrates with the Stø identity platform: the BankID OAuth2
// token endpoint (client-credentials grant, cached per scope) and the
// merchant verification API that exchanges a QR session id for verified
// identity attributes.
package stoe

import (
	"time"

	"github.com/google/uuid"
)

// Token is a cached provider access token for one scope. Multiple valid
// tokens per scope may coexist briefly when concurrent cache misses race;
// that is wasteful but safe.
type Token struct {
	ID          uuid.UUID
	AccessToken string
	Scope       string
	ExpiresAt   time.Time
	CreatedAt   time.Time
}

// Valid reports whether the token is usable at the given instant.
func (t *Token) Valid(now time.Time) bool {
	return now.Before(t.ExpiresAt)
}

// Identity is the verified person data returned by the merchant API.
type Identity struct {
	FirstName     string `json:"firstName"`
	LastName      string `json:"lastName"`
	DocumentPhoto string `json:"documentPhoto"`
	Age           int    `json:"age"`
}
