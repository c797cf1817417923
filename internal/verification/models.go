// Package verification implements the QR session protocol: shape validation,
// single-use enforcement, demo/live/fallback verification paths and
// persistence of the outcome.
package verification

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	dErrors "visleg/pkg/domain-errors"
)

const (
	// sessionIDPrefix is the shape every BankID QR payload starts with.
	sessionIDPrefix = "VisLeg-"
	// demoPrefix marks synthetic demo sessions: never verified upstream,
	// never persisted, never counted in statistics.
	demoPrefix = "VisLeg-demo"
)

// Session is the single-use record of one BankID QR scan. Created at most
// once per session id; the unique constraint on SessionID is the enforcement
// backstop for the single-use invariant.
type Session struct {
	ID                uuid.UUID  `json:"id"`
	SessionID         string     `json:"sessionId"`
	FirstName         string     `json:"firstName"`
	LastName          string     `json:"lastName"`
	DocumentPhoto     string     `json:"documentPhoto"`
	Age               int        `json:"age"`
	Verified          bool       `json:"verified"`
	VerifiedAt        *time.Time `json:"verifiedAt,omitempty"`
	OrganizationID    *uuid.UUID `json:"organizationId,omitempty"`
	PerformedByUserID *uuid.UUID `json:"performedByUserId,omitempty"`
	CreatedAt         time.Time  `json:"createdAt"`
}

// Result is the normalized verification outcome returned to the scanning UI.
type Result struct {
	FirstName     string    `json:"firstName"`
	LastName      string    `json:"lastName"`
	DocumentPhoto string    `json:"documentPhoto"`
	Age           int       `json:"age"`
	SessionID     string    `json:"sessionId"`
	Timestamp     time.Time `json:"timestamp"`
}

// identity is a fixed roster entry used for demo and fallback results.
type identity struct {
	FirstName string
	LastName  string
	Age       int
}

// demoIdentities is the official Stø test user roster used for demo scans.
var demoIdentities = []identity{
	{FirstName: "EDGAR", LastName: "HETLAND", Age: 43},
	{FirstName: "ANNETTE INGVILD", LastName: "BERGAN", Age: 29},
	{FirstName: "JAKOB", LastName: "HALVORSEN", Age: 14},
	{FirstName: "NORA", LastName: "SOLBERG", Age: 18},
}

// fallbackIdentities substitutes for live data when the provider is degraded
// and fallback is enabled.
var fallbackIdentities = []identity{
	{FirstName: "TEST", LastName: "BRUKER", Age: 35},
	{FirstName: "DEMO", LastName: "PERSON", Age: 28},
	{FirstName: "UTVIKLER", LastName: "TEST", Age: 30},
}

// ErrInvalidSessionID rejects QR payloads that do not match the VisLeg shape.
var ErrInvalidSessionID = dErrors.New(dErrors.CodeBadRequest,
	"Invalid sessionId format. SessionId must start with 'VisLeg-'")

// ValidSessionID reports whether the session id matches the required shape.
// Real BankID session ids vary in length and format beyond the prefix.
func ValidSessionID(sessionID string) bool {
	return strings.HasPrefix(sessionID, sessionIDPrefix) && len(sessionID) >= len(sessionIDPrefix)
}

// IsDemoSessionID reports whether the session id is a synthetic demo session.
func IsDemoSessionID(sessionID string) bool {
	return strings.HasPrefix(sessionID, demoPrefix)
}

// AlreadyUsedError signals the single-use invariant: the QR code was already
// verified. It carries who used it and when so the UI can show it.
type AlreadyUsedError struct {
	FirstName string
	LastName  string
	UsedAt    *time.Time
}

func (e *AlreadyUsedError) Error() string {
	return fmt.Sprintf("verification session already used at %s", e.UsedAtDisplay())
}

// osloTime localizes timestamps for Norwegian end users.
var osloTime = mustLoadOslo()

func mustLoadOslo() *time.Location {
	loc, err := time.LoadLocation("Europe/Oslo")
	if err != nil {
		return time.UTC
	}
	return loc
}

// UsedAtDisplay formats the original verification time for Norwegian users,
// or "ukjent tid" when unknown.
func (e *AlreadyUsedError) UsedAtDisplay() string {
	if e.UsedAt == nil {
		return "ukjent tid"
	}
	return e.UsedAt.In(osloTime).Format("02.01.2006, 15:04")
}

// Message is the user-facing Norwegian error text.
func (e *AlreadyUsedError) Message() string {
	return fmt.Sprintf("Denne QR-koden er allerede brukt den %s. Be om en ny QR-kode fra BankID-appen for å verifisere identitet på nytt.", e.UsedAtDisplay())
}
