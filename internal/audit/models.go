// Package audit records every privileged mutation as an append-only trail.
//
// Writes are synchronous and best-effort: a failed audit write must never
// abort the operation being audited, but it increments a dedicated failure
// metric so silent gaps are observable.
package audit

import (
	"time"

	"github.com/google/uuid"
)

// Action verbs for audit entries.
const (
	ActionCreate     = "CREATE"
	ActionUpdate     = "UPDATE"
	ActionDelete     = "DELETE"
	ActionDeactivate = "DEACTIVATE"
	ActionActivate   = "ACTIVATE"
)

// Entity types for audit entries.
const (
	EntityOrganization = "organization"
	EntityUser         = "user"
)

// Entry is one append-only audit record.
type Entry struct {
	ID         uuid.UUID  `json:"id"`
	UserID     *uuid.UUID `json:"userId"`
	Action     string     `json:"action"`
	EntityType string     `json:"entityType"`
	EntityID   string     `json:"entityId"`
	EntityName string     `json:"entityName"`
	Details    string     `json:"details,omitempty"`
	IPAddress  string     `json:"ipAddress,omitempty"`
	UserAgent  string     `json:"userAgent,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`
}

// Record is an Entry joined with the acting user's username for display and
// CSV export. Username is empty when the user has since been deleted.
type Record struct {
	Entry
	Username string `json:"username"`
}
