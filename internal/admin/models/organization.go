package models

import (
	"strings"
	"time"

	"github.com/google/uuid"

	dErrors "visleg/pkg/domain-errors"
)

// Organization is a tenant: a business location whose staff perform
// verification scans.
//
// Invariants:
//   - Name is non-empty and globally unique
//   - MFXID (external billing identifier) is non-empty and globally unique
//   - ContactEmail is a plausible email address
//   - Deactivation is reversible (flag flip); deletion is permanent and
//     blocked while users still reference the organization
type Organization struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	ContactEmail string    `json:"contactEmail"`
	MFXID        string    `json:"mfxid"`
	IsActive     bool      `json:"isActive"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// NewOrganization validates input and constructs an active organization.
func NewOrganization(name, contactEmail, mfxid string, now time.Time) (*Organization, error) {
	name = strings.TrimSpace(name)
	contactEmail = strings.TrimSpace(contactEmail)
	mfxid = strings.TrimSpace(mfxid)

	if name == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "organization name is required")
	}
	if err := validateEmail(contactEmail); err != nil {
		return nil, err
	}
	if mfxid == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "MFX ID is required")
	}

	return &Organization{
		ID:           uuid.New(),
		Name:         name,
		ContactEmail: contactEmail,
		MFXID:        mfxid,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// ApplyDeactivation flips the active flag off.
func (o *Organization) ApplyDeactivation(now time.Time) {
	o.IsActive = false
	o.UpdatedAt = now
}

// ApplyActivation flips the active flag on.
func (o *Organization) ApplyActivation(now time.Time) {
	o.IsActive = true
	o.UpdatedAt = now
}

func validateEmail(email string) error {
	at := strings.Index(email, "@")
	if at <= 0 || at == len(email)-1 || !strings.Contains(email[at+1:], ".") {
		return dErrors.New(dErrors.CodeBadRequest, "contact email is invalid")
	}
	return nil
}
