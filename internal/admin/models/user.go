package models

import (
	"strings"
	"time"

	"github.com/google/uuid"

	dErrors "visleg/pkg/domain-errors"
)

// AdminUser is a principal who can log in to the admin surface or perform
// verification scans, depending on role.
//
// Invariants:
//   - Username is 3-50 characters and globally unique
//   - PasswordHash is a bcrypt hash, never serialized to clients
//   - OrganizationID is always set; the role model requires a valid
//     organization for org_admin and user
type AdminUser struct {
	ID             uuid.UUID  `json:"id"`
	Username       string     `json:"username"`
	PasswordHash   string     `json:"-"`
	OrganizationID uuid.UUID  `json:"organizationId"`
	Role           Role       `json:"role"`
	IsActive       bool       `json:"isActive"`
	LastLogin      *time.Time `json:"lastLogin,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}

// NewAdminUser validates input and constructs an active user. The password
// must already be hashed by the caller.
func NewAdminUser(username, passwordHash string, organizationID uuid.UUID, role Role, now time.Time) (*AdminUser, error) {
	username = strings.TrimSpace(username)
	if len(username) < 3 {
		return nil, dErrors.New(dErrors.CodeBadRequest, "username must be at least 3 characters")
	}
	if len(username) > 50 {
		return nil, dErrors.New(dErrors.CodeBadRequest, "username must be 50 characters or less")
	}
	if passwordHash == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "password hash is required")
	}
	if organizationID == uuid.Nil {
		return nil, dErrors.New(dErrors.CodeBadRequest, "organization is required")
	}
	if _, err := ParseRole(string(role)); err != nil {
		return nil, err
	}

	return &AdminUser{
		ID:             uuid.New(),
		Username:       username,
		PasswordHash:   passwordHash,
		OrganizationID: organizationID,
		Role:           role,
		IsActive:       true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}

// ApplyDeactivation flips the active flag off.
func (u *AdminUser) ApplyDeactivation(now time.Time) {
	u.IsActive = false
	u.UpdatedAt = now
}

// ApplyActivation flips the active flag on.
func (u *AdminUser) ApplyActivation(now time.Time) {
	u.IsActive = true
	u.UpdatedAt = now
}

// SameOrganization reports whether other belongs to this user's organization.
func (u *AdminUser) SameOrganization(organizationID uuid.UUID) bool {
	return u.OrganizationID == organizationID
}
