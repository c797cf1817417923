package models

import (
	dErrors "visleg/pkg/domain-errors"
)

// Role is the closed set of admin user roles.
type Role string

const (
	// RoleAdmin has full system privilege across all tenants.
	RoleAdmin Role = "admin"
	// RoleOrgAdmin has full privilege scoped to its own organization.
	RoleOrgAdmin Role = "org_admin"
	// RoleUser may perform verification scans only, no administrative access.
	RoleUser Role = "user"
)

// ParseRole validates a role string against the closed set.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleAdmin, RoleOrgAdmin, RoleUser:
		return Role(s), nil
	default:
		return "", dErrors.Newf(dErrors.CodeBadRequest, "invalid role %q", s)
	}
}

// Capability names one privileged action. Authorization decisions consult the
// capability table through Role.Can rather than comparing role strings at
// call sites.
type Capability string

const (
	// CapAdminAccess is any administrative access (admin or org_admin).
	CapAdminAccess Capability = "admin_access"
	// CapManageOrganizations covers create/deactivate/activate of organizations.
	CapManageOrganizations Capability = "manage_organizations"
	// CapListAllOrganizations sees every tenant; org_admin sees only its own.
	CapListAllOrganizations Capability = "list_all_organizations"
	// CapManageUsers covers create/deactivate/activate of users. Tenant
	// scoping for org_admin is row-level and enforced in the service.
	CapManageUsers Capability = "manage_users"
	// CapDeleteEntities covers permanent deletion of organizations and users.
	CapDeleteEntities Capability = "delete_entities"
	// CapGenerateReports covers single-organization report generation.
	CapGenerateReports Capability = "generate_reports"
	// CapGenerateAllReports covers the cross-tenant comprehensive CSV export.
	CapGenerateAllReports Capability = "generate_all_reports"
	// CapMarkInvoiced flips the invoiced flag on a monthly report.
	CapMarkInvoiced Capability = "mark_invoiced"
	// CapViewAuditLogs covers listing and downloading audit logs.
	CapViewAuditLogs Capability = "view_audit_logs"
	// CapPerformVerification covers QR verification scans.
	CapPerformVerification Capability = "perform_verification"
)

var roleCapabilities = map[Role]map[Capability]bool{
	RoleAdmin: {
		CapAdminAccess:          true,
		CapManageOrganizations:  true,
		CapListAllOrganizations: true,
		CapManageUsers:          true,
		CapDeleteEntities:       true,
		CapGenerateReports:      true,
		CapGenerateAllReports:   true,
		CapMarkInvoiced:         true,
		CapViewAuditLogs:        true,
		CapPerformVerification:  true,
	},
	RoleOrgAdmin: {
		CapAdminAccess:         true,
		CapManageUsers:         true,
		CapGenerateReports:     true,
		CapPerformVerification: true,
	},
	RoleUser: {
		CapPerformVerification: true,
	},
}

// Can reports whether the role grants the capability. Unknown roles grant
// nothing.
func (r Role) Can(c Capability) bool {
	return roleCapabilities[r][c]
}
