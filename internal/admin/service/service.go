package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"visleg/internal/admin/models"
	"visleg/internal/admin/secrets"
	"visleg/internal/admin/store/organization"
	"visleg/internal/admin/store/user"
	"visleg/internal/audit"
	dErrors "visleg/pkg/domain-errors"
	"visleg/pkg/platform/sentinel"
	"visleg/pkg/requestcontext"
)

const deleteConfirmation = "DELETE"

const (
	msgAccessDenied       = "Access denied"
	msgConfirmDelete      = "You must type 'DELETE' to confirm"
	msgOrgNotFound        = "Organization not found"
	msgUserNotFound       = "User not found"
	msgUsernameTaken      = "Username already exists"
	msgOrganizationInUse  = "Cannot delete organization with existing users"
	msgSelfDeactivate     = "Cannot deactivate your own account"
	msgSelfDelete         = "Cannot delete your own account"
	msgFullAdminRequired  = "Full admin access required"
	msgAdminRequired      = "Admin access required"
	msgPasswordTooShort   = "Password must be at least 6 characters"
	msgOrgAdminRoleDenied = "Cannot create users with a higher role than your own"
)

// AdminService implements organization and user lifecycle with role and
// tenant scoping. Every mutation is recorded through the audit recorder.
type AdminService struct {
	orgs   organization.Store
	users  user.Store
	audit  *audit.Recorder
	logger *slog.Logger
}

func NewAdminService(orgs organization.Store, users user.Store, recorder *audit.Recorder, logger *slog.Logger) *AdminService {
	return &AdminService{orgs: orgs, users: users, audit: recorder, logger: logger}
}

// ListOrganizations returns all organizations for full admins and a
// single-element (or empty) list for tenant-scoped actors.
func (s *AdminService) ListOrganizations(ctx context.Context, actor *models.AdminUser) ([]*models.Organization, error) {
	if !actor.Role.Can(models.CapAdminAccess) {
		return nil, dErrors.New(dErrors.CodeForbidden, msgAdminRequired)
	}

	if !actor.Role.Can(models.CapListAllOrganizations) {
		org, err := s.orgs.FindByID(ctx, actor.OrganizationID)
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return []*models.Organization{}, nil
			}
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load organization")
		}
		return []*models.Organization{org}, nil
	}

	orgs, err := s.orgs.List(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list organizations")
	}
	if orgs == nil {
		orgs = []*models.Organization{}
	}
	return orgs, nil
}

// CreateOrganization registers a new tenant. Full admin only.
func (s *AdminService) CreateOrganization(ctx context.Context, actor *models.AdminUser, name, contactEmail, mfxid string) (*models.Organization, error) {
	if !actor.Role.Can(models.CapManageOrganizations) {
		return nil, dErrors.New(dErrors.CodeForbidden, msgFullAdminRequired)
	}

	org, err := models.NewOrganization(name, contactEmail, mfxid, requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}
	if err := s.orgs.Create(ctx, org); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "Organization name or MFX ID already exists")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create organization")
	}

	s.audit.Record(ctx, actor.ID, audit.ActionCreate, audit.EntityOrganization,
		org.ID.String(), org.Name, map[string]string{"email": org.ContactEmail})
	return org, nil
}

// DeactivateOrganization flips the tenant inactive. Reversible.
func (s *AdminService) DeactivateOrganization(ctx context.Context, actor *models.AdminUser, id uuid.UUID) (*models.Organization, error) {
	return s.setOrganizationActive(ctx, actor, id, false)
}

// ActivateOrganization flips the tenant active again.
func (s *AdminService) ActivateOrganization(ctx context.Context, actor *models.AdminUser, id uuid.UUID) (*models.Organization, error) {
	return s.setOrganizationActive(ctx, actor, id, true)
}

func (s *AdminService) setOrganizationActive(ctx context.Context, actor *models.AdminUser, id uuid.UUID, active bool) (*models.Organization, error) {
	if !actor.Role.Can(models.CapManageOrganizations) {
		return nil, dErrors.New(dErrors.CodeForbidden, msgFullAdminRequired)
	}

	org, err := s.orgs.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, msgOrgNotFound)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load organization")
	}

	now := requestcontext.Now(ctx)
	action := audit.ActionDeactivate
	if active {
		org.ApplyActivation(now)
		action = audit.ActionActivate
	} else {
		org.ApplyDeactivation(now)
	}
	if err := s.orgs.Update(ctx, org); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update organization")
	}

	s.audit.Record(ctx, actor.ID, action, audit.EntityOrganization, org.ID.String(), org.Name, nil)
	return org, nil
}

// DeleteOrganization permanently removes a tenant. Requires the literal
// confirmation string and refuses while users still belong to it.
func (s *AdminService) DeleteOrganization(ctx context.Context, actor *models.AdminUser, id uuid.UUID, confirmation string) error {
	if !actor.Role.Can(models.CapDeleteEntities) {
		return dErrors.New(dErrors.CodeForbidden, msgAdminRequired)
	}
	if confirmation != deleteConfirmation {
		return dErrors.New(dErrors.CodeBadRequest, msgConfirmDelete)
	}

	org, err := s.orgs.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, msgOrgNotFound)
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load organization")
	}

	count, err := s.users.CountByOrganization(ctx, id)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to count organization users")
	}
	if count > 0 {
		return dErrors.New(dErrors.CodeConflict, msgOrganizationInUse)
	}

	if err := s.orgs.Delete(ctx, id); err != nil {
		if errors.Is(err, sentinel.ErrInvalidState) {
			return dErrors.New(dErrors.CodeConflict, msgOrganizationInUse)
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete organization")
	}

	s.audit.Record(ctx, actor.ID, audit.ActionDelete, audit.EntityOrganization,
		org.ID.String(), org.Name, map[string]bool{"permanentDelete": true})
	return nil
}

// ListUsers returns all users for full admins, or the actor's own
// organization for tenant-scoped admins. Password hashes never leave the
// model's json:"-" field.
func (s *AdminService) ListUsers(ctx context.Context, actor *models.AdminUser) ([]*models.AdminUser, error) {
	if !actor.Role.Can(models.CapManageUsers) {
		return nil, dErrors.New(dErrors.CodeForbidden, msgAdminRequired)
	}

	var (
		users []*models.AdminUser
		err   error
	)
	if actor.Role.Can(models.CapListAllOrganizations) {
		users, err = s.users.List(ctx)
	} else {
		users, err = s.users.ListByOrganization(ctx, actor.OrganizationID)
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list users")
	}
	if users == nil {
		users = []*models.AdminUser{}
	}
	return users, nil
}

// CreateUser registers a new user. Tenant-scoped admins always create into
// their own organization regardless of the requested one, and may not mint
// roles above their own.
func (s *AdminService) CreateUser(ctx context.Context, actor *models.AdminUser, username, password string, organizationID uuid.UUID, role models.Role) (*models.AdminUser, error) {
	if !actor.Role.Can(models.CapManageUsers) {
		return nil, dErrors.New(dErrors.CodeForbidden, msgAdminRequired)
	}
	if !actor.Role.Can(models.CapListAllOrganizations) {
		organizationID = actor.OrganizationID
		if role == models.RoleAdmin {
			return nil, dErrors.New(dErrors.CodeForbidden, msgOrgAdminRoleDenied)
		}
	}
	if len(password) < 6 {
		return nil, dErrors.New(dErrors.CodeBadRequest, msgPasswordTooShort)
	}

	if _, err := s.orgs.FindByID(ctx, organizationID); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, msgOrgNotFound)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load organization")
	}

	hash, err := secrets.HashPassword(password)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to hash password")
	}

	created, err := models.NewAdminUser(username, hash, organizationID, role, requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}
	if err := s.users.Create(ctx, created); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, msgUsernameTaken)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create user")
	}

	s.audit.Record(ctx, actor.ID, audit.ActionCreate, audit.EntityUser,
		created.ID.String(), created.Username,
		map[string]string{"role": string(created.Role), "organizationId": organizationID.String()})
	return created, nil
}

// DeactivateUser flips a user inactive. Self-deactivation is refused so the
// last admin cannot lock everyone out by accident.
func (s *AdminService) DeactivateUser(ctx context.Context, actor *models.AdminUser, id uuid.UUID) (*models.AdminUser, error) {
	if actor.ID == id {
		return nil, dErrors.New(dErrors.CodeBadRequest, msgSelfDeactivate)
	}
	return s.setUserActive(ctx, actor, id, false)
}

// ActivateUser flips a user active again.
func (s *AdminService) ActivateUser(ctx context.Context, actor *models.AdminUser, id uuid.UUID) (*models.AdminUser, error) {
	return s.setUserActive(ctx, actor, id, true)
}

func (s *AdminService) setUserActive(ctx context.Context, actor *models.AdminUser, id uuid.UUID, active bool) (*models.AdminUser, error) {
	if !actor.Role.Can(models.CapManageUsers) {
		return nil, dErrors.New(dErrors.CodeForbidden, msgAdminRequired)
	}

	target, err := s.users.FindByID(ctx, id)
	if err != nil && !errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load user")
	}

	// Tenant-scoped admins cannot tell a missing user from a foreign one.
	if !actor.Role.Can(models.CapListAllOrganizations) {
		if target == nil || !actor.SameOrganization(target.OrganizationID) {
			return nil, dErrors.New(dErrors.CodeForbidden, msgAccessDenied)
		}
	}
	if target == nil {
		return nil, dErrors.New(dErrors.CodeNotFound, msgUserNotFound)
	}

	now := requestcontext.Now(ctx)
	action := audit.ActionDeactivate
	if active {
		target.ApplyActivation(now)
		action = audit.ActionActivate
	} else {
		target.ApplyDeactivation(now)
	}
	if err := s.users.Update(ctx, target); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update user")
	}

	s.audit.Record(ctx, actor.ID, action, audit.EntityUser, target.ID.String(), target.Username, nil)
	return target, nil
}

// DeleteUser permanently removes a user. Requires the literal confirmation
// string; self-deletion is refused.
func (s *AdminService) DeleteUser(ctx context.Context, actor *models.AdminUser, id uuid.UUID, confirmation string) error {
	if !actor.Role.Can(models.CapDeleteEntities) {
		return dErrors.New(dErrors.CodeForbidden, msgAdminRequired)
	}
	if confirmation != deleteConfirmation {
		return dErrors.New(dErrors.CodeBadRequest, msgConfirmDelete)
	}
	if actor.ID == id {
		return dErrors.New(dErrors.CodeBadRequest, msgSelfDelete)
	}

	target, err := s.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, msgUserNotFound)
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load user")
	}

	if err := s.users.Delete(ctx, id); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete user")
	}

	s.audit.Record(ctx, actor.ID, audit.ActionDelete, audit.EntityUser,
		target.ID.String(), target.Username, map[string]bool{"permanentDelete": true})
	return nil
}
