package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"visleg/internal/admin/models"
	"visleg/internal/admin/store/organization"
	"visleg/internal/admin/store/user"
	"visleg/internal/audit"
	dErrors "visleg/pkg/domain-errors"
)

type AdminServiceSuite struct {
	suite.Suite

	svc      *AdminService
	orgs     organization.Store
	users    user.Store
	auditLog *audit.InMemoryStore

	orgA  *models.Organization
	orgB  *models.Organization
	admin *models.AdminUser
	orgAd *models.AdminUser
}

func TestAdminServiceSuite(t *testing.T) {
	suite.Run(t, new(AdminServiceSuite))
}

func (s *AdminServiceSuite) SetupTest() {
	s.orgs = organization.NewInMemory()
	s.users = user.NewInMemory()
	s.auditLog = audit.NewInMemory(nil)
	recorder := audit.NewRecorder(s.auditLog, discardLogger(), nil)
	s.svc = NewAdminService(s.orgs, s.users, recorder, discardLogger())

	now := time.Now()
	ctx := context.Background()

	var err error
	s.orgA, err = models.NewOrganization("Polet Oslo", "oslo@polet.no", "MFX-A", now)
	s.Require().NoError(err)
	s.Require().NoError(s.orgs.Create(ctx, s.orgA))
	s.orgB, err = models.NewOrganization("Polet Bergen", "bergen@polet.no", "MFX-B", now)
	s.Require().NoError(err)
	s.Require().NoError(s.orgs.Create(ctx, s.orgB))

	s.admin = &models.AdminUser{ID: uuid.New(), Username: "root", OrganizationID: s.orgA.ID, Role: models.RoleAdmin, IsActive: true}
	s.orgAd = &models.AdminUser{ID: uuid.New(), Username: "manager", OrganizationID: s.orgA.ID, Role: models.RoleOrgAdmin, IsActive: true}
}

func (s *AdminServiceSuite) lastAudit() *audit.Record {
	records, err := s.auditLog.ListRecent(context.Background(), 1)
	s.Require().NoError(err)
	s.Require().NotEmpty(records)
	return records[0]
}

func (s *AdminServiceSuite) TestListOrganizations() {
	ctx := context.Background()

	all, err := s.svc.ListOrganizations(ctx, s.admin)
	s.Require().NoError(err)
	s.Len(all, 2)

	own, err := s.svc.ListOrganizations(ctx, s.orgAd)
	s.Require().NoError(err)
	s.Require().Len(own, 1)
	s.Equal(s.orgA.ID, own[0].ID)

	plain := &models.AdminUser{ID: uuid.New(), OrganizationID: s.orgA.ID, Role: models.RoleUser}
	_, err = s.svc.ListOrganizations(ctx, plain)
	s.Equal(dErrors.CodeForbidden, dErrors.CodeOf(err))
}

func (s *AdminServiceSuite) TestCreateOrganization() {
	ctx := context.Background()

	org, err := s.svc.CreateOrganization(ctx, s.admin, "Polet Tromsø", "tromso@polet.no", "MFX-C")
	s.Require().NoError(err)
	s.True(org.IsActive)

	record := s.lastAudit()
	s.Equal(audit.ActionCreate, record.Action)
	s.Equal(audit.EntityOrganization, record.EntityType)
	s.Equal("Polet Tromsø", record.EntityName)

	s.Run("duplicate name", func() {
		_, err := s.svc.CreateOrganization(ctx, s.admin, "Polet Tromsø", "x@y.no", "MFX-D")
		s.Equal(dErrors.CodeConflict, dErrors.CodeOf(err))
	})

	s.Run("org_admin denied", func() {
		_, err := s.svc.CreateOrganization(ctx, s.orgAd, "Polet Alta", "alta@polet.no", "MFX-E")
		s.Equal(dErrors.CodeForbidden, dErrors.CodeOf(err))
	})
}

func (s *AdminServiceSuite) TestOrganizationActivation() {
	ctx := context.Background()

	deactivated, err := s.svc.DeactivateOrganization(ctx, s.admin, s.orgA.ID)
	s.Require().NoError(err)
	s.False(deactivated.IsActive)
	s.Equal(audit.ActionDeactivate, s.lastAudit().Action)

	activated, err := s.svc.ActivateOrganization(ctx, s.admin, s.orgA.ID)
	s.Require().NoError(err)
	s.True(activated.IsActive)
	s.Equal(audit.ActionActivate, s.lastAudit().Action)

	_, err = s.svc.DeactivateOrganization(ctx, s.admin, uuid.New())
	s.Equal(dErrors.CodeNotFound, dErrors.CodeOf(err))
}

func (s *AdminServiceSuite) TestDeleteOrganization() {
	ctx := context.Background()

	s.Run("requires literal confirmation", func() {
		err := s.svc.DeleteOrganization(ctx, s.admin, s.orgB.ID, "delete")
		s.Equal(dErrors.CodeBadRequest, dErrors.CodeOf(err))
		s.Equal("You must type 'DELETE' to confirm", dErrors.MessageOf(err))
	})

	s.Run("blocked while users exist", func() {
		_, err := s.svc.CreateUser(ctx, s.admin, "bergen-user", "secret123", s.orgB.ID, models.RoleUser)
		s.Require().NoError(err)

		err = s.svc.DeleteOrganization(ctx, s.admin, s.orgB.ID, "DELETE")
		s.Equal(dErrors.CodeConflict, dErrors.CodeOf(err))
	})

	s.Run("org_admin denied", func() {
		err := s.svc.DeleteOrganization(ctx, s.orgAd, s.orgB.ID, "DELETE")
		s.Equal(dErrors.CodeForbidden, dErrors.CodeOf(err))
	})

	s.Run("succeeds when empty", func() {
		org, err := models.NewOrganization("Polet Empty", "empty@polet.no", "MFX-Z", time.Now())
		s.Require().NoError(err)
		s.Require().NoError(s.orgs.Create(ctx, org))

		s.Require().NoError(s.svc.DeleteOrganization(ctx, s.admin, org.ID, "DELETE"))
		_, err = s.orgs.FindByID(ctx, org.ID)
		s.Error(err)

		record := s.lastAudit()
		s.Equal(audit.ActionDelete, record.Action)
		s.Contains(record.Details, "permanentDelete")
	})
}

func (s *AdminServiceSuite) TestCreateUser() {
	ctx := context.Background()

	s.Run("admin creates anywhere", func() {
		created, err := s.svc.CreateUser(ctx, s.admin, "bergen-staff", "secret123", s.orgB.ID, models.RoleUser)
		s.Require().NoError(err)
		s.Equal(s.orgB.ID, created.OrganizationID)
		s.True(created.IsActive)
		s.NotEqual("secret123", created.PasswordHash)
	})

	s.Run("org_admin pinned to own organization", func() {
		created, err := s.svc.CreateUser(ctx, s.orgAd, "oslo-staff", "secret123", s.orgB.ID, models.RoleUser)
		s.Require().NoError(err)
		s.Equal(s.orgA.ID, created.OrganizationID)
	})

	s.Run("org_admin cannot mint admins", func() {
		_, err := s.svc.CreateUser(ctx, s.orgAd, "sneaky", "secret123", s.orgA.ID, models.RoleAdmin)
		s.Equal(dErrors.CodeForbidden, dErrors.CodeOf(err))
	})

	s.Run("duplicate username", func() {
		_, err := s.svc.CreateUser(ctx, s.admin, "bergen-staff", "secret123", s.orgA.ID, models.RoleUser)
		s.Equal(dErrors.CodeConflict, dErrors.CodeOf(err))
		s.Equal("Username already exists", dErrors.MessageOf(err))
	})

	s.Run("short password", func() {
		_, err := s.svc.CreateUser(ctx, s.admin, "shortpw", "12345", s.orgA.ID, models.RoleUser)
		s.Equal(dErrors.CodeBadRequest, dErrors.CodeOf(err))
	})

	s.Run("unknown organization", func() {
		_, err := s.svc.CreateUser(ctx, s.admin, "lost", "secret123", uuid.New(), models.RoleUser)
		s.Equal(dErrors.CodeNotFound, dErrors.CodeOf(err))
	})
}

func (s *AdminServiceSuite) TestUserActivation() {
	ctx := context.Background()
	target, err := s.svc.CreateUser(ctx, s.admin, "staff", "secret123", s.orgA.ID, models.RoleUser)
	s.Require().NoError(err)
	foreign, err := s.svc.CreateUser(ctx, s.admin, "bergen-staff", "secret123", s.orgB.ID, models.RoleUser)
	s.Require().NoError(err)

	s.Run("deactivate and reactivate", func() {
		updated, err := s.svc.DeactivateUser(ctx, s.admin, target.ID)
		s.Require().NoError(err)
		s.False(updated.IsActive)

		updated, err = s.svc.ActivateUser(ctx, s.orgAd, target.ID)
		s.Require().NoError(err)
		s.True(updated.IsActive)
	})

	s.Run("self-deactivation refused", func() {
		s.Require().NoError(s.users.Create(ctx, s.admin))
		_, err := s.svc.DeactivateUser(ctx, s.admin, s.admin.ID)
		s.Equal(dErrors.CodeBadRequest, dErrors.CodeOf(err))
		s.Equal("Cannot deactivate your own account", dErrors.MessageOf(err))
	})

	s.Run("cross-org denied for org_admin", func() {
		_, err := s.svc.DeactivateUser(ctx, s.orgAd, foreign.ID)
		s.Equal(dErrors.CodeForbidden, dErrors.CodeOf(err))
	})

	s.Run("missing user indistinguishable from foreign for org_admin", func() {
		_, err := s.svc.DeactivateUser(ctx, s.orgAd, uuid.New())
		s.Equal(dErrors.CodeForbidden, dErrors.CodeOf(err))

		_, err = s.svc.DeactivateUser(ctx, s.admin, uuid.New())
		s.Equal(dErrors.CodeNotFound, dErrors.CodeOf(err))
	})
}

func (s *AdminServiceSuite) TestDeleteUser() {
	ctx := context.Background()
	target, err := s.svc.CreateUser(ctx, s.admin, "staff", "secret123", s.orgA.ID, models.RoleUser)
	s.Require().NoError(err)

	s.Run("requires confirmation", func() {
		err := s.svc.DeleteUser(ctx, s.admin, target.ID, "")
		s.Equal(dErrors.CodeBadRequest, dErrors.CodeOf(err))
	})

	s.Run("self-delete refused", func() {
		err := s.svc.DeleteUser(ctx, s.admin, s.admin.ID, "DELETE")
		s.Equal("Cannot delete your own account", dErrors.MessageOf(err))
	})

	s.Run("org_admin denied", func() {
		err := s.svc.DeleteUser(ctx, s.orgAd, target.ID, "DELETE")
		s.Equal(dErrors.CodeForbidden, dErrors.CodeOf(err))
	})

	s.Run("succeeds with confirmation", func() {
		s.Require().NoError(s.svc.DeleteUser(ctx, s.admin, target.ID, "DELETE"))
		_, err := s.users.FindByID(ctx, target.ID)
		s.Error(err)
	})
}

func (s *AdminServiceSuite) TestListUsers() {
	ctx := context.Background()
	_, err := s.svc.CreateUser(ctx, s.admin, "oslo-staff", "secret123", s.orgA.ID, models.RoleUser)
	s.Require().NoError(err)
	_, err = s.svc.CreateUser(ctx, s.admin, "bergen-staff", "secret123", s.orgB.ID, models.RoleUser)
	s.Require().NoError(err)

	all, err := s.svc.ListUsers(ctx, s.admin)
	s.Require().NoError(err)
	s.Len(all, 2)

	scoped, err := s.svc.ListUsers(ctx, s.orgAd)
	s.Require().NoError(err)
	s.Require().Len(scoped, 1)
	s.Equal("oslo-staff", scoped[0].Username)
}

func TestAdminService_AuditSwallowsFailures(t *testing.T) {
	// A broken audit backend must never fail the underlying mutation.
	orgs := organization.NewInMemory()
	users := user.NewInMemory()
	recorder := audit.NewRecorder(failingAuditStore{}, discardLogger(), nil)
	svc := NewAdminService(orgs, users, recorder, discardLogger())

	admin := &models.AdminUser{ID: uuid.New(), Username: "root", OrganizationID: uuid.New(), Role: models.RoleAdmin, IsActive: true}
	org, err := svc.CreateOrganization(context.Background(), admin, "Polet Oslo", "oslo@polet.no", "MFX-A")
	require.NoError(t, err)
	assert.NotNil(t, org)
}

type failingAuditStore struct{}

func (failingAuditStore) Append(context.Context, *audit.Entry) error {
	return assert.AnError
}

func (failingAuditStore) ListRecent(context.Context, int) ([]*audit.Record, error) {
	return nil, assert.AnError
}
