package report

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"visleg/internal/admin/models"
	"visleg/internal/admin/store/organization"
	"visleg/internal/verification"
	dErrors "visleg/pkg/domain-errors"
	"visleg/pkg/requestcontext"
)

type fixture struct {
	svc      *Service
	reports  *InMemoryStore
	sessions *verification.InMemoryStore
	orgs     organization.Store
	orgA     *models.Organization
	orgB     *models.Organization
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	now := time.Date(2026, time.June, 20, 12, 0, 0, 0, time.UTC)

	orgs := organization.NewInMemory()
	orgA, err := models.NewOrganization("Vinmonopolet Oslo", "oslo@vinmonopolet.no", "MFX-001", now)
	require.NoError(t, err)
	require.NoError(t, orgs.Create(context.Background(), orgA))
	orgB, err := models.NewOrganization("Vinmonopolet Bergen", "bergen@vinmonopolet.no", "MFX-002", now)
	require.NoError(t, err)
	require.NoError(t, orgs.Create(context.Background(), orgB))

	reports := NewInMemory()
	sessions := verification.NewInMemory()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	return &fixture{
		svc:      NewService(reports, sessions, orgs, logger),
		reports:  reports,
		sessions: sessions,
		orgs:     orgs,
		orgA:     orgA,
		orgB:     orgB,
	}
}

func (f *fixture) admin() *models.AdminUser {
	return &models.AdminUser{ID: uuid.New(), Username: "root", OrganizationID: f.orgA.ID, Role: models.RoleAdmin, IsActive: true}
}

func (f *fixture) orgAdmin() *models.AdminUser {
	return &models.AdminUser{ID: uuid.New(), Username: "manager", OrganizationID: f.orgA.ID, Role: models.RoleOrgAdmin, IsActive: true}
}

func (f *fixture) seedScans(t *testing.T, orgID uuid.UUID, verified, failed int, at time.Time) {
	t.Helper()
	for i := 0; i < verified+failed; i++ {
		session := &verification.Session{
			ID:             uuid.New(),
			SessionID:      "VisLeg-" + uuid.NewString(),
			Verified:       i < verified,
			OrganizationID: &orgID,
			CreatedAt:      at,
		}
		require.NoError(t, f.sessions.Create(context.Background(), session))
	}
}

func TestService_Generate(t *testing.T) {
	f := newFixture(t)
	june := time.Date(2026, time.June, 5, 9, 0, 0, 0, time.UTC)
	f.seedScans(t, f.orgA.ID, 3, 1, june)
	f.seedScans(t, f.orgB.ID, 10, 0, june)

	genAt := time.Date(2026, time.July, 1, 8, 0, 0, 0, time.UTC)
	ctx := requestcontext.WithTime(context.Background(), genAt)
	actor := f.admin()

	report, err := f.svc.Generate(ctx, actor, f.orgA.ID, 6, 2026)
	require.NoError(t, err)

	assert.Equal(t, f.orgA.ID, report.OrganizationID)
	assert.Equal(t, 4, report.TotalScans)
	assert.Equal(t, 3, report.SuccessfulScans)
	assert.False(t, report.IsInvoiced)
	require.NotNil(t, report.GeneratedByUserID)
	assert.Equal(t, actor.ID, *report.GeneratedByUserID)

	var data map[string]any
	require.NoError(t, json.Unmarshal([]byte(report.ReportData), &data))
	org := data["organization"].(map[string]any)
	assert.Equal(t, "Vinmonopolet Oslo", org["name"])
	assert.Equal(t, "root", data["generatedBy"])
	assert.Equal(t, genAt.Format(time.RFC3339), data["generatedAt"])

	stored, err := f.reports.FindByID(ctx, report.ID)
	require.NoError(t, err)
	assert.Equal(t, report.ID, stored.ID)
}

func TestService_Generate_Validation(t *testing.T) {
	f := newFixture(t)
	actor := f.admin()

	_, err := f.svc.Generate(context.Background(), actor, f.orgA.ID, 13, 2026)
	assert.Equal(t, dErrors.CodeInvalidInput, dErrors.CodeOf(err))

	_, err = f.svc.Generate(context.Background(), actor, f.orgA.ID, 6, 2031)
	assert.Equal(t, dErrors.CodeInvalidInput, dErrors.CodeOf(err))

	_, err = f.svc.Generate(context.Background(), actor, uuid.New(), 6, 2026)
	assert.Equal(t, dErrors.CodeNotFound, dErrors.CodeOf(err))
}

func TestService_Generate_OrgAdminScopedToOwnOrg(t *testing.T) {
	f := newFixture(t)
	actor := f.orgAdmin()

	_, err := f.svc.Generate(context.Background(), actor, f.orgA.ID, 6, 2026)
	require.NoError(t, err)

	_, err = f.svc.Generate(context.Background(), actor, f.orgB.ID, 6, 2026)
	assert.Equal(t, dErrors.CodeForbidden, dErrors.CodeOf(err))
}

func TestService_Stats_Scoping(t *testing.T) {
	f := newFixture(t)
	june := time.Date(2026, time.June, 10, 0, 0, 0, 0, time.UTC)
	f.seedScans(t, f.orgB.ID, 2, 1, june)

	stats, err := f.svc.Stats(context.Background(), f.admin(), f.orgB.ID, 6, 2026)
	require.NoError(t, err)
	assert.Equal(t, MonthlyStats{TotalScans: 3, SuccessfulScans: 2}, stats)
	assert.LessOrEqual(t, stats.SuccessfulScans, stats.TotalScans)

	_, err = f.svc.Stats(context.Background(), f.orgAdmin(), f.orgB.ID, 6, 2026)
	assert.Equal(t, dErrors.CodeForbidden, dErrors.CodeOf(err))
}

func TestService_List(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := f.admin()

	_, err := f.svc.Generate(ctx, admin, f.orgA.ID, 5, 2026)
	require.NoError(t, err)
	_, err = f.svc.Generate(ctx, admin, f.orgB.ID, 5, 2026)
	require.NoError(t, err)

	t.Run("defaults to own organization", func(t *testing.T) {
		reports, err := f.svc.List(ctx, f.orgAdmin(), nil)
		require.NoError(t, err)
		require.Len(t, reports, 1)
		assert.Equal(t, f.orgA.ID, reports[0].OrganizationID)
	})

	t.Run("admin may list any organization", func(t *testing.T) {
		reports, err := f.svc.List(ctx, admin, &f.orgB.ID)
		require.NoError(t, err)
		require.Len(t, reports, 1)
		assert.Equal(t, f.orgB.ID, reports[0].OrganizationID)
	})

	t.Run("cross-org listing denied", func(t *testing.T) {
		_, err := f.svc.List(ctx, f.orgAdmin(), &f.orgB.ID)
		assert.Equal(t, dErrors.CodeForbidden, dErrors.CodeOf(err))
	})
}

func TestService_GenerateAll(t *testing.T) {
	f := newFixture(t)
	june := time.Date(2026, time.June, 3, 0, 0, 0, 0, time.UTC)
	f.seedScans(t, f.orgA.ID, 5, 2, june)
	f.seedScans(t, f.orgB.ID, 1, 0, june)

	t.Run("admin only", func(t *testing.T) {
		_, err := f.svc.GenerateAll(context.Background(), f.orgAdmin(), 6, 2026)
		assert.Equal(t, dErrors.CodeForbidden, dErrors.CodeOf(err))
	})

	rows, err := f.svc.GenerateAll(context.Background(), f.admin(), 6, 2026)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	byMFX := map[string]ComprehensiveRow{}
	for _, row := range rows {
		byMFX[row.MFXID] = row
	}
	assert.Equal(t, 7, byMFX["MFX-001"].ScanCount)
	assert.Equal(t, 5, byMFX["MFX-001"].SuccessfulScans)
	assert.Equal(t, 1, byMFX["MFX-002"].ScanCount)

	// Rows are exported, never stored.
	stored, err := f.reports.ListByOrganization(context.Background(), f.orgA.ID)
	require.NoError(t, err)
	assert.Empty(t, stored)
}

func TestService_MarkInvoiced(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := f.admin()

	report, err := f.svc.Generate(ctx, admin, f.orgA.ID, 6, 2026)
	require.NoError(t, err)

	t.Run("admin only", func(t *testing.T) {
		_, err := f.svc.MarkInvoiced(ctx, f.orgAdmin(), report.ID)
		assert.Equal(t, dErrors.CodeForbidden, dErrors.CodeOf(err))
	})

	invoicedAt := time.Date(2026, time.July, 2, 10, 0, 0, 0, time.UTC)
	updated, err := f.svc.MarkInvoiced(requestcontext.WithTime(ctx, invoicedAt), admin, report.ID)
	require.NoError(t, err)
	assert.True(t, updated.IsInvoiced)
	require.NotNil(t, updated.InvoicedAt)
	assert.Equal(t, invoicedAt, *updated.InvoicedAt)

	t.Run("idempotent", func(t *testing.T) {
		later := invoicedAt.Add(48 * time.Hour)
		again, err := f.svc.MarkInvoiced(requestcontext.WithTime(ctx, later), admin, report.ID)
		require.NoError(t, err)
		assert.Equal(t, invoicedAt, *again.InvoicedAt)
	})

	t.Run("unknown report", func(t *testing.T) {
		_, err := f.svc.MarkInvoiced(ctx, admin, uuid.New())
		assert.Equal(t, dErrors.CodeNotFound, dErrors.CodeOf(err))
	})
}

func TestService_Dashboard(t *testing.T) {
	f := newFixture(t)
	now := time.Date(2026, time.June, 15, 12, 0, 0, 0, time.UTC)
	ctx := requestcontext.WithTime(context.Background(), now)
	f.seedScans(t, f.orgA.ID, 4, 0, now)

	t.Run("org scoped", func(t *testing.T) {
		dash, err := f.svc.Dashboard(ctx, f.orgAdmin())
		require.NoError(t, err)
		assert.Equal(t, 6, dash.Month)
		assert.Equal(t, 2026, dash.Year)
		require.NotNil(t, dash.Organization)
		assert.Equal(t, f.orgA.ID, dash.Organization.ID)
		require.NotNil(t, dash.CurrentMonthStats)
		assert.Equal(t, 4, dash.CurrentMonthStats.TotalScans)
		assert.Empty(t, dash.Organizations)
	})

	t.Run("admin aggregate", func(t *testing.T) {
		dash, err := f.svc.Dashboard(ctx, f.admin())
		require.NoError(t, err)
		assert.Len(t, dash.Organizations, 2)
		assert.Nil(t, dash.CurrentMonthStats)
	})
}

func TestWriteComprehensiveCSV(t *testing.T) {
	rows := []ComprehensiveRow{
		{
			MFXID:            "MFX-001",
			OrganizationName: `Polet "Sentrum", Oslo`,
			Month:            6,
			Year:             2026,
			ScanCount:        12,
			SuccessfulScans:  11,
			GeneratedAt:      time.Date(2026, time.July, 1, 8, 0, 0, 0, time.UTC),
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteComprehensiveCSV(&buf, rows))

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 2)
	assert.Equal(t, "MFX ID,Organization Name,Month,Year,Scan Count,Successful Scans,Generated At", string(lines[0]))
	assert.Contains(t, string(lines[1]), `"Polet ""Sentrum"", Oslo"`)
	assert.Contains(t, string(lines[1]), "2026-07-01T08:00:00Z")
}
