package report

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"visleg/internal/admin/models"
	"visleg/internal/admin/store/organization"
	dErrors "visleg/pkg/domain-errors"
	"visleg/pkg/platform/sentinel"
	"visleg/pkg/requestcontext"
)

// StatsSource counts verification sessions per organization and month.
// Month boundaries are evaluated in UTC.
type StatsSource interface {
	MonthlyStats(ctx context.Context, organizationID uuid.UUID, month, year int) (total, successful int, err error)
}

// Service generates, lists and invoices monthly reports. Authorization is
// capability based: report access outside the actor's own organization
// requires the all-organizations capability.
type Service struct {
	reports Store
	stats   StatsSource
	orgs    organization.Store
	logger  *slog.Logger
}

func NewService(reports Store, stats StatsSource, orgs organization.Store, logger *slog.Logger) *Service {
	return &Service{reports: reports, stats: stats, orgs: orgs, logger: logger}
}

func validatePeriod(month, year int) error {
	if month < 1 || month > 12 {
		return dErrors.Newf(dErrors.CodeInvalidInput, "month must be between 1 and 12, got %d", month)
	}
	if year < 2020 || year > 2030 {
		return dErrors.Newf(dErrors.CodeInvalidInput, "year must be between 2020 and 2030, got %d", year)
	}
	return nil
}

func (s *Service) authorizeOrganization(actor *models.AdminUser, organizationID uuid.UUID) error {
	if actor.Role.Can(models.CapGenerateAllReports) {
		return nil
	}
	if actor.OrganizationID != organizationID {
		return dErrors.New(dErrors.CodeForbidden, "Access denied")
	}
	return nil
}

// Stats returns the scan volume for one organization and month.
func (s *Service) Stats(ctx context.Context, actor *models.AdminUser, organizationID uuid.UUID, month, year int) (MonthlyStats, error) {
	if err := validatePeriod(month, year); err != nil {
		return MonthlyStats{}, err
	}
	if err := s.authorizeOrganization(actor, organizationID); err != nil {
		return MonthlyStats{}, err
	}

	total, successful, err := s.stats.MonthlyStats(ctx, organizationID, month, year)
	if err != nil {
		return MonthlyStats{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to compute monthly stats")
	}
	return MonthlyStats{TotalScans: total, SuccessfulScans: successful}, nil
}

// List returns an organization's reports, newest first. Actors without the
// all-organizations capability are pinned to their own organization.
func (s *Service) List(ctx context.Context, actor *models.AdminUser, organizationID *uuid.UUID) ([]*MonthlyReport, error) {
	target := actor.OrganizationID
	if organizationID != nil {
		target = *organizationID
	}
	if err := s.authorizeOrganization(actor, target); err != nil {
		return nil, err
	}

	reports, err := s.reports.ListByOrganization(ctx, target)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list reports")
	}
	if reports == nil {
		reports = []*MonthlyReport{}
	}
	return reports, nil
}

// Generate computes and persists a report snapshot for one organization.
func (s *Service) Generate(ctx context.Context, actor *models.AdminUser, organizationID uuid.UUID, month, year int) (*MonthlyReport, error) {
	if !actor.Role.Can(models.CapGenerateReports) {
		return nil, dErrors.New(dErrors.CodeForbidden, "Access denied")
	}
	if err := validatePeriod(month, year); err != nil {
		return nil, err
	}
	if err := s.authorizeOrganization(actor, organizationID); err != nil {
		return nil, err
	}

	total, successful, err := s.stats.MonthlyStats(ctx, organizationID, month, year)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to compute monthly stats")
	}

	org, err := s.orgs.FindByID(ctx, organizationID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "Organization not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load organization")
	}

	now := requestcontext.Now(ctx)
	stats := MonthlyStats{TotalScans: total, SuccessfulScans: successful}
	data, err := json.Marshal(snapshot{
		Organization: snapshotOrganization{ID: org.ID, Name: org.Name, ContactEmail: org.ContactEmail},
		Period:       snapshotPeriod{Month: month, Year: year},
		Statistics:   stats,
		GeneratedAt:  now.UTC().Format(time.RFC3339),
		GeneratedBy:  actor.Username,
	})
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to encode report data")
	}

	report := &MonthlyReport{
		ID:                uuid.New(),
		OrganizationID:    organizationID,
		Month:             month,
		Year:              year,
		TotalScans:        total,
		SuccessfulScans:   successful,
		ReportData:        string(data),
		GeneratedByUserID: &actor.ID,
		CreatedAt:         now,
	}
	if err := s.reports.Create(ctx, report); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to store report")
	}

	s.logger.InfoContext(ctx, "monthly report generated",
		"request_id", requestcontext.RequestID(ctx),
		"organization_id", organizationID,
		"month", month,
		"year", year,
		"total_scans", total,
	)
	return report, nil
}

// GenerateAll computes one row per organization for the given month.
// Rows are returned for CSV export and never persisted.
func (s *Service) GenerateAll(ctx context.Context, actor *models.AdminUser, month, year int) ([]ComprehensiveRow, error) {
	if !actor.Role.Can(models.CapGenerateAllReports) {
		return nil, dErrors.New(dErrors.CodeForbidden, "System admin access required")
	}
	if err := validatePeriod(month, year); err != nil {
		return nil, err
	}

	orgs, err := s.orgs.List(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list organizations")
	}

	now := requestcontext.Now(ctx)
	rows := make([]ComprehensiveRow, len(orgs))
	g, gctx := errgroup.WithContext(ctx)
	for i, org := range orgs {
		g.Go(func() error {
			total, successful, err := s.stats.MonthlyStats(gctx, org.ID, month, year)
			if err != nil {
				return fmt.Errorf("stats for %s: %w", org.Name, err)
			}
			rows[i] = ComprehensiveRow{
				MFXID:            org.MFXID,
				OrganizationName: org.Name,
				Month:            month,
				Year:             year,
				ScanCount:        total,
				SuccessfulScans:  successful,
				GeneratedAt:      now,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to generate comprehensive report")
	}
	return rows, nil
}

// MarkInvoiced flags a report as invoiced.
func (s *Service) MarkInvoiced(ctx context.Context, actor *models.AdminUser, reportID uuid.UUID) (*MonthlyReport, error) {
	if !actor.Role.Can(models.CapMarkInvoiced) {
		return nil, dErrors.New(dErrors.CodeForbidden, "Admin access required")
	}

	report, err := s.reports.MarkInvoiced(ctx, reportID, requestcontext.Now(ctx))
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "Report not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to mark report invoiced")
	}
	return report, nil
}

// Dashboard summarizes the current month. Actors with the all-organizations
// capability get every organization's volume; everyone else gets their own.
func (s *Service) Dashboard(ctx context.Context, actor *models.AdminUser) (*Dashboard, error) {
	now := requestcontext.Now(ctx).UTC()
	month, year := int(now.Month()), now.Year()

	if !actor.Role.Can(models.CapGenerateAllReports) {
		total, successful, err := s.stats.MonthlyStats(ctx, actor.OrganizationID, month, year)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to compute monthly stats")
		}
		org, err := s.orgs.FindByID(ctx, actor.OrganizationID)
		if err != nil && !errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load organization")
		}
		return &Dashboard{
			Organization:      org,
			CurrentMonthStats: &MonthlyStats{TotalScans: total, SuccessfulScans: successful},
			Month:             month,
			Year:              year,
		}, nil
	}

	orgs, err := s.orgs.List(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list organizations")
	}

	entries := make([]OrganizationStats, len(orgs))
	g, gctx := errgroup.WithContext(ctx)
	for i, org := range orgs {
		g.Go(func() error {
			total, successful, err := s.stats.MonthlyStats(gctx, org.ID, month, year)
			if err != nil {
				return fmt.Errorf("stats for %s: %w", org.Name, err)
			}
			entries[i] = OrganizationStats{
				Organization: org,
				Stats:        MonthlyStats{TotalScans: total, SuccessfulScans: successful},
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to build dashboard")
	}

	return &Dashboard{Organizations: entries, Month: month, Year: year}, nil
}
