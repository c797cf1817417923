package report

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"visleg/pkg/platform/sentinel"
)

const reportColumns = `id, organization_id, month, year, total_scans, successful_scans,
	report_data, generated_by_user_id, is_invoiced, invoiced_at, created_at`

// PostgresStore persists monthly reports in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, report *MonthlyReport) error {
	query := `
		INSERT INTO monthly_reports
			(id, organization_id, month, year, total_scans, successful_scans,
			 report_data, generated_by_user_id, is_invoiced, invoiced_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := s.db.ExecContext(ctx, query,
		report.ID, report.OrganizationID, report.Month, report.Year,
		report.TotalScans, report.SuccessfulScans, report.ReportData,
		report.GeneratedByUserID, report.IsInvoiced, report.InvoicedAt, report.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert monthly report: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, id uuid.UUID) (*MonthlyReport, error) {
	query := `SELECT ` + reportColumns + ` FROM monthly_reports WHERE id = $1`
	report, err := scanReport(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("get monthly report: %w", err)
	}
	return report, nil
}

func (s *PostgresStore) ListByOrganization(ctx context.Context, organizationID uuid.UUID) ([]*MonthlyReport, error) {
	query := `
		SELECT ` + reportColumns + `
		FROM monthly_reports
		WHERE organization_id = $1
		ORDER BY created_at DESC
	`
	rows, err := s.db.QueryContext(ctx, query, organizationID)
	if err != nil {
		return nil, fmt.Errorf("list monthly reports: %w", err)
	}
	defer rows.Close()

	var out []*MonthlyReport
	for rows.Next() {
		report, err := scanReport(rows)
		if err != nil {
			return nil, fmt.Errorf("scan monthly report: %w", err)
		}
		out = append(out, report)
	}
	return out, rows.Err()
}

func (s *PostgresStore) MarkInvoiced(ctx context.Context, id uuid.UUID, at time.Time) (*MonthlyReport, error) {
	query := `
		UPDATE monthly_reports
		SET is_invoiced = TRUE,
		    invoiced_at = COALESCE(invoiced_at, $2)
		WHERE id = $1
		RETURNING ` + reportColumns
	report, err := scanReport(s.db.QueryRowContext(ctx, query, id, at))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("mark report invoiced: %w", err)
	}
	return report, nil
}

func scanReport(row interface{ Scan(...any) error }) (*MonthlyReport, error) {
	var (
		report     MonthlyReport
		reportData sql.NullString
		invoicedAt sql.NullTime
	)
	err := row.Scan(
		&report.ID, &report.OrganizationID, &report.Month, &report.Year,
		&report.TotalScans, &report.SuccessfulScans, &reportData,
		&report.GeneratedByUserID, &report.IsInvoiced, &invoicedAt, &report.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	report.ReportData = reportData.String
	if invoicedAt.Valid {
		report.InvoicedAt = &invoicedAt.Time
	}
	return &report, nil
}
