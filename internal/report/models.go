// Package report produces monthly usage statistics, persisted report
// snapshots and the comprehensive all-organizations export.
package report

import (
	"time"

	"github.com/google/uuid"

	"visleg/internal/admin/models"
)

// MonthlyReport is a persisted snapshot of one organization's scan volume
// for a billing month. ReportData carries the JSON snapshot exactly as it
// was generated, so later edits to organizations never rewrite history.
type MonthlyReport struct {
	ID                uuid.UUID  `json:"id"`
	OrganizationID    uuid.UUID  `json:"organizationId"`
	Month             int        `json:"month"`
	Year              int        `json:"year"`
	TotalScans        int        `json:"totalScans"`
	SuccessfulScans   int        `json:"successfulScans"`
	ReportData        string     `json:"reportData"`
	GeneratedByUserID *uuid.UUID `json:"generatedByUserId,omitempty"`
	IsInvoiced        bool       `json:"isInvoiced"`
	InvoicedAt        *time.Time `json:"invoicedAt,omitempty"`
	CreatedAt         time.Time  `json:"createdAt"`
}

// MonthlyStats is the scan volume of one organization for one month.
type MonthlyStats struct {
	TotalScans      int `json:"totalScans"`
	SuccessfulScans int `json:"successfulScans"`
}

// snapshot is the JSON document stored in MonthlyReport.ReportData.
type snapshot struct {
	Organization snapshotOrganization `json:"organization"`
	Period       snapshotPeriod       `json:"period"`
	Statistics   MonthlyStats         `json:"statistics"`
	GeneratedAt  string               `json:"generatedAt"`
	GeneratedBy  string               `json:"generatedBy"`
}

type snapshotOrganization struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	ContactEmail string    `json:"contactEmail"`
}

type snapshotPeriod struct {
	Month int `json:"month"`
	Year  int `json:"year"`
}

// ComprehensiveRow is one organization's line in the all-organizations CSV
// export. Rows are streamed to the caller and never persisted.
type ComprehensiveRow struct {
	MFXID            string
	OrganizationName string
	Month            int
	Year             int
	ScanCount        int
	SuccessfulScans  int
	GeneratedAt      time.Time
}

// Dashboard is the landing-page summary. Admins get the all-organizations
// aggregate; everyone else gets their own organization's current month.
type Dashboard struct {
	Organization      *models.Organization `json:"organization,omitempty"`
	CurrentMonthStats *MonthlyStats        `json:"currentMonthStats,omitempty"`
	Organizations     []OrganizationStats  `json:"organizations,omitempty"`
	Month             int                  `json:"month"`
	Year              int                  `json:"year"`
}

// OrganizationStats pairs an organization with its current-month volume.
type OrganizationStats struct {
	Organization *models.Organization `json:"organization"`
	Stats        MonthlyStats         `json:"stats"`
}
