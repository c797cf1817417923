package httptransport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"visleg/internal/admin/models"
	"visleg/internal/report"
	dErrors "visleg/pkg/domain-errors"
	"visleg/pkg/requestcontext"
)

// ReportService covers monthly report generation, listing and invoicing.
type ReportService interface {
	List(ctx context.Context, actor *models.AdminUser, organizationID *uuid.UUID) ([]*report.MonthlyReport, error)
	Generate(ctx context.Context, actor *models.AdminUser, organizationID uuid.UUID, month, year int) (*report.MonthlyReport, error)
	GenerateAll(ctx context.Context, actor *models.AdminUser, month, year int) ([]report.ComprehensiveRow, error)
	MarkInvoiced(ctx context.Context, actor *models.AdminUser, reportID uuid.UUID) (*report.MonthlyReport, error)
	Dashboard(ctx context.Context, actor *models.AdminUser) (*report.Dashboard, error)
}

type ReportHandler struct {
	reports ReportService
}

func NewReportHandler(reports ReportService) *ReportHandler {
	return &ReportHandler{reports: reports}
}

func (h *ReportHandler) handleList(w http.ResponseWriter, r *http.Request) {
	var organizationID *uuid.UUID
	if raw := r.URL.Query().Get("organizationId"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			writeError(w, dErrors.New(dErrors.CodeBadRequest, "invalid organizationId"))
			return
		}
		organizationID = &id
	}

	reports, err := h.reports.List(r.Context(), principalFrom(r.Context()), organizationID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, reports)
}

type generateReportRequest struct {
	OrganizationID uuid.UUID `json:"organizationId"`
	Month          int       `json:"month"`
	Year           int       `json:"year"`
}

func (h *ReportHandler) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var req generateReportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Message: "Invalid request data"})
		return
	}

	generated, err := h.reports.Generate(r.Context(), principalFrom(r.Context()), req.OrganizationID, req.Month, req.Year)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, generated)
}

type generateAllRequest struct {
	Month int `json:"month"`
	Year  int `json:"year"`
}

func (h *ReportHandler) handleGenerateAll(w http.ResponseWriter, r *http.Request) {
	var req generateAllRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Message: "Invalid request data"})
		return
	}

	rows, err := h.reports.GenerateAll(r.Context(), principalFrom(r.Context()), req.Month, req.Year)
	if err != nil {
		writeError(w, err)
		return
	}

	var buf bytes.Buffer
	if err := report.WriteComprehensiveCSV(&buf, rows); err != nil {
		writeError(w, dErrors.Wrap(err, dErrors.CodeInternal, "Failed to generate comprehensive report"))
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf(`attachment; filename="comprehensive-report-%d-%02d.csv"`, req.Year, req.Month))
	_, _ = w.Write(buf.Bytes())
}

func (h *ReportHandler) handleMarkInvoiced(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, dErrors.New(dErrors.CodeBadRequest, "invalid id"))
		return
	}

	updated, err := h.reports.MarkInvoiced(r.Context(), principalFrom(r.Context()), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *ReportHandler) handleDashboard(w http.ResponseWriter, r *http.Request) {
	dash, err := h.reports.Dashboard(r.Context(), principalFrom(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dash)
}

// filenameDate formats the request time for download filenames.
func filenameDate(r *http.Request) string {
	return requestcontext.Now(r.Context()).UTC().Format("2006-01-02")
}
