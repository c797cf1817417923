package httptransport

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strconv"

	"visleg/internal/audit"
	dErrors "visleg/pkg/domain-errors"
)

const (
	auditListLimit     = 100
	auditDownloadLimit = 1000
)

// AuditService reads back recent audit records.
type AuditService interface {
	ListRecent(ctx context.Context, limit int) ([]*audit.Record, error)
}

type AuditHandler struct {
	audit AuditService
}

func NewAuditHandler(a AuditService) *AuditHandler {
	return &AuditHandler{audit: a}
}

func (h *AuditHandler) handleList(w http.ResponseWriter, r *http.Request) {
	limit := auditListLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			writeError(w, dErrors.New(dErrors.CodeBadRequest, "invalid limit"))
			return
		}
		limit = parsed
	}

	records, err := h.audit.ListRecent(r.Context(), limit)
	if err != nil {
		writeError(w, dErrors.Wrap(err, dErrors.CodeInternal, "Failed to fetch audit logs"))
		return
	}
	if records == nil {
		records = []*audit.Record{}
	}
	writeJSON(w, http.StatusOK, records)
}

func (h *AuditHandler) handleDownload(w http.ResponseWriter, r *http.Request) {
	records, err := h.audit.ListRecent(r.Context(), auditDownloadLimit)
	if err != nil {
		writeError(w, dErrors.Wrap(err, dErrors.CodeInternal, "Failed to download audit logs"))
		return
	}

	var buf bytes.Buffer
	if err := audit.WriteCSV(&buf, records); err != nil {
		writeError(w, dErrors.Wrap(err, dErrors.CodeInternal, "Failed to download audit logs"))
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf(`attachment; filename="audit-logs-%s.csv"`, filenameDate(r)))
	_, _ = w.Write(buf.Bytes())
}
