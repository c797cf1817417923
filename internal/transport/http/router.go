package httptransport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"visleg/internal/admin/models"
	"visleg/internal/platform/metrics"
	"visleg/internal/platform/middleware"
	"visleg/pkg/requestcontext"
)

// Handlers groups the per-area handlers the router mounts.
type Handlers struct {
	Verify  *VerifyHandler
	Auth    *AuthHandler
	Admin   *AdminHandler
	Reports *ReportHandler
	Audit   *AuditHandler
}

// NewRouter wires all endpoints behind the shared middleware chain.
func NewRouter(h Handlers, authn Authenticator, logger *slog.Logger, m *metrics.Metrics) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RequestTime)
	r.Use(middleware.ClientMetadata)
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Latency(m))

	r.Get("/api/health", handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	// Kiosk surface. /api/verify authenticates inline because the token may
	// arrive in the request body.
	r.Post("/api/verify-demo", h.Verify.handleVerifyDemo)
	r.Post("/api/verify", h.Verify.handleVerify)

	r.Post("/api/admin/login", h.Auth.handleLogin)

	r.Group(func(r chi.Router) {
		r.Use(requireAuth(authn))
		r.Post("/api/admin/logout", h.Auth.handleLogout)
	})

	r.Route("/api/admin", func(r chi.Router) {
		r.Use(requireAuth(authn))
		r.Use(requireCapability(models.CapAdminAccess, "Admin access required"))

		r.Get("/organizations", h.Admin.handleListOrganizations)
		r.Post("/organizations", h.Admin.handleCreateOrganization)
		r.Patch("/organizations/{id}/deactivate", h.Admin.handleDeactivateOrganization)
		r.Patch("/organizations/{id}/activate", h.Admin.handleActivateOrganization)
		// Legacy alias kept for older kiosk builds.
		r.Patch("/organizations/{id}/toggle-status", h.Admin.handleDeactivateOrganization)
		r.Delete("/organizations/{id}", h.Admin.handleDeleteOrganization)

		r.Get("/users", h.Admin.handleListUsers)
		r.Post("/users", h.Admin.handleCreateUser)
		r.Patch("/users/{id}/deactivate", h.Admin.handleDeactivateUser)
		r.Patch("/users/{id}/activate", h.Admin.handleActivateUser)
		r.Delete("/users/{id}", h.Admin.handleDeleteUser)

		r.Get("/reports", h.Reports.handleList)
		r.Post("/reports/generate", h.Reports.handleGenerate)
		r.Post("/reports/generate-all", h.Reports.handleGenerateAll)
		r.Post("/reports/{id}/mark-invoiced", h.Reports.handleMarkInvoiced)
		r.Get("/dashboard", h.Reports.handleDashboard)

		r.Group(func(r chi.Router) {
			r.Use(requireCapability(models.CapViewAuditLogs, "Admin access required"))
			r.Get("/audit-logs", h.Audit.handleList)
			r.Get("/audit-logs/download", h.Audit.handleDownload)
		})
	})

	return r
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "ok",
		"timestamp": requestcontext.Now(r.Context()).UTC().Format(time.RFC3339),
	})
}
