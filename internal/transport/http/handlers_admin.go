package httptransport

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"visleg/internal/admin/models"
	dErrors "visleg/pkg/domain-errors"
)

// AdminService covers organization and user lifecycle.
type AdminService interface {
	ListOrganizations(ctx context.Context, actor *models.AdminUser) ([]*models.Organization, error)
	CreateOrganization(ctx context.Context, actor *models.AdminUser, name, contactEmail, mfxid string) (*models.Organization, error)
	DeactivateOrganization(ctx context.Context, actor *models.AdminUser, id uuid.UUID) (*models.Organization, error)
	ActivateOrganization(ctx context.Context, actor *models.AdminUser, id uuid.UUID) (*models.Organization, error)
	DeleteOrganization(ctx context.Context, actor *models.AdminUser, id uuid.UUID, confirmation string) error

	ListUsers(ctx context.Context, actor *models.AdminUser) ([]*models.AdminUser, error)
	CreateUser(ctx context.Context, actor *models.AdminUser, username, password string, organizationID uuid.UUID, role models.Role) (*models.AdminUser, error)
	DeactivateUser(ctx context.Context, actor *models.AdminUser, id uuid.UUID) (*models.AdminUser, error)
	ActivateUser(ctx context.Context, actor *models.AdminUser, id uuid.UUID) (*models.AdminUser, error)
	DeleteUser(ctx context.Context, actor *models.AdminUser, id uuid.UUID, confirmation string) error
}

type AdminHandler struct {
	admin AdminService
}

func NewAdminHandler(admin AdminService) *AdminHandler {
	return &AdminHandler{admin: admin}
}

func idParam(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeBadRequest, "invalid id")
	}
	return id, nil
}

func (h *AdminHandler) handleListOrganizations(w http.ResponseWriter, r *http.Request) {
	orgs, err := h.admin.ListOrganizations(r.Context(), principalFrom(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, orgs)
}

type createOrganizationRequest struct {
	Name         string `json:"name"`
	ContactEmail string `json:"contactEmail"`
	MFXID        string `json:"mfxid"`
}

func (h *AdminHandler) handleCreateOrganization(w http.ResponseWriter, r *http.Request) {
	var req createOrganizationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Message: "Invalid request data"})
		return
	}

	org, err := h.admin.CreateOrganization(r.Context(), principalFrom(r.Context()), req.Name, req.ContactEmail, req.MFXID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, org)
}

func (h *AdminHandler) handleDeactivateOrganization(w http.ResponseWriter, r *http.Request) {
	h.setOrganizationActive(w, r, false)
}

func (h *AdminHandler) handleActivateOrganization(w http.ResponseWriter, r *http.Request) {
	h.setOrganizationActive(w, r, true)
}

func (h *AdminHandler) setOrganizationActive(w http.ResponseWriter, r *http.Request, active bool) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var org *models.Organization
	if active {
		org, err = h.admin.ActivateOrganization(r.Context(), principalFrom(r.Context()), id)
	} else {
		org, err = h.admin.DeactivateOrganization(r.Context(), principalFrom(r.Context()), id)
	}
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, org)
}

type deleteConfirmationRequest struct {
	Confirmation string `json:"confirmation"`
}

func (h *AdminHandler) handleDeleteOrganization(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var req deleteConfirmationRequest
	_ = json.NewDecoder(r.Body).Decode(&req)

	if err := h.admin.DeleteOrganization(r.Context(), principalFrom(r.Context()), id, req.Confirmation); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Organization deleted successfully"})
}

func (h *AdminHandler) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.admin.ListUsers(r.Context(), principalFrom(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

type createUserRequest struct {
	Username       string    `json:"username"`
	Password       string    `json:"password"`
	OrganizationID uuid.UUID `json:"organizationId"`
	Role           string    `json:"role"`
}

func (h *AdminHandler) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Message: "Invalid request data"})
		return
	}
	if req.Role == "" {
		req.Role = string(models.RoleUser)
	}
	role, err := models.ParseRole(req.Role)
	if err != nil {
		writeError(w, err)
		return
	}

	user, err := h.admin.CreateUser(r.Context(), principalFrom(r.Context()), req.Username, req.Password, req.OrganizationID, role)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *AdminHandler) handleDeactivateUser(w http.ResponseWriter, r *http.Request) {
	h.setUserActive(w, r, false)
}

func (h *AdminHandler) handleActivateUser(w http.ResponseWriter, r *http.Request) {
	h.setUserActive(w, r, true)
}

func (h *AdminHandler) setUserActive(w http.ResponseWriter, r *http.Request, active bool) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var user *models.AdminUser
	if active {
		user, err = h.admin.ActivateUser(r.Context(), principalFrom(r.Context()), id)
	} else {
		user, err = h.admin.DeactivateUser(r.Context(), principalFrom(r.Context()), id)
	}
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *AdminHandler) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var req deleteConfirmationRequest
	_ = json.NewDecoder(r.Body).Decode(&req)

	if err := h.admin.DeleteUser(r.Context(), principalFrom(r.Context()), id, req.Confirmation); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "User deleted successfully"})
}
