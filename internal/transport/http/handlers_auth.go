package httptransport

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"visleg/internal/admin/models"
)

// AuthService opens and closes admin sessions.
type AuthService interface {
	Login(ctx context.Context, username, password string) (string, *models.AdminUser, error)
	Logout(ctx context.Context, token string) error
}

type AuthHandler struct {
	auth AuthService
}

func NewAuthHandler(auth AuthService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	SessionID string    `json:"sessionId"`
	User      loginUser `json:"user"`
}

type loginUser struct {
	ID             uuid.UUID   `json:"id"`
	Username       string      `json:"username"`
	Role           models.Role `json:"role"`
	OrganizationID uuid.UUID   `json:"organizationId"`
}

func (h *AuthHandler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Message: "Invalid request data"})
		return
	}

	token, user, err := h.auth.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, loginResponse{
		SessionID: token,
		User: loginUser{
			ID:             user.ID,
			Username:       user.Username,
			Role:           user.Role,
			OrganizationID: user.OrganizationID,
		},
	})
}

func (h *AuthHandler) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := h.auth.Logout(r.Context(), bearerToken(r)); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Logged out successfully"})
}
