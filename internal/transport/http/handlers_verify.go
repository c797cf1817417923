package httptransport

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"visleg/internal/admin/models"
	"visleg/internal/stoe"
	"visleg/internal/verification"
)

// Wire error codes the kiosk UI branches on.
const (
	codeValidationError    = "VALIDATION_ERROR"
	codeInvalidSessionID   = "INVALID_SESSION_ID"
	codeSessionAlreadyUsed = "SESSION_ALREADY_USED"
	codeAuthFailed         = "AUTH_FAILED"
	codeVerificationFailed = "VERIFICATION_FAILED"
	codeInternalError      = "INTERNAL_ERROR"
)

// VerifyService runs one scan attempt.
type VerifyService interface {
	VerifyDemo(ctx context.Context, sessionID string) (*verification.Result, error)
	Verify(ctx context.Context, qrSessionID string, actor *models.AdminUser) (*verification.Result, error)
}

type VerifyHandler struct {
	verify VerifyService
	auth   Authenticator
}

func NewVerifyHandler(verify VerifyService, auth Authenticator) *VerifyHandler {
	return &VerifyHandler{verify: verify, auth: auth}
}

type qrScanRequest struct {
	SessionID     string `json:"sessionId"`
	AuthSessionID string `json:"authSessionId,omitempty"`
}

func (h *VerifyHandler) handleVerifyDemo(w http.ResponseWriter, r *http.Request) {
	var req qrScanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.SessionID == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Message: "Invalid request data", Error: codeValidationError,
		})
		return
	}

	result, err := h.verify.VerifyDemo(r.Context(), req.SessionID)
	if err != nil {
		h.writeVerifyError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// handleVerify authenticates inline rather than via middleware: some kiosk
// webviews strip auth headers, so the token may arrive in the request body.
func (h *VerifyHandler) handleVerify(w http.ResponseWriter, r *http.Request) {
	var req qrScanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.SessionID == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Message: "Invalid request data", Error: codeValidationError,
		})
		return
	}

	token := bearerToken(r)
	if token == "" {
		token = req.AuthSessionID
	}
	actor, err := h.auth.Authenticate(r.Context(), token)
	if err != nil {
		writeError(w, err)
		return
	}

	result, err := h.verify.Verify(r.Context(), req.SessionID, actor)
	if err != nil {
		h.writeVerifyError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *VerifyHandler) writeVerifyError(w http.ResponseWriter, err error) {
	var used *verification.AlreadyUsedError
	if errors.As(err, &used) {
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Message:   used.Message(),
			Error:     codeSessionAlreadyUsed,
			UsedAt:    used.UsedAtDisplay(),
			FirstName: used.FirstName,
			LastName:  used.LastName,
		})
		return
	}

	if errors.Is(err, verification.ErrInvalidSessionID) {
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Message: "Invalid sessionId format. SessionId must start with 'VisLeg-'",
			Error:   codeInvalidSessionID,
		})
		return
	}

	if stoe.IsFatal(err) {
		writeJSON(w, http.StatusUnauthorized, errorResponse{
			Message: "Stø API authentication failed",
			Error:   codeAuthFailed,
		})
		return
	}

	var apiErr *stoe.APIError
	if errors.As(err, &apiErr) {
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Message: "ID verification failed. The QR code may be invalid or expired.",
			Error:   codeVerificationFailed,
		})
		return
	}

	writeJSON(w, http.StatusInternalServerError, errorResponse{
		Message: "Internal server error during verification",
		Error:   codeInternalError,
	})
}
