// Package httptransport is the thin HTTP layer. Handlers decode, delegate to
// domain services and translate domain errors to the JSON envelope; business
// rules stay out of this package.
package httptransport

import (
	"encoding/json"
	"net/http"

	dErrors "visleg/pkg/domain-errors"
)

// errorResponse is the wire envelope for failures. The error code is only
// set on verification endpoints, where the kiosk UI branches on it.
type errorResponse struct {
	Message   string `json:"message"`
	Error     string `json:"error,omitempty"`
	UsedAt    string `json:"usedAt,omitempty"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func statusForCode(code dErrors.Code) int {
	switch code {
	case dErrors.CodeBadRequest, dErrors.CodeInvalidInput:
		return http.StatusBadRequest
	case dErrors.CodeUnauthorized:
		return http.StatusUnauthorized
	case dErrors.CodeForbidden:
		return http.StatusForbidden
	case dErrors.CodeNotFound:
		return http.StatusNotFound
	case dErrors.CodeConflict, dErrors.CodeInvariantViolation:
		return http.StatusConflict
	case dErrors.CodeUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// writeError translates a domain error to its HTTP status and envelope.
func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, statusForCode(dErrors.CodeOf(err)), errorResponse{Message: dErrors.MessageOf(err)})
}
