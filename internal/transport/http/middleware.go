package httptransport

import (
	"context"
	"net/http"
	"strings"

	"visleg/internal/admin/models"
	dErrors "visleg/pkg/domain-errors"
)

// Authenticator resolves a bearer token to its active user.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*models.AdminUser, error)
}

// bearerToken extracts the session token. Kiosk browsers strip custom
// headers in some embedded webviews, so three header spellings are accepted.
func bearerToken(r *http.Request) string {
	if token := r.Header.Get("X-Session-Id"); token != "" {
		return token
	}
	if token := r.Header.Get("X-Auth-Token"); token != "" {
		return token
	}
	auth := r.Header.Get("Authorization")
	if strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	return ""
}

// requireAuth authenticates the request and stores the principal in the
// context.
func requireAuth(auth Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, err := auth.Authenticate(r.Context(), bearerToken(r))
			if err != nil {
				writeError(w, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(withPrincipal(r.Context(), user)))
		})
	}
}

// requireCapability gates a subtree on one capability. Must run inside
// requireAuth.
func requireCapability(capability models.Capability, denied string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := principalFrom(r.Context())
			if user == nil || !user.Role.Can(capability) {
				writeError(w, dErrors.New(dErrors.CodeForbidden, denied))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
