package httptransport

import (
	"context"

	"visleg/internal/admin/models"
)

type principalKey struct{}

func withPrincipal(ctx context.Context, user *models.AdminUser) context.Context {
	return context.WithValue(ctx, principalKey{}, user)
}

// principalFrom returns the authenticated user, or nil outside the auth
// middleware.
func principalFrom(ctx context.Context) *models.AdminUser {
	user, _ := ctx.Value(principalKey{}).(*models.AdminUser)
	return user
}
