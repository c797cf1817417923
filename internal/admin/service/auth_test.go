package service

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"visleg/internal/admin/models"
	"visleg/internal/admin/secrets"
	"visleg/internal/admin/store/session"
	"visleg/internal/admin/store/user"
	dErrors "visleg/pkg/domain-errors"
	"visleg/pkg/requestcontext"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func seedUser(t *testing.T, users user.Store, username, password string, role models.Role, active bool) *models.AdminUser {
	t.Helper()
	hash, err := secrets.HashPassword(password)
	require.NoError(t, err)
	u, err := models.NewAdminUser(username, hash, uuid.New(), role, time.Now())
	require.NoError(t, err)
	u.IsActive = active
	require.NoError(t, users.Create(context.Background(), u))
	return u
}

func newAuthService(t *testing.T) (*AuthService, user.Store, session.Store) {
	t.Helper()
	users := user.NewInMemory()
	sessions := session.NewInMemory()
	return NewAuthService(users, sessions, 24*time.Hour, discardLogger(), nil), users, sessions
}

func TestAuthService_Login(t *testing.T) {
	svc, users, _ := newAuthService(t)
	seeded := seedUser(t, users, "kari", "hunter2secret", models.RoleOrgAdmin, true)

	t.Run("success", func(t *testing.T) {
		token, principal, err := svc.Login(context.Background(), "kari", "hunter2secret")
		require.NoError(t, err)
		assert.NotEmpty(t, token)
		assert.Equal(t, seeded.ID, principal.ID)

		// Last login is recorded.
		reloaded, err := users.FindByID(context.Background(), seeded.ID)
		require.NoError(t, err)
		assert.NotNil(t, reloaded.LastLogin)
	})

	t.Run("unknown user and wrong password are indistinguishable", func(t *testing.T) {
		_, _, errUnknown := svc.Login(context.Background(), "nobody", "whatever")
		_, _, errWrongPw := svc.Login(context.Background(), "kari", "wrong")

		assert.Equal(t, dErrors.CodeUnauthorized, dErrors.CodeOf(errUnknown))
		assert.Equal(t, dErrors.CodeUnauthorized, dErrors.CodeOf(errWrongPw))
		assert.Equal(t, dErrors.MessageOf(errUnknown), dErrors.MessageOf(errWrongPw))
		assert.Equal(t, "Invalid credentials", dErrors.MessageOf(errUnknown))
	})

	t.Run("deactivated user gets a distinct message", func(t *testing.T) {
		seedUser(t, users, "gone", "hunter2secret", models.RoleUser, false)
		_, _, err := svc.Login(context.Background(), "gone", "hunter2secret")
		assert.Equal(t, dErrors.CodeUnauthorized, dErrors.CodeOf(err))
		assert.Equal(t,
			"Your account has been deactivated. Please contact an administrator for assistance.",
			dErrors.MessageOf(err))
	})

	t.Run("missing fields rejected", func(t *testing.T) {
		_, _, err := svc.Login(context.Background(), "", "pw")
		assert.Equal(t, dErrors.CodeBadRequest, dErrors.CodeOf(err))
	})
}

func TestAuthService_Authenticate(t *testing.T) {
	svc, users, sessions := newAuthService(t)
	seeded := seedUser(t, users, "kari", "hunter2secret", models.RoleAdmin, true)

	token, _, err := svc.Login(context.Background(), "kari", "hunter2secret")
	require.NoError(t, err)

	t.Run("valid token resolves the user", func(t *testing.T) {
		principal, err := svc.Authenticate(context.Background(), token)
		require.NoError(t, err)
		assert.Equal(t, seeded.ID, principal.ID)
	})

	t.Run("empty token", func(t *testing.T) {
		_, err := svc.Authenticate(context.Background(), "")
		assert.Equal(t, dErrors.CodeUnauthorized, dErrors.CodeOf(err))
		assert.Equal(t, "Authentication required", dErrors.MessageOf(err))
	})

	t.Run("unknown token", func(t *testing.T) {
		_, err := svc.Authenticate(context.Background(), "bogus")
		assert.Equal(t, "Invalid or expired session", dErrors.MessageOf(err))
	})

	t.Run("expired session is rejected and removed", func(t *testing.T) {
		later := requestcontext.WithTime(context.Background(), time.Now().Add(25*time.Hour))
		_, err := svc.Authenticate(later, token)
		assert.Equal(t, "Invalid or expired session", dErrors.MessageOf(err))

		// The expired session was deleted, not merely rejected.
		_, err = sessions.Find(context.Background(), token)
		assert.Error(t, err)
	})

	t.Run("deactivated user is cut off mid-session", func(t *testing.T) {
		token, _, err := svc.Login(context.Background(), "kari", "hunter2secret")
		require.NoError(t, err)

		seeded.ApplyDeactivation(time.Now())
		require.NoError(t, users.Update(context.Background(), seeded))

		_, err = svc.Authenticate(context.Background(), token)
		assert.Equal(t, "User not found or inactive", dErrors.MessageOf(err))
	})
}

func TestAuthService_Logout(t *testing.T) {
	svc, users, sessions := newAuthService(t)
	seedUser(t, users, "kari", "hunter2secret", models.RoleUser, true)

	token, _, err := svc.Login(context.Background(), "kari", "hunter2secret")
	require.NoError(t, err)

	require.NoError(t, svc.Logout(context.Background(), token))
	_, err = sessions.Find(context.Background(), token)
	assert.Error(t, err)

	// Logging out twice, or with an unknown token, is fine.
	assert.NoError(t, svc.Logout(context.Background(), token))
	assert.NoError(t, svc.Logout(context.Background(), ""))
}

func TestAuthService_SweepExpired(t *testing.T) {
	svc, users, sessions := newAuthService(t)
	seedUser(t, users, "kari", "hunter2secret", models.RoleUser, true)

	past := requestcontext.WithTime(context.Background(), time.Now().Add(-48*time.Hour))
	staleToken, _, err := svc.Login(past, "kari", "hunter2secret")
	require.NoError(t, err)
	freshToken, _, err := svc.Login(context.Background(), "kari", "hunter2secret")
	require.NoError(t, err)

	removed, err := svc.SweepExpired(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	_, err = sessions.Find(context.Background(), staleToken)
	assert.Error(t, err)
	_, err = sessions.Find(context.Background(), freshToken)
	assert.NoError(t, err)
}
