// Package service holds the admin use cases: authentication, organization
// and user lifecycle. Stores do I/O; authorization, tenant scoping and audit
// recording happen here.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"visleg/internal/admin/models"
	"visleg/internal/admin/secrets"
	"visleg/internal/admin/store/session"
	"visleg/internal/admin/store/user"
	"visleg/internal/platform/metrics"
	dErrors "visleg/pkg/domain-errors"
	"visleg/pkg/platform/sentinel"
	"visleg/pkg/requestcontext"
)

const (
	msgInvalidCredentials = "Invalid credentials"
	msgDeactivated        = "Your account has been deactivated. Please contact an administrator for assistance."
	msgInvalidSession     = "Invalid or expired session"
	msgInactivePrincipal  = "User not found or inactive"
)

// AuthService issues and checks opaque bearer sessions.
//
// Sessions live for a fixed TTL from login and are never renewed; an expired
// token forces a fresh login. Whether a deactivated user is cut off mid
// session is decided on every Authenticate call, not at login.
type AuthService struct {
	users    user.Store
	sessions session.Store
	ttl      time.Duration
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

func NewAuthService(users user.Store, sessions session.Store, ttl time.Duration, logger *slog.Logger, m *metrics.Metrics) *AuthService {
	return &AuthService{users: users, sessions: sessions, ttl: ttl, logger: logger, metrics: m}
}

// Login checks credentials and opens a session. Unknown username and wrong
// password are indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, username, password string) (string, *models.AdminUser, error) {
	if username == "" || password == "" {
		return "", nil, dErrors.New(dErrors.CodeBadRequest, "Username and password are required")
	}

	principal, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			s.metrics.IncrementLogin("invalid_credentials")
			return "", nil, dErrors.New(dErrors.CodeUnauthorized, msgInvalidCredentials)
		}
		return "", nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up user")
	}

	if !principal.IsActive {
		s.metrics.IncrementLogin("deactivated")
		return "", nil, dErrors.New(dErrors.CodeUnauthorized, msgDeactivated)
	}

	if err := secrets.VerifyPassword(password, principal.PasswordHash); err != nil {
		s.metrics.IncrementLogin("invalid_credentials")
		return "", nil, dErrors.New(dErrors.CodeUnauthorized, msgInvalidCredentials)
	}

	token, err := secrets.GenerateToken()
	if err != nil {
		return "", nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to generate session token")
	}

	now := requestcontext.Now(ctx)
	sess := &models.Session{
		Token:     token,
		UserID:    principal.ID,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}
	if err := s.sessions.Create(ctx, sess); err != nil {
		return "", nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to store session")
	}

	// Last login is informational; a write failure must not fail the login.
	if err := s.users.UpdateLastLogin(ctx, principal.ID, now); err != nil {
		s.logger.WarnContext(ctx, "failed to record last login",
			"request_id", requestcontext.RequestID(ctx),
			"user_id", principal.ID,
			"error", err,
		)
	}

	s.metrics.IncrementLogin("success")
	s.logger.InfoContext(ctx, "admin login",
		"request_id", requestcontext.RequestID(ctx),
		"user_id", principal.ID,
		"username", principal.Username,
		"role", principal.Role,
	)
	return token, principal, nil
}

// Logout drops the session. Unknown tokens log out successfully.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := s.sessions.Delete(ctx, token); err != nil && !errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete session")
	}
	return nil
}

// Authenticate resolves a bearer token to its active user. Expired sessions
// are deleted on sight.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*models.AdminUser, error) {
	if token == "" {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "Authentication required")
	}

	sess, err := s.sessions.Find(ctx, token)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) || errors.Is(err, sentinel.ErrExpired) {
			return nil, dErrors.New(dErrors.CodeUnauthorized, msgInvalidSession)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up session")
	}

	if sess.Expired(requestcontext.Now(ctx)) {
		if err := s.sessions.Delete(ctx, token); err != nil && !errors.Is(err, sentinel.ErrNotFound) {
			s.logger.WarnContext(ctx, "failed to delete expired session", "error", err)
		}
		return nil, dErrors.New(dErrors.CodeUnauthorized, msgInvalidSession)
	}

	principal, err := s.users.FindByID(ctx, sess.UserID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeUnauthorized, msgInactivePrincipal)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up user")
	}
	if !principal.IsActive {
		return nil, dErrors.New(dErrors.CodeUnauthorized, msgInactivePrincipal)
	}
	return principal, nil
}

// SweepExpired bulk-deletes expired sessions. Called by the background
// worker; a no-op for backings with native TTLs.
func (s *AuthService) SweepExpired(ctx context.Context) (int, error) {
	return s.sessions.DeleteExpired(ctx, time.Now())
}
