package stoe

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"visleg/internal/platform/config"
	"visleg/internal/platform/metrics"
	"visleg/pkg/platform/sentinel"
	"visleg/pkg/requestcontext"
)

// TokenCache serves provider access tokens, preferring a non-expired cached
// token per scope and falling back to a fresh client-credentials grant.
//
// No retry: a single failed grant surfaces immediately. Concurrent cache
// misses may each perform a grant and each persist a token; duplicates are
// harmless and purged at expiry.
type TokenCache struct {
	store      TokenStore
	provider   config.ProviderConfig
	httpClient *http.Client
	logger     *slog.Logger
	metrics    *metrics.Metrics
}

func NewTokenCache(store TokenStore, provider config.ProviderConfig, logger *slog.Logger, m *metrics.Metrics) *TokenCache {
	return &TokenCache{
		store:      store,
		provider:   provider,
		httpClient: &http.Client{Timeout: provider.HTTPTimeout},
		logger:     logger,
		metrics:    m,
	}
}

// AccessToken returns a valid bearer token for the scope.
func (c *TokenCache) AccessToken(ctx context.Context, scope string) (string, error) {
	now := requestcontext.Now(ctx)

	cached, err := c.store.FindValid(ctx, scope, now)
	if err == nil {
		c.metrics.IncrementTokenCache(true)
		return cached.AccessToken, nil
	}
	if !errors.Is(err, sentinel.ErrNotFound) {
		return "", err
	}

	c.metrics.IncrementTokenCache(false)
	return c.grant(ctx, scope, now)
}

func (c *TokenCache) grant(ctx context.Context, scope string, now time.Time) (string, error) {
	if c.provider.ClientID == "" || c.provider.ClientSecret == "" {
		return "", ErrNotConfigured
	}

	grantCfg := clientcredentials.Config{
		ClientID:     c.provider.ClientID,
		ClientSecret: c.provider.ClientSecret,
		TokenURL:     c.provider.TokenURL,
		Scopes:       []string{scope},
	}

	grantCtx := context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
	tok, err := grantCfg.Token(grantCtx)
	if err != nil {
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) && retrieveErr.Response != nil {
			return "", &AuthError{Status: retrieveErr.Response.StatusCode, Body: string(retrieveErr.Body)}
		}
		return "", &AuthError{Body: err.Error()}
	}

	expiresAt := tok.Expiry
	if expiresAt.IsZero() {
		// Providers that omit expires_in get a conservative default.
		expiresAt = now.Add(5 * time.Minute)
	}

	cached := &Token{
		ID:          uuid.New(),
		AccessToken: tok.AccessToken,
		Scope:       scope,
		ExpiresAt:   expiresAt,
		CreatedAt:   now,
	}
	if err := c.store.Create(ctx, cached); err != nil {
		// The token itself is good; failing to cache it only costs an extra
		// grant next time.
		c.logger.WarnContext(ctx, "failed to cache provider token",
			"scope", scope,
			"error", err.Error(),
		)
	}

	return tok.AccessToken, nil
}

// PurgeExpired removes expired tokens. Called by the background worker.
func (c *TokenCache) PurgeExpired(ctx context.Context) (int, error) {
	return c.store.DeleteExpired(ctx, requestcontext.Now(ctx))
}
