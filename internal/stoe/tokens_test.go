package stoe

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"visleg/internal/platform/config"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func tokenEndpoint(t *testing.T, calls *atomic.Int32, status int, body string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "client_credentials", r.PostForm.Get("grant_type"))

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
}

func providerConfig(tokenURL string) config.ProviderConfig {
	return config.ProviderConfig{
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		TokenURL:     tokenURL,
		Scope:        "vis-leg/identity_picture_age",
		HTTPTimeout:  5 * time.Second,
	}
}

func TestAccessTokenGrantsAndCaches(t *testing.T) {
	var calls atomic.Int32
	srv := tokenEndpoint(t, &calls, http.StatusOK,
		`{"access_token":"tok-abc","token_type":"Bearer","expires_in":600,"scope":"vis-leg/identity_picture_age"}`)
	defer srv.Close()

	store := NewInMemoryTokenStore()
	cache := NewTokenCache(store, providerConfig(srv.URL), testLogger(), nil)

	ctx := context.Background()
	token, err := cache.AccessToken(ctx, "vis-leg/identity_picture_age")
	require.NoError(t, err)
	assert.Equal(t, "tok-abc", token)
	assert.Equal(t, int32(1), calls.Load())

	// Second lookup is served from the cache.
	token, err = cache.AccessToken(ctx, "vis-leg/identity_picture_age")
	require.NoError(t, err)
	assert.Equal(t, "tok-abc", token)
	assert.Equal(t, int32(1), calls.Load())
}

func TestAccessTokenCacheIsScopedPerScope(t *testing.T) {
	var calls atomic.Int32
	srv := tokenEndpoint(t, &calls, http.StatusOK,
		`{"access_token":"tok-abc","token_type":"Bearer","expires_in":600}`)
	defer srv.Close()

	cache := NewTokenCache(NewInMemoryTokenStore(), providerConfig(srv.URL), testLogger(), nil)

	ctx := context.Background()
	_, err := cache.AccessToken(ctx, "scope-a")
	require.NoError(t, err)
	_, err = cache.AccessToken(ctx, "scope-b")
	require.NoError(t, err)

	assert.Equal(t, int32(2), calls.Load())
}

func TestAccessTokenFailsWithoutCredentials(t *testing.T) {
	cfg := providerConfig("http://localhost:0")
	cfg.ClientID = ""
	cache := NewTokenCache(NewInMemoryTokenStore(), cfg, testLogger(), nil)

	_, err := cache.AccessToken(context.Background(), "scope")
	require.ErrorIs(t, err, ErrNotConfigured)
	assert.True(t, IsFatal(err))
}

func TestAccessTokenGrantRejectionIsFatal(t *testing.T) {
	var calls atomic.Int32
	srv := tokenEndpoint(t, &calls, http.StatusUnauthorized, `{"error":"invalid_client"}`)
	defer srv.Close()

	cache := NewTokenCache(NewInMemoryTokenStore(), providerConfig(srv.URL), testLogger(), nil)

	_, err := cache.AccessToken(context.Background(), "scope")
	require.Error(t, err)

	var authErr *AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, http.StatusUnauthorized, authErr.Status)
	assert.True(t, IsFatal(err))
}

func TestPurgeExpired(t *testing.T) {
	store := NewInMemoryTokenStore()
	now := time.Now()
	require.NoError(t, store.Create(context.Background(), &Token{AccessToken: "old", Scope: "s", ExpiresAt: now.Add(-time.Minute)}))
	require.NoError(t, store.Create(context.Background(), &Token{AccessToken: "new", Scope: "s", ExpiresAt: now.Add(time.Hour)}))

	cache := NewTokenCache(store, providerConfig("unused"), testLogger(), nil)
	removed, err := cache.PurgeExpired(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	token, err := store.FindValid(context.Background(), "s", now)
	require.NoError(t, err)
	assert.Equal(t, "new", token.AccessToken)
}
