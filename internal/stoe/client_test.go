package stoe

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"visleg/internal/platform/config"
)

// staticTokenCache avoids a token endpoint round trip in client tests.
func staticTokenCache(t *testing.T, token string) *TokenCache {
	t.Helper()
	store := NewInMemoryTokenStore()
	require.NoError(t, store.Create(context.Background(), &Token{
		AccessToken: token,
		Scope:       "vis-leg/identity_picture_age",
		ExpiresAt:   time.Now().Add(time.Hour),
	}))
	return NewTokenCache(store, config.ProviderConfig{ClientID: "x", ClientSecret: "y", HTTPTimeout: 5 * time.Second}, testLogger(), nil)
}

func merchantClient(srvURL string, tokens *TokenCache) *Client {
	return NewClient(config.ProviderConfig{
		APIURL:      srvURL,
		Scope:       "vis-leg/identity_picture_age",
		HTTPTimeout: 5 * time.Second,
	}, tokens, testLogger())
}

func TestVerifySessionSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/merchant/session", r.URL.Path)
		assert.Equal(t, "Bearer tok-abc", r.Header.Get("Authorization"))

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "VisLeg-xyz123", body["sessionId"])

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"firstName":"EDGAR","lastName":"HETLAND","documentPhoto":"b64","age":43}`))
	}))
	defer srv.Close()

	client := merchantClient(srv.URL, staticTokenCache(t, "tok-abc"))

	identity, err := client.VerifySession(context.Background(), "VisLeg-xyz123")
	require.NoError(t, err)
	assert.Equal(t, &Identity{FirstName: "EDGAR", LastName: "HETLAND", DocumentPhoto: "b64", Age: 43}, identity)
}

func TestVerifySessionUnauthorizedIsFatal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "invalid token", http.StatusUnauthorized)
	}))
	defer srv.Close()

	client := merchantClient(srv.URL, staticTokenCache(t, "tok-abc"))

	_, err := client.VerifySession(context.Background(), "VisLeg-xyz123")
	require.Error(t, err)

	var authErr *AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, http.StatusUnauthorized, authErr.Status)
	assert.True(t, IsFatal(err))
}

func TestVerifySessionRejectionCarriesStatusAndBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "session not found", http.StatusBadRequest)
	}))
	defer srv.Close()

	client := merchantClient(srv.URL, staticTokenCache(t, "tok-abc"))

	_, err := client.VerifySession(context.Background(), "VisLeg-nope")
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Contains(t, apiErr.Body, "session not found")
	assert.False(t, IsFatal(err))
}

func TestVerifySessionNetworkErrorIsNotFatal(t *testing.T) {
	client := merchantClient("http://127.0.0.1:1", staticTokenCache(t, "tok-abc"))

	_, err := client.VerifySession(context.Background(), "VisLeg-xyz123")
	require.Error(t, err)
	assert.False(t, IsFatal(err))
}
