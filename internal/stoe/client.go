package stoe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"visleg/internal/platform/config"
)

// Client calls the merchant verification API: it exchanges a QR session id
// for verified identity attributes using a bearer token from the TokenCache.
type Client struct {
	apiURL     string
	scope      string
	tokens     *TokenCache
	httpClient *http.Client
	logger     *slog.Logger
}

func NewClient(provider config.ProviderConfig, tokens *TokenCache, logger *slog.Logger) *Client {
	return &Client{
		apiURL:     provider.APIURL,
		scope:      provider.Scope,
		tokens:     tokens,
		httpClient: &http.Client{Timeout: provider.HTTPTimeout},
		logger:     logger,
	}
}

type sessionRequest struct {
	SessionID string `json:"sessionId"`
}

// VerifySession posts the session id to the merchant endpoint and returns
// the verified identity. 401 responses become *AuthError (fatal); other
// non-success responses become *APIError with status and raw body preserved
// for diagnostics.
func (c *Client) VerifySession(ctx context.Context, sessionID string) (*Identity, error) {
	token, err := c.tokens.AccessToken(ctx, c.scope)
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(sessionRequest{SessionID: sessionID})
	if err != nil {
		return nil, fmt.Errorf("marshal session request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL+"/api/merchant/session", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build session request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &APIError{Body: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		c.logger.WarnContext(ctx, "merchant api returned non-success",
			"status", resp.StatusCode,
			"body", string(body),
		)
		if resp.StatusCode == http.StatusUnauthorized {
			return nil, &AuthError{Status: resp.StatusCode, Body: string(body)}
		}
		return nil, &APIError{Status: resp.StatusCode, Body: string(body)}
	}

	var identity Identity
	if err := json.NewDecoder(resp.Body).Decode(&identity); err != nil {
		return nil, &APIError{Status: resp.StatusCode, Body: fmt.Sprintf("decode response: %v", err)}
	}
	return &identity, nil
}
