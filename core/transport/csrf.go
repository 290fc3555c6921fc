package transport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/hnamyud/bookingclient/pkg/logger"
)

// The anti-forgery token is a freshness check, not a capability secret:
// concurrent first-time callers may both fetch one, and the last response
// to land wins. Issuance is deliberately not single-flighted.

// EnsureCSRFToken fetches an anti-forgery token if none is held. Failures
// are logged, never returned: subsequent mutating calls simply go out
// without the header and the backend decides whether to reject them.
func (c *Client) EnsureCSRFToken(ctx context.Context) {
	if c.CSRFToken() != "" {
		return
	}
	c.refreshCSRFToken(ctx)
}

// refreshCSRFToken unconditionally replaces the held token. Login and
// logout call it directly: once the session's privilege level changes, the
// previous token is no longer valid.
func (c *Client) refreshCSRFToken(ctx context.Context) {
	token, err := c.fetchCSRFToken(ctx)
	if err != nil {
		c.log.Warn("proceeding without csrf token", logger.Error(errors.Join(ErrTokenIssuance, err)))
		return
	}
	c.setCSRFToken(token)
}

func (c *Client) fetchCSRFToken(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.resolve(c.cfg.CSRFTokenPath), nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("token endpoint returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	var payload struct {
		CSRFToken string `json:"csrfToken"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", fmt.Errorf("decode token response: %w", err)
	}
	if payload.CSRFToken == "" {
		return "", errors.New("token endpoint returned empty token")
	}
	return payload.CSRFToken, nil
}

// CSRFToken returns the currently held anti-forgery token, or "" when none
// has been issued yet. Tokens are never persisted; every process start
// begins without one.
func (c *Client) CSRFToken() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.csrfToken
}

func (c *Client) setCSRFToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.csrfToken = token
}
