package transport

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/hnamyud/bookingclient/pkg/logger"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login authenticates against the backend. The response shape is
// backend-defined and returned raw for the caller to interpret. On success
// the transport marks itself authenticated and unconditionally replaces the
// anti-forgery token, since the pre-login token died with the old privilege
// level. On failure the authenticated flag is untouched and the error is
// returned after logging.
func (c *Client) Login(ctx context.Context, email, password string) (json.RawMessage, error) {
	resp, err := c.Request(ctx, http.MethodPost, c.cfg.LoginPath, loginRequest{Email: email, Password: password})
	if err != nil {
		c.log.Error("login failed", logger.Error(err))
		return nil, err
	}

	c.setAuthenticated(true)
	c.refreshCSRFToken(ctx)

	return json.RawMessage(resp.Body), nil
}

// Logout tells the backend to invalidate the refresh cookie. The request is
// detached from the caller's cancellation so teardown does not abort it,
// and any failure is tolerated: the backend's own cookie expiry is the
// backstop. Regardless of outcome, the local authenticated flag is cleared
// and a guest anti-forgery token is fetched so an immediate re-login works.
func (c *Client) Logout(ctx context.Context) {
	defer func() {
		c.setAuthenticated(false)
		c.refreshCSRFToken(context.WithoutCancel(ctx))
	}()

	if _, err := c.Request(ctx, http.MethodPost, c.cfg.LogoutPath, nil, WithDetached()); err != nil {
		c.log.Warn("logout request failed", logger.Error(err))
	}
}
