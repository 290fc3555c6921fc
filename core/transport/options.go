package transport

import (
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/hnamyud/bookingclient/core/storage"
)

// Option is a functional option for configuring the client.
type Option func(*Client)

// WithLogger sets the structured logger. Defaults to slog.Default().
func WithLogger(log *slog.Logger) Option {
	return func(c *Client) {
		if log != nil {
			c.log = log
		}
	}
}

// WithHTTPClient replaces the underlying HTTP client. A cookie jar is
// installed if the provided client lacks one: the HttpOnly refresh cookie
// must travel on every request, and that policy is not overridable.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		if httpClient != nil {
			c.httpClient = httpClient
		}
	}
}

// WithStorage attaches the durable store holding the bearer access token.
// When set, authenticated requests carry an Authorization header whenever a
// token is held.
func WithStorage(store storage.Storage) Option {
	return func(c *Client) {
		c.store = store
	}
}

// WithMetrics registers Prometheus collectors for request counts and
// latencies on the given registerer.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(c *Client) {
		if reg != nil {
			c.metrics = newMetrics(reg)
		}
	}
}

// RequestOption configures a single request.
type RequestOption func(*requestOptions)

type requestOptions struct {
	headers  http.Header
	detached bool
	noBearer bool
}

// WithHeader adds a header to the request. Caller headers win over the
// transport's defaults, including Content-Type.
func WithHeader(key, value string) RequestOption {
	return func(o *requestOptions) {
		if o.headers == nil {
			o.headers = http.Header{}
		}
		o.headers.Set(key, value)
	}
}

// WithDetached decouples the request from the caller's context cancellation
// so it completes even if the caller is being torn down. Used for the logout
// call, which must outlive whatever triggered it.
func WithDetached() RequestOption {
	return func(o *requestOptions) {
		o.detached = true
	}
}

// WithoutBearer suppresses the automatic Authorization header for this
// request even when an access token is held in storage.
func WithoutBearer() RequestOption {
	return func(o *requestOptions) {
		o.noBearer = true
	}
}
