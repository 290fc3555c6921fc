package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hnamyud/bookingclient/core/storage"
	"github.com/hnamyud/bookingclient/pkg/logger"
)

// CSRFHeader is the request header carrying the anti-forgery token on
// mutating calls.
const CSRFHeader = "x-csrf-token"

// Client is the session transport: it owns the anti-forgery token state and
// performs every outbound call with the HttpOnly cookie attached. One Client
// is constructed per application instance and shared; there is no package
// level state.
type Client struct {
	cfg        Config
	baseURL    *url.URL
	httpClient *http.Client
	store      storage.Storage
	log        *slog.Logger
	metrics    *clientMetrics

	mu            sync.Mutex
	csrfToken     string
	authenticated bool
}

// New creates a transport client. The underlying HTTP client always carries
// a cookie jar so the backend's HttpOnly refresh cookie survives between
// calls.
func New(cfg Config, opts ...Option) (*Client, error) {
	baseURL, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("transport: invalid base URL %q: %w", cfg.BaseURL, err)
	}
	if baseURL.Scheme == "" || baseURL.Host == "" {
		return nil, fmt.Errorf("transport: base URL %q must be absolute", cfg.BaseURL)
	}

	c := &Client{
		cfg:     cfg,
		baseURL: baseURL,
		log:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.log = c.log.With(logger.Component("session-transport"))

	if c.httpClient == nil {
		c.httpClient = &http.Client{Timeout: cfg.RequestTimeout}
	}
	if c.httpClient.Jar == nil {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, fmt.Errorf("transport: cookie jar: %w", err)
		}
		c.httpClient.Jar = jar
	}

	return c, nil
}

// Response is the raw outcome of a successful request. Body is nil for
// 204 No Content.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Request is the single choke point for all network I/O. It ensures an
// anti-forgery token is held (best effort), builds headers, attaches the
// CSRF header on mutating verbs and the bearer token when one is stored,
// sends the request with the shared cookie jar, and normalizes failures
// into *RequestError.
func (c *Client) Request(ctx context.Context, method, path string, body any, opts ...RequestOption) (*Response, error) {
	c.EnsureCSRFToken(ctx)

	var reqOpts requestOptions
	for _, opt := range opts {
		opt(&reqOpts)
	}
	if reqOpts.detached {
		ctx = context.WithoutCancel(ctx)
	}

	reqID := uuid.NewString()
	req, err := c.newRequest(ctx, method, path, body, reqOpts, reqID)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.observe(method, 0, time.Since(start))
		c.log.Error("request transport failure",
			logger.Method(method), logger.URL(req.URL.String()), logger.RequestID(reqID), logger.Error(err))
		return nil, &RequestError{Message: fmt.Sprintf("Request failed: %v", err), cause: err}
	}
	defer resp.Body.Close() //nolint:errcheck

	respBody, err := io.ReadAll(resp.Body)
	c.metrics.observe(method, resp.StatusCode, time.Since(start))
	if err != nil {
		return nil, &RequestError{Status: resp.StatusCode, Message: fmt.Sprintf("Request failed with status %d", resp.StatusCode), cause: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		reqErr := newStatusError(resp.StatusCode, respBody)
		c.log.Warn("request rejected",
			logger.Method(method), logger.URL(req.URL.String()),
			logger.StatusCode(resp.StatusCode), logger.RequestID(reqID))
		return nil, reqErr
	}

	if resp.StatusCode == http.StatusNoContent {
		return &Response{StatusCode: resp.StatusCode, Header: resp.Header}, nil
	}
	return &Response{StatusCode: resp.StatusCode, Header: resp.Header, Body: respBody}, nil
}

// Do performs a request and decodes the JSON response into T. A 204 or
// empty body yields (nil, nil). An undecodable body on a successful response
// is a *RequestError, not a silent nil.
func Do[T any](ctx context.Context, c *Client, method, path string, body any, opts ...RequestOption) (*T, error) {
	resp, err := c.Request(ctx, method, path, body, opts...)
	if err != nil {
		return nil, err
	}
	if len(resp.Body) == 0 {
		return nil, nil
	}

	var out T
	if err := json.Unmarshal(resp.Body, &out); err != nil {
		return nil, &RequestError{
			Status:  resp.StatusCode,
			Message: fmt.Sprintf("invalid JSON in response with status %d", resp.StatusCode),
			cause:   err,
		}
	}
	return &out, nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, body any, reqOpts requestOptions, reqID string) (*http.Request, error) {
	form, isForm := body.(*Form)

	var reader io.Reader
	switch {
	case body == nil:
	case isForm:
		r, err := form.reader()
		if err != nil {
			return nil, fmt.Errorf("transport: encode form: %w", err)
		}
		reader = r
	default:
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("transport: encode body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.resolve(path), reader)
	if err != nil {
		return nil, fmt.Errorf("transport: build request: %w", err)
	}

	if isForm {
		req.Header.Set("Content-Type", form.ContentType())
	} else {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-Id", reqID)

	if isMutating(method) {
		if token := c.CSRFToken(); token != "" {
			req.Header.Set(CSRFHeader, token)
		} else {
			c.log.Warn("mutating request sent without csrf token",
				logger.Method(method), logger.URL(req.URL.String()), logger.RequestID(reqID))
		}
	}

	if c.store != nil && !reqOpts.noBearer {
		if token, err := c.store.Get(ctx, storage.KeyAccessToken); err == nil && token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	// Caller headers win, including over Content-Type and Authorization.
	for key, values := range reqOpts.headers {
		req.Header.Del(key)
		for _, value := range values {
			req.Header.Add(key, value)
		}
	}

	return req, nil
}

func (c *Client) resolve(path string) string {
	if strings.Contains(path, "://") {
		return path
	}
	ref, err := url.Parse(path)
	if err != nil {
		return c.baseURL.JoinPath(path).String()
	}
	return c.baseURL.ResolveReference(ref).String()
}

func isMutating(method string) bool {
	switch strings.ToUpper(method) {
	case http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodPatch:
		return true
	}
	return false
}

// HTTPClient exposes the underlying HTTP client so the session store can
// reach the refresh endpoint through the same cookie jar.
func (c *Client) HTTPClient() *http.Client {
	return c.httpClient
}

// BaseURL returns the configured API origin.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// Config returns the transport configuration.
func (c *Client) Config() Config {
	return c.cfg
}

// IsAuthenticated reports the transport's local view of the session. It is
// set by Login and cleared by Logout; the session store holds the richer
// observable state.
func (c *Client) IsAuthenticated() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.authenticated
}

func (c *Client) setAuthenticated(v bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.authenticated = v
}
