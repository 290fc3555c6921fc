package authstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/hnamyud/bookingclient/core/storage"
	"github.com/hnamyud/bookingclient/core/transport"
	"github.com/hnamyud/bookingclient/pkg/async"
	"github.com/hnamyud/bookingclient/pkg/jwt"
	"github.com/hnamyud/bookingclient/pkg/logger"
)

// Store is the single source of truth for who is logged in and with what
// privileges. It is the sole writer of the durable session snapshot;
// observers subscribe and must not touch storage directly.
type Store struct {
	client   *transport.Client
	store    storage.Storage
	log      *slog.Logger
	navigate func(path string)

	mu      sync.RWMutex
	state   State
	session Session
	subs    map[int]func(Session)
	nextSub int
}

// Option is a functional option for configuring the store.
type Option func(*Store)

// WithLogger sets the structured logger. Defaults to slog.Default().
func WithLogger(log *slog.Logger) Option {
	return func(s *Store) {
		if log != nil {
			s.log = log
		}
	}
}

// WithNavigator installs the hook invoked with "/" after logout clears the
// local state. In the original UI this was a soft history update; embedders
// supply whatever "go home" means for them. Defaults to a no-op.
func WithNavigator(fn func(path string)) Option {
	return func(s *Store) {
		if fn != nil {
			s.navigate = fn
		}
	}
}

// New creates a session store on top of the transport and durable storage.
func New(client *transport.Client, store storage.Storage, opts ...Option) (*Store, error) {
	if client == nil {
		return nil, errors.New("authstore: transport client is required")
	}
	if store == nil {
		return nil, errors.New("authstore: storage is required")
	}

	s := &Store{
		client:   client,
		store:    store,
		log:      slog.Default(),
		navigate: func(string) {},
		subs:     make(map[int]func(Session)),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.With(logger.Component("session-store"))

	return s, nil
}

// Subscribe registers fn to be called synchronously with the new snapshot
// on every session transition. The returned function unsubscribes.
func (s *Store) Subscribe(fn func(Session)) func() {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

// Session returns the current snapshot.
func (s *Store) Session() Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session
}

// State returns the current lifecycle state.
func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// IsAuthenticated reports whether a live session is held.
func (s *Store) IsAuthenticated() bool {
	return s.Session().IsAuthenticated
}

// TokenExpiresAt returns the expiry of the held access token, when the
// token is a decodable JWT with an exp claim.
func (s *Store) TokenExpiresAt() (time.Time, bool) {
	token := s.Session().AccessToken
	if token == "" {
		return time.Time{}, false
	}
	exp, err := jwt.ExpiresAt(token)
	if err != nil {
		return time.Time{}, false
	}
	return exp, true
}

// Login records a completed authentication: a pure transition, no network
// call (the transport already performed it). The full role snapshot is
// persisted so a later process start can rehydrate privileges, and
// subscribers are notified synchronously. Storage failures are logged; the
// in-memory transition always happens.
func (s *Store) Login(ctx context.Context, accessToken string, user json.RawMessage, isAdmin, isModerator bool, adminPermissions []string) {
	s.persistSnapshot(ctx, accessToken, user)
	s.persistRoles(ctx, isAdmin, isModerator, adminPermissions)

	session := Session{
		IsAuthenticated:  true,
		User:             user,
		AccessToken:      accessToken,
		IsAdmin:          isAdmin,
		IsModerator:      isModerator,
		AdminPermissions: adminPermissions,
	}
	s.transition(StateAuthenticated, session)
	s.log.Info("session established", logger.Event("login"))
}

// Logout ends the session optimistically: storage is cleared and the state
// becomes Anonymous before the network call resolves, so the caller's UI is
// never stuck waiting on a slow backend. After the local transition the
// navigator hook fires for "/" and the transport logout runs as a detached
// task; its outcome is only logged. The returned future lets callers that
// care await the backend call. Safe to call when already anonymous.
func (s *Store) Logout(ctx context.Context) *async.Future {
	if err := storage.ClearSession(ctx, s.store); err != nil {
		s.log.Warn("failed to clear session storage", logger.Error(err))
	}
	s.transition(StateAnonymous, Session{})
	s.log.Info("session cleared", logger.Event("logout"))

	s.navigate("/")

	return async.Exec(context.WithoutCancel(ctx), func(ctx context.Context) error {
		s.client.Logout(ctx)
		return nil
	})
}

// Init runs the silent re-authentication protocol, once per process start.
// It asks the refresh endpoint for a new access token on the strength of
// the HttpOnly cookie alone. Exactly status 200 authenticates; any other
// status, network error, or undecodable body lands in Anonymous with
// storage cleared: "cookie absent", "cookie expired", and "server down"
// are indistinguishable by design. Init never returns an error, only the
// resulting snapshot.
//
// Role flags are rehydrated from durable storage, not re-derived from the
// server: a privilege revoked server-side stays visible locally until the
// next full login. Accepted trust boundary.
func (s *Store) Init(ctx context.Context) Session {
	s.setState(StateAuthenticating)

	accessToken, user, err := s.refresh(ctx)
	if err != nil {
		s.log.Info("silent re-authentication failed", logger.Error(err))
		if clearErr := storage.ClearSession(ctx, s.store); clearErr != nil {
			s.log.Warn("failed to clear session storage", logger.Error(clearErr))
		}
		s.transition(StateAnonymous, Session{})
		return s.Session()
	}

	isAdmin, isModerator, adminPermissions := s.rehydrateRoles(ctx)
	s.persistSnapshot(ctx, accessToken, user)

	session := Session{
		IsAuthenticated:  true,
		User:             user,
		AccessToken:      accessToken,
		IsAdmin:          isAdmin,
		IsModerator:      isModerator,
		AdminPermissions: adminPermissions,
	}
	s.transition(StateAuthenticated, session)
	s.log.Info("session restored", logger.Event("refresh"))
	return session
}

// refresh performs the credentialed GET against the refresh endpoint using
// the transport's HTTP client, so the request rides the same cookie jar.
// No token of any kind is attached manually.
func (s *Store) refresh(ctx context.Context) (accessToken string, user json.RawMessage, err error) {
	refreshURL, err := url.JoinPath(s.client.BaseURL(), s.client.Config().RefreshPath)
	if err != nil {
		return "", nil, fmt.Errorf("authstore: refresh URL: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, refreshURL, nil)
	if err != nil {
		return "", nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.HTTPClient().Do(req)
	if err != nil {
		return "", nil, err
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return "", nil, fmt.Errorf("authstore: refresh returned status %d", resp.StatusCode)
	}

	var payload struct {
		Data struct {
			AccessToken string          `json:"access_token"`
			User        json.RawMessage `json:"user"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", nil, fmt.Errorf("authstore: decode refresh response: %w", err)
	}
	if payload.Data.AccessToken == "" {
		return "", nil, errors.New("authstore: refresh response missing access token")
	}

	return payload.Data.AccessToken, payload.Data.User, nil
}

// rehydrateRoles reads the cached role flags. Missing or corrupt values
// degrade to no privileges; the flags are not force-cleared here even when
// stale, matching the documented storage-rehydration inconsistency.
func (s *Store) rehydrateRoles(ctx context.Context) (isAdmin, isModerator bool, adminPermissions []string) {
	if raw, err := s.store.Get(ctx, storage.KeyIsAdmin); err == nil {
		isAdmin, _ = strconv.ParseBool(raw)
	}
	if raw, err := s.store.Get(ctx, storage.KeyIsModerator); err == nil {
		isModerator, _ = strconv.ParseBool(raw)
	}
	if raw, err := s.store.Get(ctx, storage.KeyAdminPermissions); err == nil {
		if err := json.Unmarshal([]byte(raw), &adminPermissions); err != nil {
			s.log.Warn("corrupt admin permissions in storage", logger.Error(err))
		}
	}
	return isAdmin, isModerator, adminPermissions
}

func (s *Store) persistSnapshot(ctx context.Context, accessToken string, user json.RawMessage) {
	if err := s.store.Set(ctx, storage.KeyAccessToken, accessToken); err != nil {
		s.log.Warn("failed to persist access token", logger.Error(err))
	}
	if err := s.store.Set(ctx, storage.KeyUser, string(user)); err != nil {
		s.log.Warn("failed to persist user identity", logger.Error(err))
	}
}

func (s *Store) persistRoles(ctx context.Context, isAdmin, isModerator bool, adminPermissions []string) {
	if err := s.store.Set(ctx, storage.KeyIsAdmin, strconv.FormatBool(isAdmin)); err != nil {
		s.log.Warn("failed to persist admin flag", logger.Error(err))
	}
	if err := s.store.Set(ctx, storage.KeyIsModerator, strconv.FormatBool(isModerator)); err != nil {
		s.log.Warn("failed to persist moderator flag", logger.Error(err))
	}
	perms, err := json.Marshal(adminPermissions)
	if err != nil {
		s.log.Warn("failed to encode admin permissions", logger.Error(err))
		return
	}
	if err := s.store.Set(ctx, storage.KeyAdminPermissions, string(perms)); err != nil {
		s.log.Warn("failed to persist admin permissions", logger.Error(err))
	}
}

// transition swaps the state and snapshot, then notifies subscribers
// synchronously outside the lock.
func (s *Store) transition(state State, session Session) {
	s.mu.Lock()
	s.state = state
	s.session = session
	subs := make([]func(Session), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.mu.Unlock()

	for _, fn := range subs {
		fn(session)
	}
}

// setState changes only the lifecycle state. The transient Authenticating
// state is visible through State() but does not notify subscribers, since
// the snapshot itself has not changed yet.
func (s *Store) setState(state State) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
}
