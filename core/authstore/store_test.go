package authstore_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hnamyud/bookingclient/core/authstore"
	"github.com/hnamyud/bookingclient/core/storage"
	"github.com/hnamyud/bookingclient/core/transport"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestStore(t *testing.T, serverURL string, store storage.Storage, opts ...authstore.Option) *authstore.Store {
	t.Helper()

	cfg := transport.DefaultConfig()
	cfg.BaseURL = serverURL

	client, err := transport.New(cfg, transport.WithLogger(testLogger()), transport.WithStorage(store))
	require.NoError(t, err)

	opts = append([]authstore.Option{authstore.WithLogger(testLogger())}, opts...)
	s, err := authstore.New(client, store, opts...)
	require.NoError(t, err)
	return s
}

// refreshServer responds to the refresh endpoint with the given status and
// body and tolerates csrf/logout traffic from the transport.
func refreshServer(status int, body string) *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/csrf-token", func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"csrfToken": "t"})
	})
	mux.HandleFunc("POST /api/v1/auth/logout", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("GET /api/v1/auth/refresh", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	})
	return httptest.NewServer(mux)
}

func TestLogin(t *testing.T) {
	t.Parallel()

	t.Run("transitions and persists the full role snapshot", func(t *testing.T) {
		t.Parallel()

		ctx := context.Background()
		mem := storage.NewMemory()
		store := newTestStore(t, "http://localhost:0", mem)

		var notified []authstore.Session
		unsubscribe := store.Subscribe(func(s authstore.Session) {
			notified = append(notified, s)
		})
		defer unsubscribe()

		user := json.RawMessage(`{"id":"1","name":"Alice"}`)
		store.Login(ctx, "token-abc", user, true, false, []string{"manage-tours"})

		sess := store.Session()
		assert.True(t, sess.IsAuthenticated)
		assert.Equal(t, "token-abc", sess.AccessToken)
		assert.True(t, sess.IsAdmin)
		assert.False(t, sess.IsModerator)
		assert.True(t, sess.HasPermission("manage-tours"))
		assert.Equal(t, authstore.StateAuthenticated, store.State())

		// Notification happens synchronously inside Login.
		require.Len(t, notified, 1)
		assert.True(t, notified[0].IsAuthenticated)

		token, err := mem.Get(ctx, storage.KeyAccessToken)
		require.NoError(t, err)
		assert.Equal(t, "token-abc", token)
		isAdmin, err := mem.Get(ctx, storage.KeyIsAdmin)
		require.NoError(t, err)
		assert.Equal(t, "true", isAdmin)
		perms, err := mem.Get(ctx, storage.KeyAdminPermissions)
		require.NoError(t, err)
		assert.JSONEq(t, `["manage-tours"]`, perms)
	})

	t.Run("authenticated always implies a held token", func(t *testing.T) {
		t.Parallel()

		store := newTestStore(t, "http://localhost:0", storage.NewMemory())
		store.Login(context.Background(), "tok", json.RawMessage(`{}`), false, false, nil)

		sess := store.Session()
		require.True(t, sess.IsAuthenticated)
		assert.NotEmpty(t, sess.AccessToken)
	})
}

func TestLogout(t *testing.T) {
	t.Parallel()

	t.Run("clears state before the backend call resolves", func(t *testing.T) {
		t.Parallel()

		release := make(chan struct{})
		mux := http.NewServeMux()
		mux.HandleFunc("GET /api/v1/csrf-token", func(w http.ResponseWriter, _ *http.Request) {
			_ = json.NewEncoder(w).Encode(map[string]string{"csrfToken": "t"})
		})
		mux.HandleFunc("POST /api/v1/auth/logout", func(w http.ResponseWriter, _ *http.Request) {
			<-release // backend is slow; local state must not wait for us
			w.WriteHeader(http.StatusNoContent)
		})
		server := httptest.NewServer(mux)
		defer server.Close()

		ctx := context.Background()
		mem := storage.NewMemory()

		var navigatedTo string
		storeWithNav := newTestStore(t, server.URL, mem, authstore.WithNavigator(func(path string) {
			navigatedTo = path
		}))
		storeWithNav.Login(ctx, "tok", json.RawMessage(`{"id":"1"}`), false, false, nil)

		future := storeWithNav.Logout(ctx)

		// Local effects are complete while the backend still hangs.
		assert.False(t, storeWithNav.IsAuthenticated())
		assert.Equal(t, authstore.StateAnonymous, storeWithNav.State())
		assert.Equal(t, "/", navigatedTo)
		_, err := mem.Get(ctx, storage.KeyAccessToken)
		assert.ErrorIs(t, err, storage.ErrNotFound)
		assert.False(t, future.IsComplete())

		close(release)
		require.NoError(t, future.Await())
	})

	t.Run("idempotent from anonymous regardless of network outcome", func(t *testing.T) {
		t.Parallel()

		ctx := context.Background()
		mem := storage.NewMemory()
		require.NoError(t, mem.Set(ctx, storage.KeyUser, `{"id":"1"}`))

		// No server listening: the detached logout call will fail.
		store := newTestStore(t, "http://127.0.0.1:1", mem)

		future := store.Logout(ctx)
		require.NoError(t, future.Await(), "transport logout failures are swallowed")

		assert.Equal(t, authstore.StateAnonymous, store.State())
		for _, key := range storage.SessionKeys() {
			_, err := mem.Get(ctx, key)
			assert.ErrorIs(t, err, storage.ErrNotFound, key)
		}

		// Second logout from anonymous ends in the same place.
		require.NoError(t, store.Logout(ctx).Await())
		assert.Equal(t, authstore.StateAnonymous, store.State())
	})
}

func TestInit(t *testing.T) {
	t.Parallel()

	t.Run("status 200 authenticates with the new access token", func(t *testing.T) {
		t.Parallel()

		server := refreshServer(http.StatusOK, `{"data":{"access_token":"abc","user":{"id":"1"}}}`)
		defer server.Close()

		ctx := context.Background()
		mem := storage.NewMemory()
		store := newTestStore(t, server.URL, mem)

		sess := store.Init(ctx)

		assert.True(t, sess.IsAuthenticated)
		assert.Equal(t, "abc", sess.AccessToken)
		assert.JSONEq(t, `{"id":"1"}`, string(sess.User))
		assert.Equal(t, authstore.StateAuthenticated, store.State())

		token, err := mem.Get(ctx, storage.KeyAccessToken)
		require.NoError(t, err)
		assert.Equal(t, "abc", token)
		user, err := mem.Get(ctx, storage.KeyUser)
		require.NoError(t, err)
		assert.JSONEq(t, `{"id":"1"}`, user)
	})

	t.Run("role flags come from storage, not the refresh payload", func(t *testing.T) {
		t.Parallel()

		server := refreshServer(http.StatusOK, `{"data":{"access_token":"abc","user":{"id":"1"}}}`)
		defer server.Close()

		ctx := context.Background()
		mem := storage.NewMemory()
		require.NoError(t, mem.Set(ctx, storage.KeyIsAdmin, "true"))
		require.NoError(t, mem.Set(ctx, storage.KeyIsModerator, "true"))
		require.NoError(t, mem.Set(ctx, storage.KeyAdminPermissions, `["manage-users","refunds"]`))

		store := newTestStore(t, server.URL, mem)
		sess := store.Init(ctx)

		assert.True(t, sess.IsAdmin)
		assert.True(t, sess.IsModerator)
		assert.True(t, sess.HasPermission("refunds"))
	})

	t.Run("status 401 clears storage and lands anonymous", func(t *testing.T) {
		t.Parallel()

		server := refreshServer(http.StatusUnauthorized, `{"message":"jwt expired"}`)
		defer server.Close()

		ctx := context.Background()
		mem := storage.NewMemory()
		for _, key := range storage.SessionKeys() {
			require.NoError(t, mem.Set(ctx, key, "stale"))
		}

		store := newTestStore(t, server.URL, mem)
		sess := store.Init(ctx)

		assert.False(t, sess.IsAuthenticated)
		assert.Equal(t, authstore.StateAnonymous, store.State())
		for _, key := range storage.SessionKeys() {
			_, err := mem.Get(ctx, key)
			assert.ErrorIs(t, err, storage.ErrNotFound, key)
		}
	})

	t.Run("network failure is indistinguishable from rejection", func(t *testing.T) {
		t.Parallel()

		store := newTestStore(t, "http://127.0.0.1:1", storage.NewMemory())
		sess := store.Init(context.Background())

		assert.False(t, sess.IsAuthenticated)
		assert.Equal(t, authstore.StateAnonymous, store.State())
	})

	t.Run("undecodable refresh body lands anonymous", func(t *testing.T) {
		t.Parallel()

		server := refreshServer(http.StatusOK, `not json`)
		defer server.Close()

		store := newTestStore(t, server.URL, storage.NewMemory())
		sess := store.Init(context.Background())

		assert.False(t, sess.IsAuthenticated)
	})
}

func TestSubscribe(t *testing.T) {
	t.Parallel()

	t.Run("unsubscribed observers stop receiving transitions", func(t *testing.T) {
		t.Parallel()

		store := newTestStore(t, "http://localhost:0", storage.NewMemory())

		var count int
		unsubscribe := store.Subscribe(func(authstore.Session) { count++ })

		store.Login(context.Background(), "tok", json.RawMessage(`{}`), false, false, nil)
		assert.Equal(t, 1, count)

		unsubscribe()
		store.Login(context.Background(), "tok2", json.RawMessage(`{}`), false, false, nil)
		assert.Equal(t, 1, count)
	})
}

func TestTokenExpiresAt(t *testing.T) {
	t.Parallel()

	t.Run("reads exp from a jwt access token", func(t *testing.T) {
		t.Parallel()

		exp := time.Now().Add(15 * time.Minute).Truncate(time.Second)
		token, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, jwtlib.MapClaims{
			"sub": "user-1",
			"exp": exp.Unix(),
		}).SignedString([]byte("backend-secret"))
		require.NoError(t, err)

		store := newTestStore(t, "http://localhost:0", storage.NewMemory())
		store.Login(context.Background(), token, json.RawMessage(`{}`), false, false, nil)

		got, ok := store.TokenExpiresAt()
		require.True(t, ok)
		assert.True(t, got.Equal(exp))
	})

	t.Run("opaque token yields no expiry", func(t *testing.T) {
		t.Parallel()

		store := newTestStore(t, "http://localhost:0", storage.NewMemory())
		store.Login(context.Background(), "opaque-token", json.RawMessage(`{}`), false, false, nil)

		_, ok := store.TokenExpiresAt()
		assert.False(t, ok)
	})
}

func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("requires dependencies", func(t *testing.T) {
		t.Parallel()

		_, err := authstore.New(nil, storage.NewMemory())
		require.Error(t, err)

		cfg := transport.DefaultConfig()
		client, err := transport.New(cfg)
		require.NoError(t, err)

		_, err = authstore.New(client, nil)
		require.Error(t, err)
	})
}
