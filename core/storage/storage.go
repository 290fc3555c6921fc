package storage

import (
	"context"
	"errors"
)

// Durable storage keys for the persisted session snapshot.
// Key names are part of the wire contract with existing deployments and
// must not be renamed.
const (
	KeyAccessToken      = "accessToken"
	KeyUser             = "user"
	KeyIsAdmin          = "isAdmin"
	KeyIsModerator      = "isModerator"
	KeyAdminPermissions = "adminPermissions"
)

var (
	// ErrNotFound is returned when a key has no stored value.
	ErrNotFound = errors.New("storage: key not found")
	// ErrUnavailable is returned when the backing store cannot be reached.
	ErrUnavailable = errors.New("storage: backend unavailable")
)

// Storage is the durable key/value store backing the session snapshot.
// Values are plain strings; callers own serialization. Implementations must
// be safe for concurrent use.
type Storage interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// SessionKeys returns every key the session snapshot occupies.
func SessionKeys() []string {
	return []string{KeyAccessToken, KeyUser, KeyIsAdmin, KeyIsModerator, KeyAdminPermissions}
}

// ClearSession removes the full session snapshot from s. Missing keys are
// not an error; the first real failure aborts and is returned.
func ClearSession(ctx context.Context, s Storage) error {
	for _, key := range SessionKeys() {
		if err := s.Delete(ctx, key); err != nil && !errors.Is(err, ErrNotFound) {
			return err
		}
	}
	return nil
}
