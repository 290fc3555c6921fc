package authstore

import (
	"encoding/json"
	"slices"
)

// State describes where the store is in its lifecycle.
type State int

const (
	// StateAnonymous is the initial state and the result of logout or a
	// failed refresh.
	StateAnonymous State = iota
	// StateAuthenticating is the transient state while Init talks to the
	// refresh endpoint.
	StateAuthenticating
	// StateAuthenticated means a live access token is held.
	StateAuthenticated
)

func (s State) String() string {
	switch s {
	case StateAuthenticating:
		return "authenticating"
	case StateAuthenticated:
		return "authenticated"
	default:
		return "anonymous"
	}
}

// Session is the observable authentication snapshot. User is the backend's
// identity payload passed through untouched; the store enforces no shape on
// it. Role flags are meaningful only while IsAuthenticated is true.
type Session struct {
	IsAuthenticated  bool
	User             json.RawMessage
	AccessToken      string
	IsAdmin          bool
	IsModerator      bool
	AdminPermissions []string
}

// HasPermission reports whether the cached admin permission set contains
// name. Like the flags themselves, this reflects the last persisted
// snapshot, not a live server check.
func (s Session) HasPermission(name string) bool {
	return slices.Contains(s.AdminPermissions, name)
}
