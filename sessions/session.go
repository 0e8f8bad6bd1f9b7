// Package sessions holds the record proving a user is authenticated in one
// tab, and the storage wrapper that persists it for the tab's lifetime.
package sessions

import (
	"time"

	"github.com/cleanflow/go-client-session/users"
)

// Session is the authenticated-state record for a single tab. It is either
// entirely absent from storage or fully populated with an unexpired expiry;
// an expired record is deleted on read and never returned to a caller.
type Session struct {
	User      *users.User `json:"user"`
	Token     string      `json:"access_token"` // Opaque signed credential
	ExpiresAt time.Time   `json:"expires_at"`
}

// Expired reports whether the session's expiry lies at or before now.
func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}
