// Package sessions manages edit session lifecycle: creation against a source
// document, token authorization, lazy expiry, and the single-commit transition.
// A session is the unit of isolation for the operation log; all mutating
// operations run under the session's keyed lock.
package sessions

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// State identifies the lifecycle state of an edit session.
type State string

const (
	// StateActive marks a session accepting edits.
	StateActive State = "active"

	// StateCommitted marks a session with a rendered final document.
	// Committed is terminal; no further edits or commits are accepted.
	StateCommitted State = "committed"

	// StateExpired marks a session whose TTL elapsed before commit.
	// Expired is terminal.
	StateExpired State = "expired"
)

// CallbackStatus tracks the webhook delivery outcome for a committed session.
const (
	CallbackPending = "pending"
	CallbackSuccess = "success"
	CallbackFailed  = "failed"
)

// Session represents an edit session over a source document.
type Session struct {
	ID                  uuid.UUID  `json:"id"`
	DocumentID          uuid.UUID  `json:"document_id"`
	Token               string     `json:"token,omitempty"`
	State               State      `json:"state"`
	CreatedAt           time.Time  `json:"created_at"`
	ExpiresAt           time.Time  `json:"expires_at"`
	LastActivityAt      time.Time  `json:"last_activity_at"`
	CommittedAt         *time.Time `json:"committed_at,omitempty"`
	CommittedStorageKey *string    `json:"committed_storage_key,omitempty"`
	CommittedSizeBytes  *int64     `json:"committed_size_bytes,omitempty"`
	CallbackURL         *string    `json:"callback_url,omitempty"`
	CallbackStatus      *string    `json:"callback_status,omitempty"`
}

// ExpiredAt reports whether the session's TTL has elapsed at the given
// instant. Only active sessions expire; terminal states are unaffected.
func (s *Session) ExpiredAt(now time.Time) bool {
	return s.State == StateActive && now.After(s.ExpiresAt)
}

// Redacted returns a copy of the session with the bearer token cleared.
// The token is only ever disclosed in the creation response.
func (s *Session) Redacted() *Session {
	c := *s
	c.Token = ""
	return &c
}

// EditorURL returns the frontend editing link for a session, carrying the
// bearer token as a query parameter.
func (s *Session) EditorURL(base string) string {
	return fmt.Sprintf("%s/edit/%s?token=%s", strings.TrimRight(base, "/"), s.ID, s.Token)
}

// CreateCommand contains the data required to open a new edit session.
// TTL is optional; when empty the configured default applies, and values
// above the configured maximum are clamped.
type CreateCommand struct {
	DocumentID  uuid.UUID `json:"-"`
	TTL         string    `json:"ttl,omitempty"`
	CallbackURL *string   `json:"callback_url,omitempty"`
}
