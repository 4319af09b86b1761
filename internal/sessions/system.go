package sessions

import (
	"context"
	"time"

	"github.com/michaelnathaan/pdf-editor-be/pkg/pagination"
	"github.com/google/uuid"
)

// System defines edit session lifecycle operations.
//
// Authorize is the single entry point for token-bearing requests: it
// authenticates the token and lazily persists expiry when the TTL has
// elapsed. Guard additionally rejects sessions outside the active state.
type System interface {
	Create(ctx context.Context, cmd CreateCommand) (*Session, error)
	Find(ctx context.Context, id uuid.UUID) (*Session, error)
	List(ctx context.Context, documentID uuid.UUID, page pagination.PageRequest) (*pagination.PageResult[Session], error)
	Authorize(ctx context.Context, id uuid.UUID, token string) (*Session, error)
	Guard(s *Session) error
	Touch(ctx context.Context, id uuid.UUID) error
	MarkCommitted(ctx context.Context, id uuid.UUID, storageKey string, sizeBytes int64) (*Session, error)
	MarkExpired(ctx context.Context, id uuid.UUID) error
	SetCallbackStatus(ctx context.Context, id uuid.UUID, status string) error
	Delete(ctx context.Context, id uuid.UUID) error

	// ExpireOverdue transitions all active sessions whose TTL elapsed
	// before now, returning the ids that changed state.
	ExpireOverdue(ctx context.Context, now time.Time) ([]uuid.UUID, error)

	// ListReclaimable returns terminal sessions whose grace period ended
	// before cutoff, for storage reclamation.
	ListReclaimable(ctx context.Context, cutoff time.Time) ([]Session, error)

	// Lock acquires the per-session mutex and returns its release function.
	Lock(id uuid.UUID) func()
}
