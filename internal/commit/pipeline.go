// Package commit orchestrates the one-time materialization of a session:
// freeze the active operation sequence, render it onto the source
// document, persist the result, and flip the session to its terminal
// committed state. Notification happens after the commit is durable and
// never changes its outcome.
package commit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"path"
	"time"

	"github.com/michaelnathaan/pdf-editor-be/internal/assets"
	"github.com/michaelnathaan/pdf-editor-be/internal/compositor"
	"github.com/michaelnathaan/pdf-editor-be/internal/documents"
	"github.com/michaelnathaan/pdf-editor-be/internal/operations"
	"github.com/michaelnathaan/pdf-editor-be/internal/sessions"
	"github.com/michaelnathaan/pdf-editor-be/internal/storage"
	"github.com/google/uuid"
)

// ErrTransient marks a commit attempt that timed out before completing.
// The session remains active and the caller may retry.
var ErrTransient = errors.New("commit did not complete in time")

// AssetSource resolves session image assets for rendering.
type AssetSource interface {
	Content(ctx context.Context, sessionID, imageID uuid.UUID) (*assets.Image, []byte, error)
}

// Notifier dispatches the commit completion webhook.
type Notifier interface {
	NotifyCommitted(session *sessions.Session, downloadReference string)
}

// Pipeline renders and finalizes sessions. The caller serializes commits
// through the session lock; the pipeline assumes it is held.
type Pipeline struct {
	sessions   sessions.System
	docs       documents.System
	ops        operations.System
	comp       *compositor.Compositor
	store      storage.System
	assets     AssetSource
	notifier   Notifier
	logger     *slog.Logger
	timeout    time.Duration
	publicURL  string
}

// New creates a commit pipeline. timeout bounds the render step; publicURL
// is the base for the download reference handed to the webhook.
func New(
	sess sessions.System,
	docs documents.System,
	ops operations.System,
	comp *compositor.Compositor,
	store storage.System,
	assetSource AssetSource,
	notifier Notifier,
	logger *slog.Logger,
	timeout time.Duration,
	publicURL string,
) *Pipeline {
	return &Pipeline{
		sessions:  sess,
		docs:      docs,
		ops:       ops,
		comp:      comp,
		store:     store,
		assets:    assetSource,
		notifier:  notifier,
		logger:    logger.With("system", "commit"),
		timeout:   timeout,
		publicURL: publicURL,
	}
}

// Commit renders the session's active sequence and transitions it to
// committed. A session already committed returns its existing reference
// with sessions.ErrAlreadyCommitted; no second render happens. On render
// failure the session stays active.
func (p *Pipeline) Commit(ctx context.Context, session *sessions.Session) (*sessions.Session, error) {
	if session.State == sessions.StateCommitted {
		return session, sessions.ErrAlreadyCommitted
	}

	if session.ExpiredAt(time.Now()) {
		if err := p.sessions.MarkExpired(ctx, session.ID); err != nil {
			return nil, err
		}
		return nil, sessions.ErrExpired
	}

	if err := p.sessions.Guard(session); err != nil {
		return nil, err
	}

	active, err := p.ops.ListActive(ctx, session.ID)
	if err != nil {
		return nil, err
	}

	_, source, err := p.docs.Content(ctx, session.DocumentID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", compositor.ErrSourceUnreadable, err)
	}

	renderCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	started := time.Now()
	rendered, err := p.comp.Render(renderCtx, source, active, p.resolver(session.ID))
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			p.logger.Warn("render timed out", "session_id", session.ID, "timeout", p.timeout)
			return nil, ErrTransient
		}
		return nil, err
	}

	storageKey := committedKey(session.ID)
	if err := p.store.Store(ctx, storageKey, rendered); err != nil {
		return nil, fmt.Errorf("persist rendered document: %w", err)
	}

	committed, err := p.sessions.MarkCommitted(ctx, session.ID, storageKey, int64(len(rendered)))
	if err != nil {
		if errors.Is(err, sessions.ErrAlreadyCommitted) {
			return committed, err
		}
		if delErr := p.store.Delete(ctx, storageKey); delErr != nil {
			p.logger.Error("cleanup failed after commit error", "storage_key", storageKey, "error", delErr)
		}
		return nil, err
	}

	p.logger.Info("session committed",
		"session_id", session.ID,
		"operations", len(active),
		"size_bytes", len(rendered),
		"duration", time.Since(started),
	)

	p.notifier.NotifyCommitted(committed, p.downloadReference(committed.ID))

	return committed, nil
}

func (p *Pipeline) resolver(sessionID uuid.UUID) compositor.AssetResolver {
	return func(ctx context.Context, imageID uuid.UUID) ([]byte, error) {
		_, data, err := p.assets.Content(ctx, sessionID, imageID)
		return data, err
	}
}

func (p *Pipeline) downloadReference(sessionID uuid.UUID) string {
	return fmt.Sprintf("%s/api/v1/sessions/%s/document", p.publicURL, sessionID)
}

func committedKey(sessionID uuid.UUID) string {
	return path.Join("sessions", sessionID.String(), "committed.pdf")
}

// MapHTTPStatus resolves commit errors across the packages a commit
// traverses.
func MapHTTPStatus(err error) int {
	if errors.Is(err, ErrTransient) {
		return http.StatusGatewayTimeout
	}
	if code := sessions.MapHTTPStatus(err); code != http.StatusInternalServerError {
		return code
	}
	if code := compositor.MapHTTPStatus(err); code != http.StatusInternalServerError {
		return code
	}
	return operations.MapHTTPStatus(err)
}
