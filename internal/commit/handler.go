package commit

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/michaelnathaan/pdf-editor-be/internal/sessions"
	"github.com/michaelnathaan/pdf-editor-be/pkg/handlers"
	"github.com/michaelnathaan/pdf-editor-be/pkg/routes"
)

// Handler exposes the commit endpoint.
type Handler struct {
	pipeline *Pipeline
	sessions sessions.System
	logger   *slog.Logger
}

// NewHandler creates a commit handler.
func NewHandler(pipeline *Pipeline, sess sessions.System, logger *slog.Logger) *Handler {
	return &Handler{
		pipeline: pipeline,
		sessions: sess,
		logger:   logger.With("handler", "commit"),
	}
}

// Routes returns the commit route group.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix:      "/sessions",
		Tags:        []string{"Commit"},
		Description: "One-time session commit",
		Routes: []routes.Route{
			{Method: "POST", Pattern: "/{id}/commit", Handler: h.Commit},
		},
	}
}

func (h *Handler) Commit(w http.ResponseWriter, r *http.Request) {
	session, ok := sessions.Authorized(w, r, h.sessions, h.logger)
	if !ok {
		return
	}

	unlock := h.sessions.Lock(session.ID)
	defer unlock()

	// Re-read under the lock; a concurrent commit may have finished.
	session, err := h.sessions.Find(r.Context(), session.ID)
	if err != nil {
		handlers.RespondError(w, h.logger, sessions.MapHTTPStatus(err), err)
		return
	}

	committed, err := h.pipeline.Commit(r.Context(), session)
	if err != nil {
		if errors.Is(err, sessions.ErrAlreadyCommitted) && committed != nil {
			h.respondAlreadyCommitted(w, committed)
			return
		}
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, committed.Redacted())
}

func (h *Handler) respondAlreadyCommitted(w http.ResponseWriter, session *sessions.Session) {
	detail := map[string]any{
		"state":        session.State,
		"committed_at": session.CommittedAt,
	}
	if session.CommittedStorageKey != nil {
		detail["committed_storage_key"] = *session.CommittedStorageKey
	}
	if session.CommittedSizeBytes != nil {
		detail["committed_size_bytes"] = *session.CommittedSizeBytes
	}

	handlers.RespondErrorDetail(w, h.logger, http.StatusConflict, sessions.ErrAlreadyCommitted, detail)
}
