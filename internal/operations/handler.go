package operations

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/michaelnathaan/pdf-editor-be/internal/sessions"
	"github.com/michaelnathaan/pdf-editor-be/pkg/handlers"
	"github.com/michaelnathaan/pdf-editor-be/pkg/routes"
	"github.com/google/uuid"
)

// Handler provides HTTP endpoints for operation log mutations. All routes
// are scoped to a session and authorized by its bearer token.
type Handler struct {
	sys      System
	sessions sessions.System
	logger   *slog.Logger
}

// NewHandler creates an operation log handler.
func NewHandler(sys System, sess sessions.System, logger *slog.Logger) *Handler {
	return &Handler{
		sys:      sys,
		sessions: sess,
		logger:   logger.With("handler", "operations"),
	}
}

// Routes returns the operation log route group.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix:      "/sessions/{id}/operations",
		Tags:        []string{"Operations"},
		Description: "Edit operation log: append, undo, redo, delete",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "", Handler: h.List},
			{Method: "POST", Pattern: "", Handler: h.Append},
			{Method: "POST", Pattern: "/undo", Handler: h.Undo},
			{Method: "POST", Pattern: "/redo", Handler: h.Redo},
			{Method: "DELETE", Pattern: "/{operationId}", Handler: h.Delete},
			{Method: "DELETE", Pattern: "", Handler: h.Clear},
		},
	}
}

func (h *Handler) Append(w http.ResponseWriter, r *http.Request) {
	session, ok := sessions.Authorized(w, r, h.sessions, h.logger)
	if !ok {
		return
	}

	var cmd AppendCommand
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	op, err := h.sys.Append(r.Context(), session, cmd)
	if err != nil {
		handlers.RespondError(w, h.logger, h.status(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusCreated, op)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	session, ok := sessions.Authorized(w, r, h.sessions, h.logger)
	if !ok {
		return
	}

	var (
		ops []Operation
		err error
	)

	if all, _ := strconv.ParseBool(r.URL.Query().Get("all")); all {
		ops, err = h.sys.List(r.Context(), session.ID)
	} else {
		ops, err = h.sys.ListActive(r.Context(), session.ID)
	}
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusInternalServerError, err)
		return
	}

	if ops == nil {
		ops = []Operation{}
	}

	handlers.RespondJSON(w, http.StatusOK, ops)
}

func (h *Handler) Undo(w http.ResponseWriter, r *http.Request) {
	session, ok := sessions.Authorized(w, r, h.sessions, h.logger)
	if !ok {
		return
	}

	op, err := h.sys.Undo(r.Context(), session)
	if err != nil {
		handlers.RespondError(w, h.logger, h.status(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, op)
}

func (h *Handler) Redo(w http.ResponseWriter, r *http.Request) {
	session, ok := sessions.Authorized(w, r, h.sessions, h.logger)
	if !ok {
		return
	}

	op, err := h.sys.Redo(r.Context(), session)
	if err != nil {
		handlers.RespondError(w, h.logger, h.status(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, op)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	session, ok := sessions.Authorized(w, r, h.sessions, h.logger)
	if !ok {
		return
	}

	operationID, err := uuid.Parse(r.PathValue("operationId"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	if err := h.sys.Delete(r.Context(), session, operationID); err != nil {
		handlers.RespondError(w, h.logger, h.status(err), err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) Clear(w http.ResponseWriter, r *http.Request) {
	session, ok := sessions.Authorized(w, r, h.sessions, h.logger)
	if !ok {
		return
	}

	if err := h.sys.Clear(r.Context(), session); err != nil {
		handlers.RespondError(w, h.logger, h.status(err), err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// status resolves session state errors before the package's own mapping.
func (h *Handler) status(err error) int {
	if code := sessions.MapHTTPStatus(err); code != http.StatusInternalServerError {
		return code
	}
	return MapHTTPStatus(err)
}
