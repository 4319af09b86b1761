package sessions

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/michaelnathaan/pdf-editor-be/internal/storage"
	"github.com/michaelnathaan/pdf-editor-be/pkg/handlers"
	"github.com/michaelnathaan/pdf-editor-be/pkg/pagination"
	"github.com/michaelnathaan/pdf-editor-be/pkg/routes"
	"github.com/google/uuid"
)

// Handler provides HTTP endpoints for session lifecycle operations.
// The commit endpoint lives in the commit package alongside its pipeline.
type Handler struct {
	sys        System
	store      storage.System
	logger     *slog.Logger
	pagination pagination.Config
	editorURL  string
}

// NewHandler creates a session handler. editorURL is the frontend base the
// creation response links to.
func NewHandler(sys System, store storage.System, logger *slog.Logger, pg pagination.Config, editorURL string) *Handler {
	return &Handler{
		sys:        sys,
		store:      store,
		logger:     logger.With("handler", "sessions"),
		pagination: pg,
		editorURL:  editorURL,
	}
}

// DocumentRoutes returns session creation and listing routes scoped to a
// document. These require API-key authentication, not a session token.
func (h *Handler) DocumentRoutes() routes.Group {
	return routes.Group{
		Prefix:      "/documents/{documentId}/sessions",
		Tags:        []string{"Sessions"},
		Description: "Edit session creation and listing",
		Routes: []routes.Route{
			{Method: "POST", Pattern: "", Handler: h.Create},
			{Method: "GET", Pattern: "", Handler: h.List},
		},
	}
}

// Routes returns token-authorized session routes.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix:      "/sessions",
		Tags:        []string{"Sessions"},
		Description: "Edit session state and committed document retrieval",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "/{id}", Handler: h.Info},
			{Method: "GET", Pattern: "/{id}/document", Handler: h.Download},
		},
	}
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	documentID, err := uuid.Parse(r.PathValue("documentId"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	var cmd CreateCommand
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
			handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
			return
		}
	}
	cmd.DocumentID = documentID

	session, err := h.sys.Create(r.Context(), cmd)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusCreated, createResponse{
		Session:   session,
		EditorURL: session.EditorURL(h.editorURL),
	})
}

// createResponse is the only payload that discloses the bearer token,
// alongside the editor link built from it.
type createResponse struct {
	*Session
	EditorURL string `json:"editor_url"`
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	documentID, err := uuid.Parse(r.PathValue("documentId"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	page := pagination.PageRequestFromQuery(r.URL.Query(), h.pagination)

	result, err := h.sys.List(r.Context(), documentID, page)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusInternalServerError, err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}

func (h *Handler) Info(w http.ResponseWriter, r *http.Request) {
	session, ok := Authorized(w, r, h.sys, h.logger)
	if !ok {
		return
	}

	handlers.RespondJSON(w, http.StatusOK, session.Redacted())
}

func (h *Handler) Download(w http.ResponseWriter, r *http.Request) {
	session, ok := Authorized(w, r, h.sys, h.logger)
	if !ok {
		return
	}

	if session.State != StateCommitted || session.CommittedStorageKey == nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(ErrNotCommitted), ErrNotCommitted)
		return
	}

	data, err := h.store.Retrieve(r.Context(), *session.CommittedStorageKey)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusInternalServerError, err)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", session.ID.String()+".pdf"))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// Authorized parses the session id and token from the request and
// authenticates against sys, writing the error response on failure.
// Expiry observed here is persisted by the system before it returns.
func Authorized(w http.ResponseWriter, r *http.Request, sys System, logger *slog.Logger) (*Session, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, logger, http.StatusBadRequest, err)
		return nil, false
	}

	token := RequestToken(r)
	if token == "" {
		handlers.RespondError(w, logger, http.StatusUnauthorized, ErrUnauthorized)
		return nil, false
	}

	session, err := sys.Authorize(r.Context(), id, token)
	if err != nil {
		handlers.RespondError(w, logger, MapHTTPStatus(err), err)
		return nil, false
	}

	return session, true
}

// RequestToken extracts the session bearer token from the query string or
// the X-Session-Token header.
func RequestToken(r *http.Request) string {
	if t := r.URL.Query().Get("session_token"); t != "" {
		return t
	}
	return r.Header.Get("X-Session-Token")
}
