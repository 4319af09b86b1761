package assets

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/michaelnathaan/pdf-editor-be/internal/operations"
	"github.com/michaelnathaan/pdf-editor-be/internal/sessions"
	"github.com/michaelnathaan/pdf-editor-be/pkg/handlers"
	"github.com/michaelnathaan/pdf-editor-be/pkg/routes"
	"github.com/google/uuid"
)

// Handler provides HTTP endpoints for session image assets. All routes are
// scoped to a session and authorized by its bearer token.
type Handler struct {
	sys      System
	sessions sessions.System
	logger   *slog.Logger
	maxSize  int64
}

// NewHandler creates an image asset handler.
func NewHandler(sys System, sess sessions.System, logger *slog.Logger, maxSize int64) *Handler {
	return &Handler{
		sys:      sys,
		sessions: sess,
		logger:   logger.With("handler", "assets"),
		maxSize:  maxSize,
	}
}

// Routes returns the image asset route group.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix:      "/sessions/{id}/images",
		Tags:        []string{"Images"},
		Description: "Session-scoped image assets",
		Routes: []routes.Route{
			{Method: "POST", Pattern: "", Handler: h.Upload},
			{Method: "GET", Pattern: "", Handler: h.List},
			{Method: "GET", Pattern: "/{imageId}", Handler: h.Find},
			{Method: "GET", Pattern: "/{imageId}/content", Handler: h.Download},
			{Method: "DELETE", Pattern: "/{imageId}", Handler: h.Delete},
		},
	}
}

func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	session, ok := sessions.Authorized(w, r, h.sessions, h.logger)
	if !ok {
		return
	}

	if err := r.ParseMultipartForm(h.maxSize); err != nil {
		handlers.RespondError(w, h.logger, http.StatusRequestEntityTooLarge, ErrFileTooLarge)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidImage)
		return
	}
	defer file.Close()

	if header.Size > h.maxSize {
		handlers.RespondError(w, h.logger, http.StatusRequestEntityTooLarge, ErrFileTooLarge)
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidImage)
		return
	}

	img, err := h.sys.Upload(r.Context(), session, UploadCommand{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
	})
	if err != nil {
		handlers.RespondError(w, h.logger, h.status(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusCreated, img)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	session, ok := sessions.Authorized(w, r, h.sessions, h.logger)
	if !ok {
		return
	}

	images, err := h.sys.List(r.Context(), session.ID)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusInternalServerError, err)
		return
	}

	if images == nil {
		images = []Image{}
	}

	handlers.RespondJSON(w, http.StatusOK, images)
}

func (h *Handler) Find(w http.ResponseWriter, r *http.Request) {
	session, imageID, ok := h.authorizeImage(w, r)
	if !ok {
		return
	}

	img, err := h.sys.Find(r.Context(), session.ID, imageID)
	if err != nil {
		handlers.RespondError(w, h.logger, h.status(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, img)
}

func (h *Handler) Download(w http.ResponseWriter, r *http.Request) {
	session, imageID, ok := h.authorizeImage(w, r)
	if !ok {
		return
	}

	img, data, err := h.sys.Content(r.Context(), session.ID, imageID)
	if err != nil {
		handlers.RespondError(w, h.logger, h.status(err), err)
		return
	}

	w.Header().Set("Content-Type", img.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", img.Filename))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	session, imageID, ok := h.authorizeImage(w, r)
	if !ok {
		return
	}

	force, _ := strconv.ParseBool(r.URL.Query().Get("force"))

	affected, err := h.sys.Delete(r.Context(), session, imageID, force)
	if err != nil {
		handlers.RespondError(w, h.logger, h.status(err), err)
		return
	}

	if affected == nil {
		affected = []operations.Operation{}
	}

	handlers.RespondJSON(w, http.StatusOK, map[string]any{
		"image_id":            imageID,
		"cascaded_operations": affected,
	})
}

func (h *Handler) authorizeImage(w http.ResponseWriter, r *http.Request) (*sessions.Session, uuid.UUID, bool) {
	session, ok := sessions.Authorized(w, r, h.sessions, h.logger)
	if !ok {
		return nil, uuid.Nil, false
	}

	imageID, err := uuid.Parse(r.PathValue("imageId"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return nil, uuid.Nil, false
	}

	return session, imageID, true
}

func (h *Handler) status(err error) int {
	if code := sessions.MapHTTPStatus(err); code != http.StatusInternalServerError {
		return code
	}
	if code := operations.MapHTTPStatus(err); code != http.StatusInternalServerError {
		return code
	}
	return MapHTTPStatus(err)
}
