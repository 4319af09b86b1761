package operations

import (
	"errors"
	"net/http"
)

// Domain errors for operation log mutations.
var (
	ErrNotFound       = errors.New("operation not found")
	ErrDuplicate      = errors.New("operation sequence already exists")
	ErrNothingToUndo  = errors.New("nothing to undo")
	ErrNothingToRedo  = errors.New("nothing to redo")
	ErrInvalidPayload = errors.New("invalid operation payload")
	ErrInvalidPage    = errors.New("page index out of bounds")
	ErrImageNotFound  = errors.New("referenced image not found in session")
	ErrNoPlacement    = errors.New("no active placement for image on page")
)

// MapHTTPStatus converts domain errors to appropriate HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrNothingToUndo), errors.Is(err, ErrNothingToRedo), errors.Is(err, ErrDuplicate):
		return http.StatusConflict
	case errors.Is(err, ErrInvalidPayload), errors.Is(err, ErrInvalidPage),
		errors.Is(err, ErrImageNotFound), errors.Is(err, ErrNoPlacement):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
