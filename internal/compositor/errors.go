package compositor

import (
	"errors"
	"net/http"
)

// Render failure modes. All of them leave the session untouched; a failed
// render is retriable once the underlying cause is fixed.
var (
	ErrAssetMissing     = errors.New("placed image asset is missing")
	ErrInvalidPage      = errors.New("placement page out of bounds")
	ErrSourceUnreadable = errors.New("source document could not be read")
	ErrRenderFailed     = errors.New("render failed")
)

// MapHTTPStatus converts render errors to appropriate HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrAssetMissing), errors.Is(err, ErrSourceUnreadable):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ErrInvalidPage):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
