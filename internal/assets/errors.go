package assets

import (
	"errors"
	"net/http"
)

// Domain errors for image asset operations.
var (
	ErrNotFound         = errors.New("image not found")
	ErrDuplicate        = errors.New("image storage key already exists")
	ErrFileTooLarge     = errors.New("image exceeds maximum upload size")
	ErrUnsupportedImage = errors.New("unsupported image format")
	ErrInvalidImage     = errors.New("image could not be decoded")
	ErrInUse            = errors.New("image is referenced by active operations")
)

// MapHTTPStatus converts domain errors to appropriate HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrDuplicate), errors.Is(err, ErrInUse):
		return http.StatusConflict
	case errors.Is(err, ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, ErrUnsupportedImage), errors.Is(err, ErrInvalidImage):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
