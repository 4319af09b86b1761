package sessions

import (
	"errors"
	"net/http"
)

// Domain errors for session operations.
var (
	ErrNotFound         = errors.New("session not found")
	ErrDuplicate        = errors.New("session token already exists")
	ErrUnauthorized     = errors.New("invalid session token")
	ErrExpired          = errors.New("session has expired")
	ErrNotActive        = errors.New("session is not active")
	ErrAlreadyCommitted = errors.New("session has already been committed")
	ErrInvalidTTL       = errors.New("invalid session ttl")
	ErrNotCommitted     = errors.New("session has no committed document")
)

// MapHTTPStatus converts domain errors to appropriate HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrNotCommitted):
		return http.StatusNotFound
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ErrExpired):
		return http.StatusGone
	case errors.Is(err, ErrNotActive), errors.Is(err, ErrAlreadyCommitted), errors.Is(err, ErrDuplicate):
		return http.StatusConflict
	case errors.Is(err, ErrInvalidTTL):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
