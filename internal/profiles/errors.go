package profiles

import (
	"errors"
	"net/http"
)

var (
	ErrNotFound      = errors.New("user not found")
	ErrAgentNotFound = errors.New("agent not found")
	ErrDuplicate     = errors.New("email already registered")
	ErrInvalid       = errors.New("invalid profile")
)

// MapHTTPStatus maps domain errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrAgentNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrDuplicate):
		return http.StatusConflict
	case errors.Is(err, ErrInvalid):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
