package settings

import (
	"errors"
	"net/http"
)

var (
	ErrInvalid       = errors.New("invalid settings")
	ErrSecretBackend = errors.New("secret store unavailable")
)

// MapHTTPStatus maps domain errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrInvalid):
		return http.StatusBadRequest
	case errors.Is(err, ErrSecretBackend):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
