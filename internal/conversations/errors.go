package conversations

import (
	"errors"
	"net/http"
)

var (
	ErrNotFound  = errors.New("conversation not found")
	ErrDuplicate = errors.New("conversation already exists")
)

// MapHTTPStatus maps domain errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	if errors.Is(err, ErrNotFound) {
		return http.StatusNotFound
	}
	if errors.Is(err, ErrDuplicate) {
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}
