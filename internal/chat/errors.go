package chat

import (
	"errors"
	"net/http"

	"github.com/JaimeStill/agent-chat/internal/profiles"
	"github.com/JaimeStill/agent-chat/internal/webhook"
	"github.com/JaimeStill/agent-chat/pkg/storage"
)

var (
	ErrPersistence    = errors.New("chat: conversation could not be saved")
	ErrSendInProgress = errors.New("chat: a send is already in progress for this agent")
	ErrAgentNotFound  = errors.New("chat: agent not found")
	ErrUserInactive   = errors.New("chat: user is inactive")
)

// MapHTTPStatus maps chat errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrSendInProgress):
		return http.StatusConflict
	case errors.Is(err, ErrAgentNotFound), errors.Is(err, profiles.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrUserInactive):
		return http.StatusForbidden
	case errors.Is(err, ErrPersistence):
		return http.StatusServiceUnavailable
	case errors.Is(err, storage.ErrTooLarge):
		return http.StatusRequestEntityTooLarge
	default:
		return webhook.MapHTTPStatus(err)
	}
}
