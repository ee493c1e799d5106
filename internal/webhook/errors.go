package webhook

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	ErrMissingEndpoint  = errors.New("webhook: no endpoint configured")
	ErrTimeout          = errors.New("webhook: request timed out")
	ErrTransport        = errors.New("webhook: transport failure")
	ErrServerError      = errors.New("webhook: server error")
	ErrResponseTooLarge = errors.New("webhook: response too large")
	ErrEncoding         = errors.New("webhook: encoding failure")
	ErrEmptyTurn        = errors.New("webhook: turn has no text or attachments")
)

// DispatchError is returned for every failed dispatch. It unwraps to both its
// Kind sentinel and the underlying Cause.
type DispatchError struct {
	Kind   error
	Status int
	Body   string
	Cause  error
}

func (e *DispatchError) Error() string {
	switch {
	case e.Status != 0 && e.Body != "":
		return fmt.Sprintf("%v: HTTP %d: %s", e.Kind, e.Status, e.Body)
	case e.Status != 0:
		return fmt.Sprintf("%v: HTTP %d", e.Kind, e.Status)
	case e.Cause != nil:
		return fmt.Sprintf("%v: %v", e.Kind, e.Cause)
	default:
		return e.Kind.Error()
	}
}

func (e *DispatchError) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Cause}
}

// Describe renders err for display inside a conversation, without the
// package prefix.
func Describe(err error) string {
	return strings.TrimPrefix(err.Error(), "webhook: ")
}

// MapHTTPStatus maps webhook errors to the status returned by the API when
// a failure aborts a send before dispatch.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrEmptyTurn), errors.Is(err, ErrEncoding):
		return http.StatusBadRequest
	case errors.Is(err, ErrMissingEndpoint):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ErrTimeout):
		return http.StatusGatewayTimeout
	case errors.Is(err, ErrTransport), errors.Is(err, ErrServerError), errors.Is(err, ErrResponseTooLarge):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
