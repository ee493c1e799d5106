// Package storage provides blob storage for chat attachments. Keys are
// slash-separated relative paths; the filesystem implementation maps them
// under a configured base directory.
package storage

import (
	"context"
	"errors"
	"io"

	"github.com/JaimeStill/agent-chat/pkg/lifecycle"
)

var (
	// ErrNotFound indicates the requested key does not exist in storage.
	ErrNotFound = errors.New("storage: key not found")

	// ErrPermissionDenied indicates insufficient permissions to access the key.
	ErrPermissionDenied = errors.New("storage: permission denied")

	// ErrInvalidKey indicates the key is empty or escapes the base path.
	ErrInvalidKey = errors.New("storage: invalid key")

	// ErrTooLarge indicates a blob exceeded the configured upload limit.
	ErrTooLarge = errors.New("storage: blob exceeds max upload size")
)

// System defines blob storage operations.
type System interface {
	// Store writes r to key, replacing any existing blob. It reads at most
	// the configured upload limit and returns ErrTooLarge past it.
	Store(ctx context.Context, key string, r io.Reader) (int64, error)

	// Retrieve returns the bytes stored at key or ErrNotFound.
	Retrieve(ctx context.Context, key string) ([]byte, error)

	// Delete removes key. Missing keys are not an error.
	Delete(ctx context.Context, key string) error

	// Exists reports whether key is present and readable.
	Exists(ctx context.Context, key string) (bool, error)

	// Start registers lifecycle hooks with the coordinator.
	Start(lc *lifecycle.Coordinator) error
}
