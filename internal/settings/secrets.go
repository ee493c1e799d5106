package settings

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/zalando/go-keyring"

	"github.com/JaimeStill/agent-chat/pkg/database"
)

// SecretStore keeps credentials keyed by user id. Get returns empty
// Secrets when nothing is stored.
type SecretStore interface {
	Get(ctx context.Context, userID string) (Secrets, error)
	Set(ctx context.Context, userID string, s Secrets) error
	Delete(ctx context.Context, userID string) error
}

// NewSecretStore builds the backend selected by cfg.
func NewSecretStore(cfg *Config, db *sql.DB, dialect database.Dialect) (SecretStore, error) {
	switch cfg.Backend {
	case BackendKeyring:
		return NewKeyringStore(cfg.ServiceName), nil
	case BackendDatabase:
		return NewDatabaseSecretStore(db, dialect), nil
	default:
		return nil, fmt.Errorf("unknown secrets backend %q", cfg.Backend)
	}
}

type keyringStore struct {
	service string
}

// NewKeyringStore stores each user's secrets as one JSON item in the OS
// keychain under service, with the user id as account.
func NewKeyringStore(service string) SecretStore {
	return &keyringStore{service: service}
}

func (k *keyringStore) Get(ctx context.Context, userID string) (Secrets, error) {
	raw, err := keyring.Get(k.service, userID)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return Secrets{}, nil
		}
		return Secrets{}, fmt.Errorf("%w: keychain get: %v", ErrSecretBackend, err)
	}

	var s Secrets
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		return Secrets{}, fmt.Errorf("decode keychain secrets: %w", err)
	}
	return s, nil
}

func (k *keyringStore) Set(ctx context.Context, userID string, s Secrets) error {
	if s.Empty() {
		return k.Delete(ctx, userID)
	}
	raw, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode secrets: %w", err)
	}
	if err := keyring.Set(k.service, userID, string(raw)); err != nil {
		return fmt.Errorf("%w: keychain set: %v", ErrSecretBackend, err)
	}
	return nil
}

func (k *keyringStore) Delete(ctx context.Context, userID string) error {
	if err := keyring.Delete(k.service, userID); err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("%w: keychain delete: %v", ErrSecretBackend, err)
	}
	return nil
}

type dbSecretStore struct {
	jsonStore
}

// NewDatabaseSecretStore keeps secrets in the secrets table, for headless
// deployments without an OS keychain.
func NewDatabaseSecretStore(db *sql.DB, dialect database.Dialect) SecretStore {
	return &dbSecretStore{jsonStore{db: db, dialect: dialect, table: "secrets"}}
}

func (d *dbSecretStore) Get(ctx context.Context, userID string) (Secrets, error) {
	var s Secrets
	if _, err := d.find(ctx, userID, &s); err != nil {
		return Secrets{}, err
	}
	return s, nil
}

func (d *dbSecretStore) Set(ctx context.Context, userID string, s Secrets) error {
	if s.Empty() {
		return d.delete(ctx, userID)
	}
	return d.save(ctx, userID, s, time.Now().UTC())
}

func (d *dbSecretStore) Delete(ctx context.Context, userID string) error {
	return d.delete(ctx, userID)
}
