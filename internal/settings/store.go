package settings

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/JaimeStill/agent-chat/internal/webhook"
	"github.com/JaimeStill/agent-chat/pkg/database"
)

// Store persists AgentSettings per user.
type Store interface {
	// Find returns the user's settings, or defaults when none are saved.
	Find(ctx context.Context, userID string) (AgentSettings, error)
	Save(ctx context.Context, userID string, s AgentSettings) (AgentSettings, error)
}

type jsonStore struct {
	db      *sql.DB
	dialect database.Dialect
	table   string
}

func (s *jsonStore) find(ctx context.Context, userID string, dest any) (bool, error) {
	q := s.dialect.Rebind(`SELECT data FROM ` + s.table + ` WHERE user_id = ?`)
	var data []byte
	if err := s.db.QueryRowContext(ctx, q, userID).Scan(&data); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("query %s: %w", s.table, err)
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return false, fmt.Errorf("decode %s for %s: %w", s.table, userID, err)
	}
	return true, nil
}

func (s *jsonStore) save(ctx context.Context, userID string, v any, at time.Time) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", s.table, err)
	}
	q := s.dialect.Rebind(`
		INSERT INTO ` + s.table + ` (user_id, data, updated_at) VALUES (?, ?, ?)
		ON CONFLICT (user_id) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`)
	if _, err := s.db.ExecContext(ctx, q, userID, string(data), at); err != nil {
		return fmt.Errorf("save %s: %w", s.table, err)
	}
	return nil
}

func (s *jsonStore) delete(ctx context.Context, userID string) error {
	q := s.dialect.Rebind(`DELETE FROM ` + s.table + ` WHERE user_id = ?`)
	if _, err := s.db.ExecContext(ctx, q, userID); err != nil {
		return fmt.Errorf("delete %s: %w", s.table, err)
	}
	return nil
}

type settingsStore struct {
	jsonStore
	now func() time.Time
}

// NewStore creates a Store over the settings table.
func NewStore(db *sql.DB, dialect database.Dialect) Store {
	return &settingsStore{
		jsonStore: jsonStore{db: db, dialect: dialect, table: "settings"},
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (s *settingsStore) Find(ctx context.Context, userID string) (AgentSettings, error) {
	out := AgentSettings{AuthType: webhook.AuthNone}
	if _, err := s.find(ctx, userID, &out); err != nil {
		return AgentSettings{}, err
	}
	if out.AuthType == "" {
		out.AuthType = webhook.AuthNone
	}
	return out, nil
}

func (s *settingsStore) Save(ctx context.Context, userID string, in AgentSettings) (AgentSettings, error) {
	in.UpdatedAt = s.now()
	if err := s.save(ctx, userID, in, in.UpdatedAt); err != nil {
		return AgentSettings{}, err
	}
	return in, nil
}

