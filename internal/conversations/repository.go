package conversations

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/agent-chat/pkg/database"
	"github.com/JaimeStill/agent-chat/pkg/repository"
)

type repo struct {
	db      *sql.DB
	dialect database.Dialect
	logger  *slog.Logger
	now     func() time.Time
}

// New creates a System over the shared connection pool.
func New(db *sql.DB, dialect database.Dialect, logger *slog.Logger) System {
	return &repo{
		db:      db,
		dialect: dialect,
		logger:  logger.With("system", "conversations"),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func (r *repo) List(ctx context.Context, userID string) ([]Conversation, error) {
	q := r.dialect.Rebind(`SELECT ` + columns + ` FROM conversations WHERE user_id = ? ORDER BY last_updated_at DESC, id`)
	items, err := repository.QueryMany(ctx, r.db, q, []any{userID}, scanConversation)
	if err != nil {
		return nil, fmt.Errorf("query conversations: %w", err)
	}
	return items, nil
}

func (r *repo) Find(ctx context.Context, userID, agentID string) (*Conversation, error) {
	c, err := r.find(ctx, r.db, userID, agentID)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &c, nil
}

func (r *repo) find(ctx context.Context, q repository.Querier, userID, agentID string) (Conversation, error) {
	query := r.dialect.Rebind(`SELECT ` + columns + ` FROM conversations WHERE user_id = ? AND agent_id = ?`)
	return repository.QueryOne(ctx, q, query, []any{userID, agentID}, scanConversation)
}

func (r *repo) Upsert(ctx context.Context, userID, agentID string, u Update) (*Conversation, error) {
	c, err := r.upsert(ctx, userID, agentID, u)
	if errors.Is(err, ErrDuplicate) {
		// lost a create race with another writer; the retry takes the update path
		c, err = r.upsert(ctx, userID, agentID, u)
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (r *repo) upsert(ctx context.Context, userID, agentID string, u Update) (*Conversation, error) {
	c, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (Conversation, error) {
		current, err := r.find(ctx, tx, userID, agentID)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return r.insert(ctx, tx, userID, agentID, u)
		case err != nil:
			return Conversation{}, err
		}

		u.apply(&current)
		messages, metadata, err := encode(&current)
		if err != nil {
			return Conversation{}, err
		}

		q := r.dialect.Rebind(`
			UPDATE conversations
			SET messages = ?, preview = ?, last_updated_at = ?, metadata = ?
			WHERE id = ?`)
		if err := repository.ExecExpectOne(ctx, tx, q,
			messages, current.Preview, current.LastUpdatedAt, metadata, current.ID,
		); err != nil {
			return Conversation{}, err
		}
		return current, nil
	})
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Debug("conversation upserted",
		"user_id", userID, "agent_id", agentID, "conversation_id", c.ID,
		"messages", len(c.Messages), "metadata_only", u.Messages == nil,
	)
	return &c, nil
}

func (r *repo) insert(ctx context.Context, tx *sql.Tx, userID, agentID string, u Update) (Conversation, error) {
	now := r.now()
	c := Conversation{
		ID:            uuid.NewString(),
		UserID:        userID,
		AgentID:       agentID,
		Messages:      []ChatMessage{},
		LastUpdatedAt: now,
		Metadata:      AgentSnapshot{Tools: []string{}},
		CreatedAt:     now,
	}
	u.apply(&c)

	messages, metadata, err := encode(&c)
	if err != nil {
		return Conversation{}, err
	}

	q := r.dialect.Rebind(`
		INSERT INTO conversations (id, user_id, agent_id, messages, preview, last_updated_at, metadata, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if _, err := tx.ExecContext(ctx, q,
		c.ID, userID, agentID, messages, c.Preview, c.LastUpdatedAt, metadata, c.CreatedAt,
	); err != nil {
		return Conversation{}, err
	}

	r.logger.Info("conversation created", "user_id", userID, "agent_id", agentID, "conversation_id", c.ID)
	return c, nil
}

func (r *repo) Delete(ctx context.Context, userID, agentID string) error {
	q := r.dialect.Rebind(`DELETE FROM conversations WHERE user_id = ? AND agent_id = ?`)
	res, err := r.db.ExecContext(ctx, q, userID, agentID)
	if err != nil {
		return fmt.Errorf("delete conversation: %w", err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		r.logger.Info("conversation deleted", "user_id", userID, "agent_id", agentID)
	}
	return nil
}
