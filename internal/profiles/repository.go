package profiles

import (
	"context"
	"database/sql"
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
		logger:  logger.With("system", "profiles"),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func (r *repo) Find(ctx context.Context, userID string) (*AuthUser, error) {
	return r.find(ctx, r.db, userID)
}

func (r *repo) find(ctx context.Context, q repository.Querier, userID string) (*AuthUser, error) {
	userSQL := r.dialect.Rebind(`SELECT ` + userColumns + ` FROM users WHERE id = ?`)
	user, err := repository.QueryOne(ctx, q, userSQL, []any{userID}, scanUser)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	agentSQL := r.dialect.Rebind(`SELECT ` + agentColumns + ` FROM agents WHERE user_id = ? ORDER BY created_at, id`)
	agents, err := repository.QueryMany(ctx, q, agentSQL, []any{userID}, scanAgent)
	if err != nil {
		return nil, fmt.Errorf("query agents: %w", err)
	}
	user.Agents = agents

	return &user, nil
}

func (r *repo) Save(ctx context.Context, userID string, cmd SaveUserCommand) (*AuthUser, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: user id required", ErrInvalid)
	}
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	role := cmd.Role
	onConflict := `name = excluded.name, email = excluded.email, avatar_ref = excluded.avatar_ref,
			bio = excluded.bio, updated_at = excluded.updated_at`
	if role != "" {
		onConflict += `, role = excluded.role`
	} else {
		role = RoleUser
	}

	q := r.dialect.Rebind(`
		INSERT INTO users (id, name, email, role, is_active, avatar_ref, bio, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET ` + onConflict)

	now := r.now()
	user, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (*AuthUser, error) {
		if _, err := tx.ExecContext(ctx, q,
			userID, cmd.Name, cmd.Email, string(role), true, cmd.AvatarRef, cmd.Bio, now, now,
		); err != nil {
			return nil, err
		}
		return r.find(ctx, tx, userID)
	})
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Info("user saved", "user_id", userID)
	return user, nil
}

func (r *repo) SaveAgent(ctx context.Context, userID string, cmd SaveAgentCommand) (*AgentProfile, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	tools, err := encodeTools(cmd.Tools)
	if err != nil {
		return nil, err
	}

	created := cmd.ID == ""
	if created {
		cmd.ID = uuid.NewString()
	}

	now := r.now()
	agent, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (AgentProfile, error) {
		if created {
			exists := r.dialect.Rebind(`SELECT id FROM users WHERE id = ?`)
			var id string
			if err := tx.QueryRowContext(ctx, exists, userID).Scan(&id); err != nil {
				return AgentProfile{}, repository.MapError(err, ErrNotFound, ErrDuplicate)
			}

			insert := r.dialect.Rebind(`
				INSERT INTO agents (id, user_id, name, description, avatar_ref, tools, webhook_url, created_at, updated_at)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
			if _, err := tx.ExecContext(ctx, insert,
				cmd.ID, userID, cmd.Name, cmd.Description, cmd.AvatarRef, tools, cmd.WebhookURL, now, now,
			); err != nil {
				return AgentProfile{}, err
			}
		} else {
			update := r.dialect.Rebind(`
				UPDATE agents
				SET name = ?, description = ?, avatar_ref = ?, tools = ?, webhook_url = ?, updated_at = ?
				WHERE id = ? AND user_id = ?`)
			err := repository.ExecExpectOne(ctx, tx, update,
				cmd.Name, cmd.Description, cmd.AvatarRef, tools, cmd.WebhookURL, now, cmd.ID, userID,
			)
			if err != nil {
				return AgentProfile{}, repository.MapError(err, ErrAgentNotFound, ErrDuplicate)
			}
		}

		sel := r.dialect.Rebind(`SELECT ` + agentColumns + ` FROM agents WHERE id = ?`)
		return repository.QueryOne(ctx, tx, sel, []any{cmd.ID}, scanAgent)
	})
	if err != nil {
		return nil, repository.MapError(err, ErrAgentNotFound, ErrDuplicate)
	}

	r.logger.Info("agent saved", "user_id", userID, "agent_id", agent.ID, "created", created)
	return &agent, nil
}

func (r *repo) DeleteAgent(ctx context.Context, userID, agentID string) error {
	_, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (struct{}, error) {
		del := r.dialect.Rebind(`DELETE FROM agents WHERE id = ? AND user_id = ?`)
		if err := repository.ExecExpectOne(ctx, tx, del, agentID, userID); err != nil {
			return struct{}{}, err
		}

		conv := r.dialect.Rebind(`DELETE FROM conversations WHERE user_id = ? AND agent_id = ?`)
		if _, err := tx.ExecContext(ctx, conv, userID, agentID); err != nil {
			return struct{}{}, fmt.Errorf("delete conversation: %w", err)
		}
		return struct{}{}, nil
	})
	if err != nil {
		return repository.MapError(err, ErrAgentNotFound, ErrDuplicate)
	}

	r.logger.Info("agent deleted", "user_id", userID, "agent_id", agentID)
	return nil
}

func (r *repo) SetActive(ctx context.Context, userID string, active bool) (*AuthUser, error) {
	q := r.dialect.Rebind(`UPDATE users SET is_active = ?, updated_at = ? WHERE id = ?`)
	if err := repository.ExecExpectOne(ctx, r.db, q, active, r.now(), userID); err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Info("user activation changed", "user_id", userID, "active", active)
	return r.Find(ctx, userID)
}

func (r *repo) ListActive(ctx context.Context) ([]AuthUser, error) {
	userSQL := r.dialect.Rebind(`SELECT ` + userColumns + ` FROM users WHERE is_active = ? ORDER BY created_at, id`)
	users, err := repository.QueryMany(ctx, r.db, userSQL, []any{true}, scanUser)
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	if len(users) == 0 {
		return users, nil
	}

	agentSQL := r.dialect.Rebind(`
		SELECT a.id, a.user_id, a.name, a.description, a.avatar_ref, a.tools, a.webhook_url, a.created_at, a.updated_at
		FROM agents a
		JOIN users u ON u.id = a.user_id
		WHERE u.is_active = ?
		ORDER BY a.user_id, a.created_at, a.id`)
	agents, err := repository.QueryMany(ctx, r.db, agentSQL, []any{true}, scanAgent)
	if err != nil {
		return nil, fmt.Errorf("query agents: %w", err)
	}

	index := make(map[string]int, len(users))
	for i, u := range users {
		index[u.ID] = i
	}
	for _, a := range agents {
		if i, ok := index[a.UserID]; ok {
			users[i].Agents = append(users[i].Agents, a)
		}
	}
	return users, nil
}
