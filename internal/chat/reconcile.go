package chat

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/JaimeStill/agent-chat/internal/conversations"
	"github.com/JaimeStill/agent-chat/internal/profiles"
)

// Report counts the writes made by one reconciliation pass.
type Report struct {
	UserID   string `json:"user_id"`
	Synced   int    `json:"synced"`
	Orphaned int    `json:"orphaned"`
	Repaired int    `json:"repaired"`
	Failed   int    `json:"failed"`
}

func (r *Report) Changed() bool {
	return r.Synced+r.Orphaned+r.Repaired > 0
}

// SyncMetadata writes agent's metadata to the pair's record when the stored
// snapshot is stale. Messages are never touched. It reports whether a write
// was made; a pair with no record is left alone.
func (s *Service) SyncMetadata(ctx context.Context, userID string, agent profiles.AgentProfile) (bool, error) {
	sess, ok := s.sessions.peek(pair{userID, agent.ID})
	if ok {
		sess.mu.Lock()
		defer sess.mu.Unlock()
		if sess.conv != nil {
			before := sess.conv.Metadata
			if err := s.syncLocked(ctx, sess, userID, agent); err != nil {
				return false, err
			}
			return !before.Matches(agent), nil
		}
	}

	conv, err := s.deps.Conversations.Find(ctx, userID, agent.ID)
	if errors.Is(err, conversations.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if conv.Metadata.Matches(agent) {
		return false, nil
	}
	if _, err := s.writeMetadata(ctx, userID, agent); err != nil {
		return false, err
	}
	return true, nil
}

// syncLocked refreshes the session's metadata snapshot. The caller holds
// sess.mu and sess.conv is non-nil.
func (s *Service) syncLocked(ctx context.Context, sess *session, userID string, agent profiles.AgentProfile) error {
	if sess.conv.Metadata.Matches(agent) {
		return nil
	}
	saved, err := s.writeMetadata(ctx, userID, agent)
	if err != nil {
		return err
	}
	sess.conv.Metadata = saved.Metadata
	if sess.conv.ID == "" {
		sess.conv.ID = saved.ID
	}
	return nil
}

func (s *Service) writeMetadata(ctx context.Context, userID string, agent profiles.AgentProfile) (*conversations.Conversation, error) {
	meta := conversations.SnapshotOf(agent)
	saved, err := s.deps.Conversations.Upsert(ctx, userID, agent.ID, conversations.Update{Metadata: &meta})
	if err != nil {
		return nil, fmt.Errorf("sync metadata: %w", err)
	}
	s.logger.Info("agent metadata synced", "user_id", userID, "agent_id", agent.ID)
	return saved, nil
}

// Reconcile brings every stored conversation of the user in line with their
// current agents: stale metadata is rewritten, records for agents the user
// no longer owns are deleted, and sessions whose last write failed are saved
// again. Per-pair failures are logged and counted; the first is returned.
func (s *Service) Reconcile(ctx context.Context, userID string) (*Report, error) {
	user, err := s.deps.Profiles.Find(ctx, userID)
	if err != nil {
		return nil, err
	}
	stored, err := s.deps.Conversations.List(ctx, userID)
	if err != nil {
		return nil, err
	}

	local := s.sessions.forUser(userID)
	report := &Report{UserID: userID}
	var mu sync.Mutex
	count := func(field *int) {
		mu.Lock()
		*field++
		mu.Unlock()
	}

	var g errgroup.Group
	g.SetLimit(s.concurrency)

	run := func(agentID string, fn func(context.Context) (*int, error)) {
		g.Go(func() error {
			field, err := fn(ctx)
			if err != nil {
				count(&report.Failed)
				s.logger.Warn("reconcile pair failed", "user_id", userID, "agent_id", agentID, "error", err)
				return err
			}
			if field != nil {
				count(field)
			}
			return nil
		})
	}

	seen := make(map[string]bool, len(stored))
	for _, conv := range stored {
		agentID := conv.AgentID
		seen[agentID] = true

		agent, owned := user.Agent(agentID)
		if !owned {
			run(agentID, func(ctx context.Context) (*int, error) {
				if err := s.deps.Conversations.Delete(ctx, userID, agentID); err != nil {
					return nil, err
				}
				s.sessions.drop(pair{userID, agentID})
				return &report.Orphaned, nil
			})
			continue
		}

		if sess, ok := local[agentID]; ok {
			run(agentID, func(ctx context.Context) (*int, error) {
				return s.reconcileSession(ctx, sess, userID, agent, &report.Repaired, &report.Synced)
			})
			continue
		}

		if !conv.Metadata.Matches(agent) {
			run(agentID, func(ctx context.Context) (*int, error) {
				if _, err := s.writeMetadata(ctx, userID, agent); err != nil {
					return nil, err
				}
				return &report.Synced, nil
			})
		}
	}

	// Dirty sessions whose record vanished from the store.
	for agentID, sess := range local {
		if seen[agentID] {
			continue
		}
		agent, owned := user.Agent(agentID)
		if !owned {
			s.sessions.drop(pair{userID, agentID})
			continue
		}
		run(agentID, func(ctx context.Context) (*int, error) {
			return s.reconcileSession(ctx, sess, userID, agent, &report.Repaired, nil)
		})
	}

	err = g.Wait()
	s.logger.Info("reconciliation complete",
		"user_id", userID,
		"synced", report.Synced,
		"orphaned", report.Orphaned,
		"repaired", report.Repaired,
		"failed", report.Failed,
	)
	return report, err
}

// reconcileSession saves a dirty session in full, or syncs its metadata.
// Sessions mid-send are skipped.
func (s *Service) reconcileSession(ctx context.Context, sess *session, userID string, agent profiles.AgentProfile, repaired, synced *int) (*int, error) {
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if sess.conv == nil || sess.gone || sess.state == PendingSend {
		return nil, nil
	}

	if sess.dirty {
		conv := sess.conv
		meta := conversations.SnapshotOf(agent)
		saved, err := s.deps.Conversations.Upsert(ctx, userID, agent.ID, conversations.Update{
			Messages:      &conv.Messages,
			Preview:       &conv.Preview,
			LastUpdatedAt: &conv.LastUpdatedAt,
			Metadata:      &meta,
		})
		if err != nil {
			return nil, fmt.Errorf("repersist: %w", err)
		}
		sess.conv = saved
		sess.dirty = false
		s.logger.Info("dirty conversation repersisted", "user_id", userID, "agent_id", agent.ID)
		return repaired, nil
	}

	if synced == nil || sess.conv.Metadata.Matches(agent) {
		return nil, nil
	}
	if err := s.syncLocked(ctx, sess, userID, agent); err != nil {
		return nil, err
	}
	return synced, nil
}

// AgentSaved syncs the conversation snapshot after an agent update.
func (s *Service) AgentSaved(ctx context.Context, userID string, agent profiles.AgentProfile) {
	if _, err := s.SyncMetadata(ctx, userID, agent); err != nil {
		s.logger.Warn("metadata sync after agent save failed", "user_id", userID, "agent_id", agent.ID, "error", err)
	}
}

// AgentDeleted forgets the pair's session and removes its record. An
// in-flight send for the pair finishes without writing.
func (s *Service) AgentDeleted(ctx context.Context, userID, agentID string) {
	s.sessions.drop(pair{userID, agentID})
	if err := s.deps.Conversations.Delete(ctx, userID, agentID); err != nil {
		s.logger.Warn("conversation delete after agent delete failed", "user_id", userID, "agent_id", agentID, "error", err)
	}
}
