package conversations_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/JaimeStill/agent-chat/internal/conversations"
	"github.com/JaimeStill/agent-chat/internal/dbtest"
	"github.com/JaimeStill/agent-chat/pkg/logging"
)

func newStore(t *testing.T) conversations.System {
	t.Helper()
	db := dbtest.New(t)
	return conversations.New(db.Connection(), db.Dialect(), logging.Discard())
}

func ptr[T any](v T) *T { return &v }

func TestUpsert_CreatesAndUpdates(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	ts := time.Date(2026, 5, 1, 9, 30, 0, 0, time.UTC)

	greeting := []conversations.ChatMessage{
		{ID: "m1", Author: conversations.AuthorAgent, Content: "Hallo!", Timestamp: ts},
	}
	created, err := store.Upsert(ctx, "u1", "a1", conversations.Update{
		Messages:      &greeting,
		Preview:       ptr("Hallo!"),
		LastUpdatedAt: &ts,
		Metadata:      &conversations.AgentSnapshot{Name: "A", Tools: []string{"x"}},
	})
	if err != nil {
		t.Fatalf("Upsert() create error = %v", err)
	}
	if created.ID == "" || len(created.Messages) != 1 || created.Preview != "Hallo!" {
		t.Errorf("created = %+v", created)
	}

	meta := conversations.AgentSnapshot{Name: "A2", Tools: []string{"x", "y"}}
	updated, err := store.Upsert(ctx, "u1", "a1", conversations.Update{Metadata: &meta})
	if err != nil {
		t.Fatalf("Upsert() metadata error = %v", err)
	}
	if updated.ID != created.ID {
		t.Errorf("conversation id changed: %s -> %s", created.ID, updated.ID)
	}
	if len(updated.Messages) != 1 || updated.Preview != "Hallo!" {
		t.Errorf("metadata-only update touched messages: %+v", updated)
	}

	found, err := store.Find(ctx, "u1", "a1")
	if err != nil {
		t.Fatalf("Find() error = %v", err)
	}
	if found.Metadata.Name != "A2" || len(found.Metadata.Tools) != 2 {
		t.Errorf("metadata = %+v", found.Metadata)
	}
	if !found.Messages[0].Timestamp.Equal(ts) || !found.LastUpdatedAt.Equal(ts) {
		t.Errorf("timestamps = %v / %v, want %v", found.Messages[0].Timestamp, found.LastUpdatedAt, ts)
	}
}

func TestFind_NotFound(t *testing.T) {
	store := newStore(t)
	if _, err := store.Find(context.Background(), "u1", "missing"); !errors.Is(err, conversations.ErrNotFound) {
		t.Errorf("Find() error = %v, want ErrNotFound", err)
	}
}

func TestList_OrderAndDelete(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	base := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)

	for i, agent := range []string{"a1", "a2", "a3"} {
		ts := base.Add(time.Duration(i) * time.Hour)
		if _, err := store.Upsert(ctx, "u1", agent, conversations.Update{LastUpdatedAt: &ts}); err != nil {
			t.Fatalf("Upsert(%s) error = %v", agent, err)
		}
	}
	store.Upsert(ctx, "u2", "a1", conversations.Update{})

	list, err := store.List(ctx, "u1")
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(list) != 3 || list[0].AgentID != "a3" || list[2].AgentID != "a1" {
		t.Errorf("List() order = %v", agentIDs(list))
	}

	if err := store.Delete(ctx, "u1", "a2"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if err := store.Delete(ctx, "u1", "a2"); err != nil {
		t.Errorf("Delete() of missing record error = %v, want nil", err)
	}

	list, _ = store.List(ctx, "u1")
	if len(list) != 2 {
		t.Errorf("List() after delete = %v", agentIDs(list))
	}
	if other, _ := store.List(ctx, "u2"); len(other) != 1 {
		t.Errorf("other user's records = %d, want 1", len(other))
	}
}

func agentIDs(list []conversations.Conversation) []string {
	ids := make([]string, len(list))
	for i, c := range list {
		ids[i] = c.AgentID
	}
	return ids
}
