package chat_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/JaimeStill/agent-chat/internal/chat"
	"github.com/JaimeStill/agent-chat/internal/conversations"
	"github.com/JaimeStill/agent-chat/internal/profiles"
	"github.com/JaimeStill/agent-chat/internal/webhook"
	"github.com/JaimeStill/agent-chat/pkg/logging"
)

var errStoreDown = errors.New("store unavailable")

// memConversations is an in-memory conversations.System that counts writes
// and can fail chosen upserts.
type memConversations struct {
	mu      sync.Mutex
	records map[string]conversations.Conversation
	upserts int
	deletes int

	// failNext makes the next n upserts fail.
	failNext int
}

func newMemConversations() *memConversations {
	return &memConversations{records: make(map[string]conversations.Conversation)}
}

func key(userID, agentID string) string { return userID + "/" + agentID }

func (m *memConversations) List(ctx context.Context, userID string) ([]conversations.Conversation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []conversations.Conversation
	for _, c := range m.records {
		if c.UserID == userID {
			out = append(out, c.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LastUpdatedAt.After(out[j].LastUpdatedAt) })
	return out, nil
}

func (m *memConversations) Find(ctx context.Context, userID, agentID string) (*conversations.Conversation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.records[key(userID, agentID)]
	if !ok {
		return nil, conversations.ErrNotFound
	}
	c = c.Clone()
	return &c, nil
}

func (m *memConversations) Upsert(ctx context.Context, userID, agentID string, u conversations.Update) (*conversations.Conversation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failNext > 0 {
		m.failNext--
		return nil, errStoreDown
	}
	m.upserts++

	c, ok := m.records[key(userID, agentID)]
	if !ok {
		c = conversations.Conversation{
			ID:        uuid.NewString(),
			UserID:    userID,
			AgentID:   agentID,
			CreatedAt: time.Now().UTC(),
		}
	}
	if u.Messages != nil {
		c.Messages = append([]conversations.ChatMessage(nil), (*u.Messages)...)
	}
	if u.Preview != nil {
		c.Preview = *u.Preview
	}
	if u.LastUpdatedAt != nil {
		c.LastUpdatedAt = *u.LastUpdatedAt
	}
	if u.Metadata != nil {
		c.Metadata = *u.Metadata
	}
	m.records[key(userID, agentID)] = c

	out := c.Clone()
	return &out, nil
}

func (m *memConversations) Delete(ctx context.Context, userID, agentID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deletes++
	delete(m.records, key(userID, agentID))
	return nil
}

func (m *memConversations) writes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.upserts + m.deletes
}

func (m *memConversations) stored(t *testing.T, userID, agentID string) conversations.Conversation {
	t.Helper()
	c, err := m.Find(context.Background(), userID, agentID)
	if err != nil {
		t.Fatalf("stored(%s, %s): %v", userID, agentID, err)
	}
	return *c
}

// memProfiles serves a single mutable user.
type memProfiles struct {
	mu   sync.Mutex
	user profiles.AuthUser
}

func (m *memProfiles) Find(ctx context.Context, userID string) (*profiles.AuthUser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if userID != m.user.ID {
		return nil, profiles.ErrNotFound
	}
	u := m.user
	u.Agents = append([]profiles.AgentProfile(nil), m.user.Agents...)
	return &u, nil
}

func (m *memProfiles) update(fn func(u *profiles.AuthUser)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	fn(&m.user)
}

func (m *memProfiles) Save(context.Context, string, profiles.SaveUserCommand) (*profiles.AuthUser, error) {
	return nil, errors.New("not implemented")
}

func (m *memProfiles) SaveAgent(context.Context, string, profiles.SaveAgentCommand) (*profiles.AgentProfile, error) {
	return nil, errors.New("not implemented")
}

func (m *memProfiles) DeleteAgent(context.Context, string, string) error {
	return errors.New("not implemented")
}

func (m *memProfiles) SetActive(context.Context, string, bool) (*profiles.AuthUser, error) {
	return nil, errors.New("not implemented")
}

func (m *memProfiles) ListActive(context.Context) ([]profiles.AuthUser, error) {
	return nil, errors.New("not implemented")
}

// globalResolver resolves against a fixed global URL with no auth.
type globalResolver struct {
	url  string
	auth webhook.Auth
}

func (g *globalResolver) Resolve(ctx context.Context, userID, agentURL string) (string, webhook.Auth, error) {
	endpoint, err := webhook.ResolveEndpoint(agentURL, g.url)
	if err != nil {
		return "", webhook.Auth{}, err
	}
	return endpoint, g.auth, nil
}

type memBlobs map[string][]byte

func (b memBlobs) ReadBlob(ctx context.Context, ref string) ([]byte, error) {
	data, ok := b[ref]
	if !ok {
		return nil, errors.New("blob not found")
	}
	return data, nil
}

type harness struct {
	svc      *chat.Service
	convs    *memConversations
	profiles *memProfiles
	resolver *globalResolver
	blobs    memBlobs
}

const (
	userID  = "u1"
	agentID = "a1"
)

func newHarness(t *testing.T, globalURL string) *harness {
	t.Helper()

	h := &harness{
		convs: newMemConversations(),
		profiles: &memProfiles{user: profiles.AuthUser{
			ID:       userID,
			Name:     "Ada",
			Email:    "ada@example.com",
			Role:     profiles.RoleUser,
			IsActive: true,
			Agents: []profiles.AgentProfile{{
				ID:          agentID,
				UserID:      userID,
				Name:        "Helper",
				Description: "Answers questions",
				Tools:       []string{"a", "b"},
			}},
		}},
		resolver: &globalResolver{url: globalURL},
		blobs:    memBlobs{},
	}

	h.svc = newServiceWithReader(t, h, h.blobs)
	return h
}

func newServiceWithReader(t *testing.T, h *harness, blobs webhook.BlobReader) *chat.Service {
	t.Helper()

	cfg := &webhook.Config{Timeout: "2s"}
	if err := cfg.Finalize(nil); err != nil {
		t.Fatalf("webhook config: %v", err)
	}

	return chat.New(chat.Deps{
		Profiles:      h.profiles,
		Conversations: h.convs,
		Resolver:      h.resolver,
		Builder:       webhook.NewBuilder(blobs, 1<<20),
		Dispatcher:    webhook.NewDispatcher(cfg, nil, prometheus.NewRegistry(), logging.Discard()),
		Normalizer:    webhook.NewNormalizer(webhook.DefaultReply),
	}, 2, logging.Discard())
}

func webhookServer(t *testing.T, fn http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(fn)
	t.Cleanup(srv.Close)
	return srv
}

func decodeJSON(t *testing.T, r *http.Request, v any) {
	t.Helper()
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		t.Errorf("decode webhook body: %v", err)
	}
}
