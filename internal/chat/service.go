// Package chat runs conversations between users and their webhook agents:
// loading or seeding a conversation, sending a turn with an optimistic
// append, and reconciling stored records with agent profiles.
package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/agent-chat/internal/conversations"
	"github.com/JaimeStill/agent-chat/internal/profiles"
	"github.com/JaimeStill/agent-chat/internal/webhook"
)

// ErrorPrefix starts every synthetic agent message reporting a failed dispatch.
const ErrorPrefix = "Webhook Fehler: "

// Resolver yields the endpoint and credentials for a user's dispatch.
type Resolver interface {
	Resolve(ctx context.Context, userID, agentURL string) (string, webhook.Auth, error)
}

// PayloadBuilder encodes a turn for the wire.
type PayloadBuilder interface {
	Build(ctx context.Context, turn webhook.Turn) (*webhook.Payload, error)
}

// Dispatcher performs one webhook call.
type Dispatcher interface {
	Dispatch(ctx context.Context, req webhook.Request) (*webhook.RawResponse, error)
}

// Deps are the collaborators of a Service.
type Deps struct {
	Profiles      profiles.System
	Conversations conversations.System
	Resolver      Resolver
	Builder       PayloadBuilder
	Dispatcher    Dispatcher
	Normalizer    webhook.Normalizer
}

// FileInput is an attachment already written to blob storage.
type FileInput struct {
	Name     string
	MimeType string
	Size     int64
	Ref      string
}

// AudioInput is a recorded voice note already written to blob storage.
type AudioInput struct {
	Ref        string
	MimeType   string
	Size       int64
	DurationMs int64
	Waveform   []float64
}

// SendInput is one user turn.
type SendInput struct {
	Text  string
	Files []FileInput
	Audio *AudioInput
}

// Result is the settled outcome of a send.
type Result struct {
	Conversation conversations.Conversation `json:"conversation"`
	Message      conversations.ChatMessage  `json:"message"`
	Reply        conversations.ChatMessage  `json:"reply"`

	// DispatchError describes the failure rendered into Reply, if any.
	DispatchError string `json:"dispatch_error,omitempty"`
}

// Service owns the per-pair conversation sessions.
type Service struct {
	deps        Deps
	concurrency int
	sessions    sessions
	now         func() time.Time
	logger      *slog.Logger
}

// New creates a Service. concurrency bounds parallel writes during
// Reconcile.
func New(deps Deps, concurrency int, logger *slog.Logger) *Service {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Service{
		deps:        deps,
		concurrency: concurrency,
		now:         func() time.Time { return time.Now().UTC() },
		logger:      logger.With("system", "chat"),
	}
}

// Greeting is the first agent message of a new conversation.
func Greeting(displayName string) string {
	if name := strings.TrimSpace(displayName); name != "" {
		return fmt.Sprintf("Hallo %s! Wie kann ich dir heute helfen?", name)
	}
	return "Hallo! Wie kann ich dir heute helfen?"
}

// State reports the lifecycle state of the pair.
func (s *Service) State(userID, agentID string) State {
	sess, ok := s.sessions.peek(pair{userID, agentID})
	if !ok {
		return Absent
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.state
}

// List returns the user's stored conversations.
func (s *Service) List(ctx context.Context, userID string) ([]conversations.Conversation, error) {
	return s.deps.Conversations.List(ctx, userID)
}

// Load returns the pair's conversation, seeding and persisting a greeting
// when none is stored yet.
func (s *Service) Load(ctx context.Context, userID, agentID string) (*conversations.Conversation, error) {
	user, agent, err := s.owner(ctx, userID, agentID)
	if err != nil {
		return nil, err
	}

	sess := s.sessions.get(pair{userID, agentID})
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if err := s.ensureLoaded(ctx, sess, user, agent); err != nil {
		return nil, err
	}
	conv := sess.conv.Clone()
	return &conv, nil
}

// Send runs one turn: the user message is appended and saved, the webhook
// is called, and its reply or a synthetic error message is appended and
// saved. Failures before dispatch roll the append back and are returned.
// Dispatch failures are not errors; they become the agent's reply.
func (s *Service) Send(ctx context.Context, userID, agentID string, in SendInput) (*Result, error) {
	turn := turnOf(in)
	if turn.Empty() {
		return nil, webhook.ErrEmptyTurn
	}

	user, agent, err := s.owner(ctx, userID, agentID)
	if err != nil {
		return nil, err
	}

	sess := s.sessions.get(pair{userID, agentID})
	sess.mu.Lock()
	if sess.gone {
		sess.mu.Unlock()
		return nil, ErrAgentNotFound
	}
	if sess.state == PendingSend {
		sess.mu.Unlock()
		return nil, ErrSendInProgress
	}

	// The send outlives the caller from here; the dispatch timeout is the
	// only cancellation.
	ctx = context.WithoutCancel(ctx)

	if err := s.ensureLoaded(ctx, sess, user, agent); err != nil {
		sess.mu.Unlock()
		return nil, err
	}

	prev := sess.conv.Clone()
	msg := s.userMessage(in, turn.Content())
	turn.ConversationID = prev.ID
	turn.MessageID = msg.ID
	turn.History = conversations.History(prev.Messages)

	next := prev.Clone()
	next.Messages = append(next.Messages, msg)
	sess.conv = &next
	sess.state = PendingSend

	rollback := func(err error) (*Result, error) {
		sess.conv = &prev
		sess.state = Loaded
		sess.mu.Unlock()
		return nil, err
	}

	endpoint, auth, err := s.deps.Resolver.Resolve(ctx, userID, agent.WebhookURL)
	if err != nil {
		return rollback(err)
	}
	payload, err := s.deps.Builder.Build(ctx, turn)
	if err != nil {
		return rollback(err)
	}

	saved, err := s.persistMessages(ctx, userID, agentID, next.Messages)
	if err != nil {
		s.logger.Error("persist user message failed", "user_id", userID, "agent_id", agentID, "error", err)
		return rollback(fmt.Errorf("%w: %w", ErrPersistence, err))
	}
	sess.conv = saved
	sess.dirty = false
	sess.mu.Unlock()

	resp, dispatchErr := s.deps.Dispatcher.Dispatch(ctx, webhook.Request{
		Endpoint: endpoint,
		Auth:     auth,
		Payload:  payload,
	})

	var content string
	if dispatchErr != nil {
		content = ErrorPrefix + webhook.Describe(dispatchErr)
	} else {
		content = s.deps.Normalizer.Normalize(*resp)
	}
	reply := conversations.ChatMessage{
		ID:        uuid.NewString(),
		Author:    conversations.AuthorAgent,
		Content:   content,
		Timestamp: s.now(),
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	settled := sess.conv.Clone()
	settled.Messages = append(settled.Messages, reply)
	settled.Preview = conversations.PreviewOf(settled.Messages)
	settled.LastUpdatedAt = reply.Timestamp
	sess.conv = &settled
	sess.state = Settled

	if sess.gone {
		s.logger.Info("agent deleted during send; reply not persisted", "user_id", userID, "agent_id", agentID)
	} else if saved, err := s.persistMessages(ctx, userID, agentID, settled.Messages); err != nil {
		sess.dirty = true
		s.logger.Error("persist agent reply failed; will retry on reconcile",
			"user_id", userID, "agent_id", agentID, "error", err)
	} else {
		sess.conv = saved
		sess.dirty = false
	}

	result := &Result{
		Conversation: sess.conv.Clone(),
		Message:      msg,
		Reply:        reply,
	}
	if dispatchErr != nil {
		result.DispatchError = webhook.Describe(dispatchErr)
	}
	return result, nil
}

// owner loads the user and the agent they own, enforcing activation.
func (s *Service) owner(ctx context.Context, userID, agentID string) (*profiles.AuthUser, profiles.AgentProfile, error) {
	user, err := s.deps.Profiles.Find(ctx, userID)
	if err != nil {
		return nil, profiles.AgentProfile{}, err
	}
	if !user.IsActive {
		return nil, profiles.AgentProfile{}, ErrUserInactive
	}
	agent, ok := user.Agent(agentID)
	if !ok {
		return nil, profiles.AgentProfile{}, ErrAgentNotFound
	}
	return user, agent, nil
}

// ensureLoaded moves sess out of Absent. The caller holds sess.mu.
func (s *Service) ensureLoaded(ctx context.Context, sess *session, user *profiles.AuthUser, agent profiles.AgentProfile) error {
	if sess.conv != nil {
		return s.syncLocked(ctx, sess, user.ID, agent)
	}

	conv, err := s.deps.Conversations.Find(ctx, user.ID, agent.ID)
	switch {
	case errors.Is(err, conversations.ErrNotFound):
		conv, err = s.seed(ctx, user, agent)
		if err != nil {
			return err
		}
	case err != nil:
		return err
	}

	sess.conv = conv
	sess.state = Loaded
	return s.syncLocked(ctx, sess, user.ID, agent)
}

func (s *Service) seed(ctx context.Context, user *profiles.AuthUser, agent profiles.AgentProfile) (*conversations.Conversation, error) {
	greeting := conversations.ChatMessage{
		ID:        uuid.NewString(),
		Author:    conversations.AuthorAgent,
		Content:   Greeting(user.DisplayName()),
		Timestamp: s.now(),
	}
	messages := []conversations.ChatMessage{greeting}
	preview := conversations.PreviewOf(messages)
	meta := conversations.SnapshotOf(agent)

	conv, err := s.deps.Conversations.Upsert(ctx, user.ID, agent.ID, conversations.Update{
		Messages:      &messages,
		Preview:       &preview,
		LastUpdatedAt: &greeting.Timestamp,
		Metadata:      &meta,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPersistence, err)
	}

	s.logger.Info("conversation seeded", "user_id", user.ID, "agent_id", agent.ID, "conversation_id", conv.ID)
	return conv, nil
}

func (s *Service) persistMessages(ctx context.Context, userID, agentID string, messages []conversations.ChatMessage) (*conversations.Conversation, error) {
	preview := conversations.PreviewOf(messages)
	at := messages[len(messages)-1].Timestamp
	return s.deps.Conversations.Upsert(ctx, userID, agentID, conversations.Update{
		Messages:      &messages,
		Preview:       &preview,
		LastUpdatedAt: &at,
	})
}

// userMessage records content as resolved for the turn, so attachment-only
// turns carry their placeholder.
func (s *Service) userMessage(in SendInput, content string) conversations.ChatMessage {
	msg := conversations.ChatMessage{
		ID:        uuid.NewString(),
		Author:    conversations.AuthorUser,
		Content:   content,
		Timestamp: s.now(),
	}
	for _, f := range in.Files {
		msg.Attachments = append(msg.Attachments, conversations.ChatAttachment{
			ID:       uuid.NewString(),
			Name:     f.Name,
			Size:     f.Size,
			MimeType: webhook.ResolveMimeType(f.Name, f.MimeType),
			Kind:     conversations.KindFile,
			Ref:      f.Ref,
		})
	}
	if a := in.Audio; a != nil {
		seconds := float64(a.DurationMs) / 1000
		msg.Attachments = append(msg.Attachments, conversations.ChatAttachment{
			ID:              uuid.NewString(),
			Name:            "voice-note",
			Size:            a.Size,
			MimeType:        a.MimeType,
			Kind:            conversations.KindAudio,
			Ref:             a.Ref,
			DurationSeconds: &seconds,
			Waveform:        a.Waveform,
		})
	}
	return msg
}

func turnOf(in SendInput) webhook.Turn {
	turn := webhook.Turn{Text: in.Text}
	for _, f := range in.Files {
		turn.Files = append(turn.Files, webhook.File{
			Name:     f.Name,
			MimeType: f.MimeType,
			Size:     f.Size,
			Ref:      f.Ref,
		})
	}
	if a := in.Audio; a != nil {
		turn.Audio = &webhook.Audio{
			Ref:        a.Ref,
			MimeType:   a.MimeType,
			DurationMs: a.DurationMs,
			Waveform:   a.Waveform,
		}
	}
	return turn
}
