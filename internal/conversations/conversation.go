// Package conversations persists one conversation record per (user, agent)
// pair: the append-only message list, a preview of the latest message, and a
// snapshot of the agent's metadata.
package conversations

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/JaimeStill/agent-chat/internal/profiles"
	"github.com/JaimeStill/agent-chat/internal/webhook"
)

// PreviewLimit is the maximum preview length in runes, ellipsis included.
const PreviewLimit = 140

type Author string

const (
	AuthorUser  Author = "user"
	AuthorAgent Author = "agent"
)

type AttachmentKind string

const (
	KindFile  AttachmentKind = "file"
	KindAudio AttachmentKind = "audio"
)

// ChatAttachment describes a stored file or voice note. Ref is the blob
// storage key.
type ChatAttachment struct {
	ID              string         `json:"id"`
	Name            string         `json:"name"`
	Size            int64          `json:"size"`
	MimeType        string         `json:"mime_type"`
	Kind            AttachmentKind `json:"kind"`
	Ref             string         `json:"ref"`
	DurationSeconds *float64       `json:"duration_seconds,omitempty"`
	Waveform        []float64      `json:"waveform,omitempty"`
}

// ChatMessage is immutable once appended.
type ChatMessage struct {
	ID          string           `json:"id"`
	Author      Author           `json:"author"`
	Content     string           `json:"content"`
	Timestamp   time.Time        `json:"timestamp"`
	Attachments []ChatAttachment `json:"attachments,omitempty"`
}

// EffectiveContent is the message text, or the attachment placeholder when
// the text is blank.
func (m ChatMessage) EffectiveContent() string {
	if c := strings.TrimSpace(m.Content); c != "" {
		return c
	}
	for _, a := range m.Attachments {
		if a.Kind == KindAudio {
			return webhook.AudioPlaceholder
		}
	}
	if len(m.Attachments) > 0 {
		return webhook.FilePlaceholder
	}
	return ""
}

// History converts messages into the outbound webhook history.
func History(messages []ChatMessage) []webhook.HistoryEntry {
	entries := make([]webhook.HistoryEntry, len(messages))
	for i, m := range messages {
		entries[i] = webhook.HistoryEntry{
			ID:        m.ID,
			Author:    string(m.Author),
			Content:   m.EffectiveContent(),
			Timestamp: m.Timestamp,
		}
	}
	return entries
}

// AgentSnapshot is the agent metadata cached on a conversation record.
type AgentSnapshot struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	AvatarRef   string   `json:"avatar_ref,omitempty"`
	Tools       []string `json:"tools"`
	WebhookURL  string   `json:"webhook_url,omitempty"`
}

// SnapshotOf captures the metadata of agent.
func SnapshotOf(agent profiles.AgentProfile) AgentSnapshot {
	return AgentSnapshot{
		Name:        agent.Name,
		Description: agent.Description,
		AvatarRef:   agent.AvatarRef,
		Tools:       profiles.NormalizeTools(agent.Tools),
		WebhookURL:  agent.WebhookURL,
	}
}

// Matches reports whether s still describes agent. Tools compare as sets.
func (s AgentSnapshot) Matches(agent profiles.AgentProfile) bool {
	return s.Name == agent.Name &&
		s.Description == agent.Description &&
		s.AvatarRef == agent.AvatarRef &&
		s.WebhookURL == agent.WebhookURL &&
		profiles.SameTools(s.Tools, agent.Tools)
}

// Conversation is the persisted record for one (user, agent) pair.
type Conversation struct {
	ID            string        `json:"conversation_id"`
	UserID        string        `json:"-"`
	AgentID       string        `json:"agent_id"`
	Messages      []ChatMessage `json:"messages"`
	Preview       string        `json:"preview"`
	LastUpdatedAt time.Time     `json:"last_updated_at"`
	Metadata      AgentSnapshot `json:"metadata"`
	CreatedAt     time.Time     `json:"created_at"`
}

// Clone returns a copy whose message slice can be appended to without
// affecting c.
func (c Conversation) Clone() Conversation {
	c.Messages = append([]ChatMessage(nil), c.Messages...)
	c.Metadata.Tools = append([]string(nil), c.Metadata.Tools...)
	return c
}

// Update is a partial write. Nil fields are left unchanged.
type Update struct {
	Messages      *[]ChatMessage
	Preview       *string
	LastUpdatedAt *time.Time
	Metadata      *AgentSnapshot
}

// Preview collapses whitespace in content and truncates it to PreviewLimit
// runes, ending in "…" when shortened.
func Preview(content string) string {
	s := strings.Join(strings.Fields(content), " ")
	if utf8.RuneCountInString(s) <= PreviewLimit {
		return s
	}
	runes := []rune(s)
	return strings.TrimRight(string(runes[:PreviewLimit-1]), " ") + "…"
}

// PreviewOf returns the preview for the most recent message.
func PreviewOf(messages []ChatMessage) string {
	if len(messages) == 0 {
		return ""
	}
	return Preview(messages[len(messages)-1].EffectiveContent())
}
