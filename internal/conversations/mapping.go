package conversations

import (
	"encoding/json"
	"fmt"

	"github.com/JaimeStill/agent-chat/pkg/repository"
)

const columns = `id, user_id, agent_id, messages, preview, last_updated_at, metadata, created_at`

func scanConversation(s repository.Scanner) (Conversation, error) {
	var c Conversation
	var messages, metadata []byte
	err := s.Scan(
		&c.ID, &c.UserID, &c.AgentID, &messages, &c.Preview,
		&c.LastUpdatedAt, &metadata, &c.CreatedAt,
	)
	if err != nil {
		return c, err
	}

	if err := json.Unmarshal(messages, &c.Messages); err != nil {
		return c, fmt.Errorf("decode messages for conversation %s: %w", c.ID, err)
	}
	if c.Messages == nil {
		c.Messages = []ChatMessage{}
	}
	if err := json.Unmarshal(metadata, &c.Metadata); err != nil {
		return c, fmt.Errorf("decode metadata for conversation %s: %w", c.ID, err)
	}
	return c, nil
}

func encode(c *Conversation) (messages, metadata string, err error) {
	msgs := c.Messages
	if msgs == nil {
		msgs = []ChatMessage{}
	}
	m, err := json.Marshal(msgs)
	if err != nil {
		return "", "", fmt.Errorf("encode messages: %w", err)
	}
	md, err := json.Marshal(c.Metadata)
	if err != nil {
		return "", "", fmt.Errorf("encode metadata: %w", err)
	}
	return string(m), string(md), nil
}

// apply merges u into c.
func (u Update) apply(c *Conversation) {
	if u.Messages != nil {
		c.Messages = append([]ChatMessage(nil), (*u.Messages)...)
	}
	if u.Preview != nil {
		c.Preview = *u.Preview
	}
	if u.LastUpdatedAt != nil {
		c.LastUpdatedAt = u.LastUpdatedAt.UTC()
	}
	if u.Metadata != nil {
		c.Metadata = *u.Metadata
	}
}
