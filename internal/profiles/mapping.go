package profiles

import (
	"encoding/json"
	"fmt"

	"github.com/JaimeStill/agent-chat/pkg/repository"
)

const userColumns = `id, name, email, role, is_active, avatar_ref, bio, created_at, updated_at`

const agentColumns = `id, user_id, name, description, avatar_ref, tools, webhook_url, created_at, updated_at`

func scanUser(s repository.Scanner) (AuthUser, error) {
	var u AuthUser
	var role string
	err := s.Scan(
		&u.ID, &u.Name, &u.Email, &role, &u.IsActive,
		&u.AvatarRef, &u.Bio, &u.CreatedAt, &u.UpdatedAt,
	)
	u.Role = Role(role)
	u.Agents = []AgentProfile{}
	return u, err
}

func scanAgent(s repository.Scanner) (AgentProfile, error) {
	var a AgentProfile
	var tools []byte
	err := s.Scan(
		&a.ID, &a.UserID, &a.Name, &a.Description, &a.AvatarRef,
		&tools, &a.WebhookURL, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return a, err
	}
	if err := json.Unmarshal(tools, &a.Tools); err != nil {
		return a, fmt.Errorf("decode tools for agent %s: %w", a.ID, err)
	}
	a.Tools = NormalizeTools(a.Tools)
	return a, nil
}

func encodeTools(tools []string) (string, error) {
	b, err := json.Marshal(NormalizeTools(tools))
	if err != nil {
		return "", fmt.Errorf("encode tools: %w", err)
	}
	return string(b), nil
}
