package profiles

import (
	"fmt"
	"net/url"
	"slices"
	"strings"
	"time"
)

// Role is an AuthUser's authorization role.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// AuthUser is an account and the agents it owns.
type AuthUser struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Email     string         `json:"email"`
	Role      Role           `json:"role"`
	IsActive  bool           `json:"is_active"`
	AvatarRef string         `json:"avatar_ref,omitempty"`
	Bio       string         `json:"bio,omitempty"`
	Agents    []AgentProfile `json:"agents"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// Agent returns the owned agent with id.
func (u *AuthUser) Agent(id string) (AgentProfile, bool) {
	for _, a := range u.Agents {
		if a.ID == id {
			return a, true
		}
	}
	return AgentProfile{}, false
}

// DisplayName is the name used in greetings: the user's name, else the
// local part of their email, else "".
func (u *AuthUser) DisplayName() string {
	if name := strings.TrimSpace(u.Name); name != "" {
		return name
	}
	if local, _, ok := strings.Cut(u.Email, "@"); ok {
		return strings.TrimSpace(local)
	}
	return ""
}

// AgentProfile is a configured agent forwarding turns to a webhook.
type AgentProfile struct {
	ID          string    `json:"id"`
	UserID      string    `json:"-"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	AvatarRef   string    `json:"avatar_ref,omitempty"`
	Tools       []string  `json:"tools"`
	WebhookURL  string    `json:"webhook_url,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// SaveUserCommand upserts profile fields. Role is only honored on creation
// paths that set it explicitly (CLI); the API never does.
type SaveUserCommand struct {
	Name      string `json:"name"`
	Email     string `json:"email"`
	AvatarRef string `json:"avatar_ref"`
	Bio       string `json:"bio"`
	Role      Role   `json:"-"`
}

// SaveAgentCommand creates an agent when ID is empty, otherwise updates it.
type SaveAgentCommand struct {
	ID          string   `json:"-"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	AvatarRef   string   `json:"avatar_ref"`
	Tools       []string `json:"tools"`
	WebhookURL  string   `json:"webhook_url"`
}

// Validate normalizes the command in place and reports invalid fields.
func (c *SaveAgentCommand) Validate() error {
	c.Name = strings.TrimSpace(c.Name)
	c.Description = strings.TrimSpace(c.Description)
	c.AvatarRef = strings.TrimSpace(c.AvatarRef)
	c.WebhookURL = strings.TrimSpace(c.WebhookURL)
	c.Tools = NormalizeTools(c.Tools)

	if c.Name == "" {
		return fmt.Errorf("%w: name required", ErrInvalid)
	}
	if c.WebhookURL != "" {
		if err := ValidateWebhookURL(c.WebhookURL); err != nil {
			return err
		}
	}
	return nil
}

// Validate normalizes the command in place and reports invalid fields.
func (c *SaveUserCommand) Validate() error {
	c.Name = strings.TrimSpace(c.Name)
	c.Email = strings.ToLower(strings.TrimSpace(c.Email))
	c.AvatarRef = strings.TrimSpace(c.AvatarRef)
	c.Bio = strings.TrimSpace(c.Bio)

	if c.Email != "" && !strings.Contains(c.Email, "@") {
		return fmt.Errorf("%w: invalid email %q", ErrInvalid, c.Email)
	}
	switch c.Role {
	case "", RoleUser, RoleAdmin:
	default:
		return fmt.Errorf("%w: unknown role %q", ErrInvalid, c.Role)
	}
	return nil
}

// ValidateWebhookURL requires an absolute http(s) URL.
func ValidateWebhookURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("%w: webhook url must be an absolute http(s) url", ErrInvalid)
	}
	return nil
}

// NormalizeTools trims entries, drops blanks, and removes duplicates while
// keeping first-seen order. The result is never nil.
func NormalizeTools(tools []string) []string {
	out := make([]string, 0, len(tools))
	for _, t := range tools {
		t = strings.TrimSpace(t)
		if t == "" || slices.Contains(out, t) {
			continue
		}
		out = append(out, t)
	}
	return out
}

// SameTools reports whether a and b hold the same tools after
// normalization, ignoring order.
func SameTools(a, b []string) bool {
	na, nb := NormalizeTools(a), NormalizeTools(b)
	if len(na) != len(nb) {
		return false
	}
	for _, t := range na {
		if !slices.Contains(nb, t) {
			return false
		}
	}
	return true
}
