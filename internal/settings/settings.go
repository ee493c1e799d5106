// Package settings holds per-user webhook settings and their credentials.
// Credentials live only in a SecretStore and are merged in at dispatch time;
// the settings snapshots returned to callers never carry them.
package settings

import (
	"fmt"
	"strings"
	"time"

	"github.com/JaimeStill/agent-chat/internal/profiles"
	"github.com/JaimeStill/agent-chat/internal/webhook"
)

// AgentSettings is the user's global webhook configuration and display
// preferences.
type AgentSettings struct {
	WebhookURL   string            `json:"webhook_url"`
	AuthType     webhook.AuthType  `json:"auth_type"`
	APIKeyHeader string            `json:"api_key_header,omitempty"`
	DisplayName  string            `json:"display_name,omitempty"`
	Prefs        map[string]string `json:"prefs,omitempty"`
	UpdatedAt    time.Time         `json:"updated_at"`
}

// Normalize trims fields and canonicalizes AuthType.
func (s *AgentSettings) Normalize() error {
	s.WebhookURL = strings.TrimSpace(s.WebhookURL)
	s.APIKeyHeader = strings.TrimSpace(s.APIKeyHeader)
	s.DisplayName = strings.TrimSpace(s.DisplayName)

	auth, err := webhook.ParseAuthType(string(s.AuthType))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	s.AuthType = auth

	if s.WebhookURL != "" {
		if err := profiles.ValidateWebhookURL(s.WebhookURL); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalid, err)
		}
	}
	return nil
}

// Secrets are the credentials for the user's auth type.
type Secrets struct {
	APIKey            string `json:"api_key,omitempty"`
	BasicAuthUsername string `json:"basic_auth_username,omitempty"`
	BasicAuthPassword string `json:"basic_auth_password,omitempty"`
	OAuthToken        string `json:"oauth_token,omitempty"`
}

// Empty reports whether no credential is set.
func (s Secrets) Empty() bool {
	return s == Secrets{}
}

// Merge returns s with every non-empty field of overlay applied.
func (s Secrets) Merge(overlay Secrets) Secrets {
	if overlay.APIKey != "" {
		s.APIKey = overlay.APIKey
	}
	if overlay.BasicAuthUsername != "" {
		s.BasicAuthUsername = overlay.BasicAuthUsername
	}
	if overlay.BasicAuthPassword != "" {
		s.BasicAuthPassword = overlay.BasicAuthPassword
	}
	if overlay.OAuthToken != "" {
		s.OAuthToken = overlay.OAuthToken
	}
	return s
}

// SecretFlags reports which credentials are stored without exposing them.
type SecretFlags struct {
	APIKey    bool `json:"api_key"`
	BasicAuth bool `json:"basic_auth"`
	OAuth     bool `json:"oauth_token"`
}

// Flags summarizes s.
func (s Secrets) Flags() SecretFlags {
	return SecretFlags{
		APIKey:    s.APIKey != "",
		BasicAuth: s.BasicAuthUsername != "" || s.BasicAuthPassword != "",
		OAuth:     s.OAuthToken != "",
	}
}

// Snapshot is what the API returns for GET /api/settings.
type Snapshot struct {
	AgentSettings
	HasSecrets SecretFlags `json:"has_secrets"`
}
