package webhook

import (
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"
)

// AuthType selects how outbound requests authenticate.
type AuthType string

const (
	AuthNone   AuthType = "none"
	AuthAPIKey AuthType = "apiKey"
	AuthBasic  AuthType = "basic"
	AuthOAuth  AuthType = "oauth"
)

// ParseAuthType accepts the canonical names case-insensitively. Blank
// input is AuthNone.
func ParseAuthType(s string) (AuthType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return AuthNone, nil
	case "apikey", "api_key":
		return AuthAPIKey, nil
	case "basic":
		return AuthBasic, nil
	case "oauth", "bearer":
		return AuthOAuth, nil
	default:
		return "", fmt.Errorf("unknown auth type %q", s)
	}
}

// Auth is the resolved authentication for one dispatch, with secrets
// merged in.
type Auth struct {
	Type         AuthType
	APIKeyHeader string
	APIKey       string
	Username     string
	Password     string
	Token        string
}

// Apply sets the auth header for a.Type on h. Missing credentials leave the
// request unauthenticated rather than failing.
func (a Auth) Apply(h http.Header) {
	switch a.Type {
	case AuthAPIKey:
		if a.APIKey != "" && a.APIKeyHeader != "" {
			h.Set(a.APIKeyHeader, a.APIKey)
		}
	case AuthBasic:
		if a.Username != "" || a.Password != "" {
			creds := base64.StdEncoding.EncodeToString([]byte(a.Username + ":" + a.Password))
			h.Set("Authorization", "Basic "+creds)
		}
	case AuthOAuth:
		if a.Token != "" {
			h.Set("Authorization", "Bearer "+a.Token)
		}
	}
}
