package auth

import (
	"fmt"
	"os"
	"time"
)

// Config contains API token settings.
type Config struct {
	// Secret is the HS256 signing key. Required.
	Secret string `toml:"jwt_secret"`

	// Issuer is set on issued tokens and required on verified ones.
	// Default: "agent-chat"
	Issuer string `toml:"issuer"`

	// TokenTTL bounds issued token lifetime. Default: "24h"
	TokenTTL string `toml:"token_ttl"`

	tokenTTL time.Duration
}

// Env maps environment variable names for auth overrides.
type Env struct {
	Secret   string
	Issuer   string
	TokenTTL string
}

// TokenTTLDuration returns the parsed TokenTTL. Valid after Finalize.
func (c *Config) TokenTTLDuration() time.Duration {
	return c.tokenTTL
}

// Finalize applies defaults, loads environment overrides, and validates.
func (c *Config) Finalize(env *Env) error {
	c.loadDefaults()
	if env != nil {
		c.loadEnv(env)
	}
	return c.validate()
}

// Merge applies non-zero overlay values.
func (c *Config) Merge(overlay *Config) {
	if overlay.Secret != "" {
		c.Secret = overlay.Secret
	}
	if overlay.Issuer != "" {
		c.Issuer = overlay.Issuer
	}
	if overlay.TokenTTL != "" {
		c.TokenTTL = overlay.TokenTTL
	}
}

func (c *Config) loadDefaults() {
	if c.Issuer == "" {
		c.Issuer = "agent-chat"
	}
	if c.TokenTTL == "" {
		c.TokenTTL = "24h"
	}
}

func (c *Config) loadEnv(env *Env) {
	if v := getenv(env.Secret); v != "" {
		c.Secret = v
	}
	if v := getenv(env.Issuer); v != "" {
		c.Issuer = v
	}
	if v := getenv(env.TokenTTL); v != "" {
		c.TokenTTL = v
	}
}

func (c *Config) validate() error {
	if len(c.Secret) < 16 {
		return fmt.Errorf("jwt_secret must be at least 16 characters")
	}
	d, err := time.ParseDuration(c.TokenTTL)
	if err != nil {
		return fmt.Errorf("invalid token_ttl: %w", err)
	}
	if d <= 0 {
		return fmt.Errorf("token_ttl must be positive")
	}
	c.tokenTTL = d
	return nil
}

func getenv(name string) string {
	if name == "" {
		return ""
	}
	return os.Getenv(name)
}
