package settings

import (
	"fmt"
	"os"
)

const (
	BackendKeyring  = "keyring"
	BackendDatabase = "database"
)

// Config selects where credentials are stored.
type Config struct {
	// Backend is "keyring" (OS keychain) or "database". Default: "keyring"
	Backend string `toml:"backend"`

	// ServiceName namespaces keychain entries. Default: "agent-chat"
	ServiceName string `toml:"service_name"`
}

// Env maps environment variable names for secret store overrides.
type Env struct {
	Backend     string
	ServiceName string
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
	if overlay.Backend != "" {
		c.Backend = overlay.Backend
	}
	if overlay.ServiceName != "" {
		c.ServiceName = overlay.ServiceName
	}
}

func (c *Config) loadDefaults() {
	if c.Backend == "" {
		c.Backend = BackendKeyring
	}
	if c.ServiceName == "" {
		c.ServiceName = "agent-chat"
	}
}

func (c *Config) loadEnv(env *Env) {
	if env.Backend != "" {
		if v := os.Getenv(env.Backend); v != "" {
			c.Backend = v
		}
	}
	if env.ServiceName != "" {
		if v := os.Getenv(env.ServiceName); v != "" {
			c.ServiceName = v
		}
	}
}

func (c *Config) validate() error {
	switch c.Backend {
	case BackendKeyring, BackendDatabase:
		return nil
	default:
		return fmt.Errorf("invalid secrets backend %q: must be %s or %s", c.Backend, BackendKeyring, BackendDatabase)
	}
}
