package openapi

import "os"

// Config sets the document metadata.
type Config struct {
	Title       string `toml:"title"`
	Description string `toml:"description"`
	Version     string `toml:"version"`
}

// Env maps environment variable names for metadata overrides.
type Env struct {
	Title       string
	Description string
	Version     string
}

func (c *Config) Finalize(env *Env) error {
	c.loadDefaults()
	if env != nil {
		c.loadEnv(env)
	}
	return nil
}

func (c *Config) Merge(overlay *Config) {
	if overlay.Title != "" {
		c.Title = overlay.Title
	}
	if overlay.Description != "" {
		c.Description = overlay.Description
	}
	if overlay.Version != "" {
		c.Version = overlay.Version
	}
}

// Info returns the document info block.
func (c *Config) Info() *Info {
	return &Info{Title: c.Title, Version: c.Version, Description: c.Description}
}

func (c *Config) loadDefaults() {
	if c.Title == "" {
		c.Title = "Agent Chat API"
	}
	if c.Description == "" {
		c.Description = "Per-agent conversations relayed to user-configured webhooks."
	}
	if c.Version == "" {
		c.Version = "0.1.0"
	}
}

func (c *Config) loadEnv(env *Env) {
	if env.Title != "" {
		if v := os.Getenv(env.Title); v != "" {
			c.Title = v
		}
	}
	if env.Description != "" {
		if v := os.Getenv(env.Description); v != "" {
			c.Description = v
		}
	}
	if env.Version != "" {
		if v := os.Getenv(env.Version); v != "" {
			c.Version = v
		}
	}
}
