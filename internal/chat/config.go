package chat

import (
	"fmt"
	"os"
	"strconv"

	"github.com/robfig/cron/v3"
)

// ReconcileConfig controls the full reconciliation pass.
type ReconcileConfig struct {
	// Enabled schedules the pass for every active user. Default: true
	Enabled *bool `toml:"enabled"`

	// Schedule is a cron spec or descriptor. Default: "@every 10m"
	Schedule string `toml:"schedule"`

	// Concurrency bounds parallel store writes per pass. Default: 4
	Concurrency int `toml:"concurrency"`
}

// ReconcileEnv maps environment variable names for reconcile overrides.
type ReconcileEnv struct {
	Enabled     string
	Schedule    string
	Concurrency string
}

// IsEnabled reports whether the scheduled pass should run.
func (c *ReconcileConfig) IsEnabled() bool {
	return c.Enabled == nil || *c.Enabled
}

// Finalize applies defaults, loads environment overrides, and validates.
func (c *ReconcileConfig) Finalize(env *ReconcileEnv) error {
	c.loadDefaults()
	if env != nil {
		if err := c.loadEnv(env); err != nil {
			return err
		}
	}
	return c.validate()
}

// Merge applies non-zero overlay values.
func (c *ReconcileConfig) Merge(overlay *ReconcileConfig) {
	if overlay.Enabled != nil {
		c.Enabled = overlay.Enabled
	}
	if overlay.Schedule != "" {
		c.Schedule = overlay.Schedule
	}
	if overlay.Concurrency != 0 {
		c.Concurrency = overlay.Concurrency
	}
}

func (c *ReconcileConfig) loadDefaults() {
	if c.Enabled == nil {
		enabled := true
		c.Enabled = &enabled
	}
	if c.Schedule == "" {
		c.Schedule = "@every 10m"
	}
	if c.Concurrency == 0 {
		c.Concurrency = 4
	}
}

func (c *ReconcileConfig) loadEnv(env *ReconcileEnv) error {
	if env.Enabled != "" {
		if v := os.Getenv(env.Enabled); v != "" {
			enabled, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("invalid %s: %w", env.Enabled, err)
			}
			c.Enabled = &enabled
		}
	}
	if env.Schedule != "" {
		if v := os.Getenv(env.Schedule); v != "" {
			c.Schedule = v
		}
	}
	if env.Concurrency != "" {
		if v := os.Getenv(env.Concurrency); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("invalid %s: %w", env.Concurrency, err)
			}
			c.Concurrency = n
		}
	}
	return nil
}

func (c *ReconcileConfig) validate() error {
	if c.Concurrency < 1 {
		return fmt.Errorf("reconcile concurrency must be at least 1")
	}
	if _, err := cron.ParseStandard(c.Schedule); err != nil {
		return fmt.Errorf("invalid reconcile schedule %q: %w", c.Schedule, err)
	}
	return nil
}
