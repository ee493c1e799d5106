package webhook

import (
	"fmt"
	"net/textproto"
	"os"
	"strings"
	"time"

	"github.com/docker/go-units"
)

// DefaultReply is returned by the normalizer when a webhook answers with no
// usable text.
const DefaultReply = "Webhook returned no message"

// Config contains webhook dispatch configuration.
type Config struct {
	// Timeout bounds a single dispatch. Default: "20s"
	Timeout string `toml:"timeout"`

	// DefaultReply replaces empty webhook responses.
	DefaultReply string `toml:"default_reply"`

	// MaxResponseSize caps how much of a response body is read. Default: "1MB"
	MaxResponseSize string `toml:"max_response_size"`

	// MaxAttachmentSize caps each attachment in a multipart payload. Default: "25MB"
	MaxAttachmentSize string `toml:"max_attachment_size"`

	// APIKeyHeader is used for apiKey auth when settings leave it blank.
	// Default: "X-API-Key"
	APIKeyHeader string `toml:"api_key_header"`

	timeout           time.Duration
	maxResponseSize   int64
	maxAttachmentSize int64
}

// Env maps environment variable names for webhook overrides.
type Env struct {
	Timeout           string
	DefaultReply      string
	MaxResponseSize   string
	MaxAttachmentSize string
	APIKeyHeader      string
}

func (c *Config) TimeoutDuration() time.Duration { return c.timeout }
func (c *Config) MaxResponseBytes() int64        { return c.maxResponseSize }
func (c *Config) MaxAttachmentBytes() int64      { return c.maxAttachmentSize }

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
	if overlay.Timeout != "" {
		c.Timeout = overlay.Timeout
	}
	if overlay.DefaultReply != "" {
		c.DefaultReply = overlay.DefaultReply
	}
	if overlay.MaxResponseSize != "" {
		c.MaxResponseSize = overlay.MaxResponseSize
	}
	if overlay.MaxAttachmentSize != "" {
		c.MaxAttachmentSize = overlay.MaxAttachmentSize
	}
	if overlay.APIKeyHeader != "" {
		c.APIKeyHeader = overlay.APIKeyHeader
	}
}

func (c *Config) loadDefaults() {
	if c.Timeout == "" {
		c.Timeout = "20s"
	}
	if strings.TrimSpace(c.DefaultReply) == "" {
		c.DefaultReply = DefaultReply
	}
	if c.MaxResponseSize == "" {
		c.MaxResponseSize = "1MB"
	}
	if c.MaxAttachmentSize == "" {
		c.MaxAttachmentSize = "25MB"
	}
	if c.APIKeyHeader == "" {
		c.APIKeyHeader = "X-API-Key"
	}
}

func (c *Config) loadEnv(env *Env) {
	set := func(dst *string, name string) {
		if name == "" {
			return
		}
		if v := os.Getenv(name); v != "" {
			*dst = v
		}
	}
	set(&c.Timeout, env.Timeout)
	set(&c.DefaultReply, env.DefaultReply)
	set(&c.MaxResponseSize, env.MaxResponseSize)
	set(&c.MaxAttachmentSize, env.MaxAttachmentSize)
	set(&c.APIKeyHeader, env.APIKeyHeader)
}

func (c *Config) validate() error {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return fmt.Errorf("invalid timeout: %w", err)
	}
	if d <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	c.timeout = d

	if c.maxResponseSize, err = units.FromHumanSize(c.MaxResponseSize); err != nil {
		return fmt.Errorf("invalid max_response_size: %w", err)
	}
	if c.maxAttachmentSize, err = units.FromHumanSize(c.MaxAttachmentSize); err != nil {
		return fmt.Errorf("invalid max_attachment_size: %w", err)
	}
	if c.maxResponseSize <= 0 || c.maxAttachmentSize <= 0 {
		return fmt.Errorf("size limits must be positive")
	}

	c.APIKeyHeader = textproto.CanonicalMIMEHeaderKey(strings.TrimSpace(c.APIKeyHeader))
	return nil
}
