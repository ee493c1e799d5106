package storage

import (
	"fmt"
	"os"

	"github.com/docker/go-units"
)

// Config locates blob storage and bounds each stored blob.
type Config struct {
	BasePath      string `toml:"base_path"`
	MaxUploadSize string `toml:"max_upload_size"`

	maxUpload int64
}

type Env struct {
	BasePath      string
	MaxUploadSize string
}

func (c *Config) MaxUploadSizeBytes() int64 { return c.maxUpload }

func (c *Config) Finalize(env *Env) error {
	if c.BasePath == "" {
		c.BasePath = ".data/blobs"
	}
	if c.MaxUploadSize == "" {
		c.MaxUploadSize = "25MB"
	}

	if env != nil {
		fromEnv(&c.BasePath, env.BasePath)
		fromEnv(&c.MaxUploadSize, env.MaxUploadSize)
	}

	size, err := units.FromHumanSize(c.MaxUploadSize)
	switch {
	case err != nil:
		return fmt.Errorf("invalid max_upload_size: %w", err)
	case size <= 0:
		return fmt.Errorf("max_upload_size must be positive")
	}
	c.maxUpload = size
	return nil
}

func (c *Config) Merge(overlay *Config) {
	if overlay.BasePath != "" {
		c.BasePath = overlay.BasePath
	}
	if overlay.MaxUploadSize != "" {
		c.MaxUploadSize = overlay.MaxUploadSize
	}
}

func fromEnv(dst *string, name string) {
	if name == "" {
		return
	}
	if v := os.Getenv(name); v != "" {
		*dst = v
	}
}
