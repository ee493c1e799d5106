package main

import (
	"fmt"

	"github.com/JaimeStill/agent-chat/internal/api"
	"github.com/JaimeStill/agent-chat/internal/config"
	"github.com/JaimeStill/agent-chat/internal/infrastructure"
)

func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("config load failed: %w", err)
	}
	if err := cfg.Finalize(); err != nil {
		return nil, fmt.Errorf("config finalize failed: %w", err)
	}
	return cfg, nil
}

// app is the assembled domain for one-shot commands. Nothing is started;
// the database pool is opened directly.
type app struct {
	cfg    *config.Config
	infra  *infrastructure.Infrastructure
	module *api.Module
}

func openApp(opts *options) (*app, error) {
	cfg, err := loadConfig(opts.configPath)
	if err != nil {
		return nil, err
	}

	infra, err := infrastructure.New(cfg)
	if err != nil {
		return nil, err
	}
	if cfg.Database.AutoMigrate {
		if err := infra.Migrate(); err != nil {
			infra.Database.Connection().Close()
			return nil, fmt.Errorf("migrate failed: %w", err)
		}
	}

	module, err := api.NewModule(cfg, infra)
	if err != nil {
		infra.Database.Connection().Close()
		return nil, err
	}

	return &app{cfg: cfg, infra: infra, module: module}, nil
}

func (a *app) Close() error {
	return a.infra.Database.Connection().Close()
}
