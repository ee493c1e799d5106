package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/JaimeStill/agent-chat/internal/api"
	"github.com/JaimeStill/agent-chat/internal/config"
	"github.com/JaimeStill/agent-chat/internal/infrastructure"
	"github.com/JaimeStill/agent-chat/internal/scheduler"
	"github.com/JaimeStill/agent-chat/internal/server"
)

func newServeCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the reconciliation scheduler",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts.configPath)
			if err != nil {
				return err
			}

			svc, err := NewService(cfg)
			if err != nil {
				return fmt.Errorf("service init failed: %w", err)
			}
			if err := svc.Start(); err != nil {
				return fmt.Errorf("service start failed: %w", err)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			<-ctx.Done()

			return svc.Shutdown()
		},
	}
}

// Service coordinates the lifecycle of all subsystems.
type Service struct {
	cfg       *config.Config
	infra     *infrastructure.Infrastructure
	server    server.System
	scheduler *scheduler.Scheduler
}

// NewService creates and initializes the service with all subsystems.
func NewService(cfg *config.Config) (*Service, error) {
	infra, err := infrastructure.New(cfg)
	if err != nil {
		return nil, err
	}

	module, err := api.NewModule(cfg, infra)
	if err != nil {
		return nil, err
	}

	return &Service{
		cfg:   cfg,
		infra: infra,
		server: server.New(
			&cfg.Server,
			module.Handler,
			cfg.ShutdownTimeoutDuration(),
			infra.Logger,
		),
		scheduler: scheduler.New(
			&cfg.Reconcile,
			module.Domain.Profiles,
			module.Domain.Chat,
			infra.Logger,
		),
	}, nil
}

// Start begins all subsystems. Readiness flips once every startup hook
// has finished.
func (s *Service) Start() error {
	s.infra.Logger.Info("starting service")

	if err := s.infra.Start(s.cfg.Database.AutoMigrate); err != nil {
		return err
	}
	if err := s.server.Start(s.infra.Lifecycle); err != nil {
		return fmt.Errorf("server start failed: %w", err)
	}
	if err := s.scheduler.Start(s.infra.Lifecycle); err != nil {
		return fmt.Errorf("scheduler start failed: %w", err)
	}

	go func() {
		s.infra.Lifecycle.WaitForStartup()
		s.infra.Logger.Info("service started", "addr", s.server.Addr())
	}()
	return nil
}

// Shutdown gracefully stops all subsystems within the configured timeout.
func (s *Service) Shutdown() error {
	s.infra.Logger.Info("initiating shutdown")

	if err := s.infra.Lifecycle.Shutdown(s.cfg.ShutdownTimeoutDuration()); err != nil {
		return err
	}
	s.infra.Logger.Info("all subsystems shut down successfully")
	return nil
}
