// Package scheduler runs the periodic full reconciliation pass for every
// active user.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"

	"github.com/JaimeStill/agent-chat/internal/chat"
	"github.com/JaimeStill/agent-chat/internal/profiles"
	"github.com/JaimeStill/agent-chat/pkg/lifecycle"
)

// Users lists the accounts to reconcile.
type Users interface {
	ListActive(ctx context.Context) ([]profiles.AuthUser, error)
}

// Reconciler runs one user's reconciliation pass.
type Reconciler interface {
	Reconcile(ctx context.Context, userID string) (*chat.Report, error)
}

type Scheduler struct {
	cfg        *chat.ReconcileConfig
	users      Users
	reconciler Reconciler
	cron       *cron.Cron
	logger     *slog.Logger
}

func New(cfg *chat.ReconcileConfig, users Users, reconciler Reconciler, logger *slog.Logger) *Scheduler {
	logger = logger.With("system", "scheduler")
	return &Scheduler{
		cfg:        cfg,
		users:      users,
		reconciler: reconciler,
		cron: cron.New(
			cron.WithLogger(cronLogger{logger}),
			cron.WithChain(cron.SkipIfStillRunning(cronLogger{logger})),
		),
		logger: logger,
	}
}

// Start schedules the pass and stops it when the coordinator shuts down.
// A disabled schedule registers nothing.
func (s *Scheduler) Start(lc *lifecycle.Coordinator) error {
	if !s.cfg.IsEnabled() {
		s.logger.Info("reconciliation schedule disabled")
		return nil
	}

	_, err := s.cron.AddFunc(s.cfg.Schedule, func() {
		if err := s.RunOnce(lc.Context()); err != nil {
			s.logger.Warn("scheduled reconciliation incomplete", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("schedule %q: %w", s.cfg.Schedule, err)
	}

	s.cron.Start()
	s.logger.Info("reconciliation scheduled", "schedule", s.cfg.Schedule)

	lc.OnShutdown(func() {
		<-lc.Context().Done()
		<-s.cron.Stop().Done()
		s.logger.Info("scheduler stopped")
	})
	return nil
}

// RunOnce reconciles every active user in turn. A failing user does not
// stop the pass; all failures are joined into the returned error.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	users, err := s.users.ListActive(ctx)
	if err != nil {
		return fmt.Errorf("list active users: %w", err)
	}

	var (
		errs  []error
		total chat.Report
	)
	for _, u := range users {
		if ctx.Err() != nil {
			errs = append(errs, ctx.Err())
			break
		}
		report, err := s.reconciler.Reconcile(ctx, u.ID)
		if err != nil {
			errs = append(errs, fmt.Errorf("user %s: %w", u.ID, err))
		}
		if report != nil {
			total.Synced += report.Synced
			total.Orphaned += report.Orphaned
			total.Repaired += report.Repaired
			total.Failed += report.Failed
		}
	}

	s.logger.Info("reconciliation pass finished",
		"users", len(users),
		"synced", total.Synced,
		"orphaned", total.Orphaned,
		"repaired", total.Repaired,
		"failed", total.Failed,
	)
	return errors.Join(errs...)
}

// cronLogger adapts slog to cron.Logger.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error(msg, append(keysAndValues, "error", err)...)
}
