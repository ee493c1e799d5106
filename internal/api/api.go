// Package api wires the domain systems into the service's HTTP surface.
package api

import (
	"log/slog"
	"net/http"

	"github.com/JaimeStill/agent-chat/internal/config"
	"github.com/JaimeStill/agent-chat/internal/infrastructure"
	"github.com/JaimeStill/agent-chat/internal/settings"
)

// Module is the assembled API.
type Module struct {
	Runtime *Runtime
	Domain  *Domain
	Handler http.Handler
}

// NewModule builds the domain systems and the HTTP handler over them.
func NewModule(cfg *config.Config, infra *infrastructure.Infrastructure) (*Module, error) {
	runtime := NewRuntime(cfg, infra)
	domain, err := NewDomain(runtime)
	if err != nil {
		return nil, err
	}

	unsubscribe := domain.Settings.Subscribe(auditSettings(runtime.Logger))
	runtime.Lifecycle.OnShutdown(func() {
		<-runtime.Lifecycle.Context().Done()
		unsubscribe()
	})

	handler, err := NewHandler(runtime, domain)
	if err != nil {
		return nil, err
	}

	return &Module{
		Runtime: runtime,
		Domain:  domain,
		Handler: handler,
	}, nil
}

// auditSettings records settings changes. Secrets never reach listeners.
func auditSettings(logger *slog.Logger) settings.Listener {
	logger = logger.With("audit", "settings")
	return func(userID string, s settings.AgentSettings) {
		logger.Info("settings changed",
			"user_id", userID,
			"auth_type", s.AuthType,
			"has_webhook", s.WebhookURL != "",
			"updated_at", s.UpdatedAt,
		)
	}
}
