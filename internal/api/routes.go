package api

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/JaimeStill/agent-chat/internal/chat"
	"github.com/JaimeStill/agent-chat/internal/profiles"
	"github.com/JaimeStill/agent-chat/internal/settings"
	"github.com/JaimeStill/agent-chat/pkg/handlers"
	"github.com/JaimeStill/agent-chat/pkg/middleware"
	"github.com/JaimeStill/agent-chat/pkg/routes"
)

// BasePath prefixes every authenticated route.
const BasePath = "/api"

func registerRoutes(r routes.System, runtime *Runtime, domain *Domain) {
	profilesHandler := profiles.NewHandler(domain.Profiles, domain.Chat, runtime.Logger)
	chatHandler := chat.NewHandler(domain.Chat, runtime.Storage, runtime.Config.Server.MaxRequestBytes(), runtime.Config.Pagination, runtime.Logger)
	settingsHandler := settings.NewHandler(domain.Settings, runtime.Logger)

	r.RegisterGroup(routes.Group{
		Prefix: BasePath,
		Children: []routes.Group{
			profilesHandler.Routes(),
			chatHandler.Routes(),
			settingsHandler.Routes(),
		},
	})
}

// NewHandler assembles the HTTP surface. API routes require a bearer
// token; health, readiness, metrics, and the API description do not.
func NewHandler(runtime *Runtime, domain *Domain) (http.Handler, error) {
	apiRoutes := routes.New(runtime.Logger)
	registerRoutes(apiRoutes, runtime, domain)
	protected := domain.Tokens.Middleware(runtime.Logger)(apiRoutes.Build())

	spec, err := specHandler(apiRoutes, runtime)
	if err != nil {
		return nil, fmt.Errorf("openapi: %w", err)
	}

	mux := http.NewServeMux()
	mux.Handle(BasePath+"/", protected)
	mux.HandleFunc("GET "+SpecPath, spec)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		handlers.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	mux.HandleFunc("GET /readyz", func(w http.ResponseWriter, r *http.Request) {
		if !runtime.Lifecycle.Ready() {
			handlers.RespondJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "starting"})
			return
		}
		if err := runtime.Database.Connection().PingContext(r.Context()); err != nil {
			handlers.RespondJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "database unavailable"})
			return
		}
		handlers.RespondJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	})
	mux.Handle("GET /metrics", promhttp.HandlerFor(runtime.Metrics, promhttp.HandlerOpts{}))

	mw := middleware.New()
	mw.Use(middleware.TrimSlash())
	mw.Use(middleware.Logger(runtime.Logger))
	mw.Use(middleware.CORS(&runtime.Config.CORS))
	return mw.Apply(mux), nil
}
