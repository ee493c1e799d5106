package settings

import (
	"log/slog"
	"net/http"

	"github.com/JaimeStill/agent-chat/internal/auth"
	"github.com/JaimeStill/agent-chat/pkg/handlers"
	"github.com/JaimeStill/agent-chat/pkg/routes"
)

type Handler struct {
	provider *Provider
	logger   *slog.Logger
}

func NewHandler(provider *Provider, logger *slog.Logger) *Handler {
	return &Handler{
		provider: provider,
		logger:   logger.With("handler", "settings"),
	}
}

func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/settings",
		Tags:   []string{"Settings"},
		Routes: []routes.Route{
			{Method: "GET", Pattern: "", Handler: h.Get, OpenAPI: Spec.Get},
			{Method: "PUT", Pattern: "", Handler: h.Save, OpenAPI: Spec.Save},
		},
	}
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.FromContext(r.Context())

	snap, err := h.provider.Snapshot(r.Context(), id.UserID)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}
	handlers.RespondJSON(w, http.StatusOK, snap)
}

func (h *Handler) Save(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.FromContext(r.Context())

	var req SaveRequest
	if err := handlers.DecodeJSON(r, 64<<10, &req); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	snap, err := h.provider.Save(r.Context(), id.UserID, req)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}
	handlers.RespondJSON(w, http.StatusOK, snap)
}
