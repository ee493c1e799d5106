package profiles

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/JaimeStill/agent-chat/internal/auth"
	"github.com/JaimeStill/agent-chat/pkg/handlers"
	"github.com/JaimeStill/agent-chat/pkg/routes"
)

const maxBody = 64 << 10

// AgentObserver is notified after agent writes commit.
type AgentObserver interface {
	AgentSaved(ctx context.Context, userID string, agent AgentProfile)
	AgentDeleted(ctx context.Context, userID, agentID string)
}

type Handler struct {
	sys      System
	observer AgentObserver
	logger   *slog.Logger
}

// NewHandler creates the profile API. observer may be nil.
func NewHandler(sys System, observer AgentObserver, logger *slog.Logger) *Handler {
	return &Handler{
		sys:      sys,
		observer: observer,
		logger:   logger.With("handler", "profiles"),
	}
}

func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Tags: []string{"Profiles"},
		Routes: []routes.Route{
			{Method: "GET", Pattern: "/me", Handler: h.Me, OpenAPI: Spec.Me},
			{Method: "PUT", Pattern: "/me", Handler: h.SaveMe, OpenAPI: Spec.SaveMe},
			{Method: "GET", Pattern: "/agents", Handler: h.ListAgents, OpenAPI: Spec.ListAgents},
			{Method: "POST", Pattern: "/agents", Handler: h.CreateAgent, OpenAPI: Spec.CreateAgent},
			{Method: "PUT", Pattern: "/agents/{id}", Handler: h.UpdateAgent, OpenAPI: Spec.UpdateAgent},
			{Method: "DELETE", Pattern: "/agents/{id}", Handler: h.DeleteAgent, OpenAPI: Spec.DeleteAgent},
		},
		Children: []routes.Group{
			{
				Prefix: "/admin",
				Routes: []routes.Route{
					{Method: "PATCH", Pattern: "/users/{id}/active", Handler: auth.RequireAdmin(h.logger, h.SetActive), OpenAPI: Spec.SetActive},
				},
			},
		},
	}
}

func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.FromContext(r.Context())

	user, err := h.sys.Find(r.Context(), id.UserID)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}
	handlers.RespondJSON(w, http.StatusOK, user)
}

func (h *Handler) SaveMe(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.FromContext(r.Context())

	var cmd SaveUserCommand
	if err := handlers.DecodeJSON(r, maxBody, &cmd); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}
	cmd.Role = ""

	user, err := h.sys.Save(r.Context(), id.UserID, cmd)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}
	handlers.RespondJSON(w, http.StatusOK, user)
}

func (h *Handler) ListAgents(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.FromContext(r.Context())

	user, err := h.sys.Find(r.Context(), id.UserID)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}
	handlers.RespondJSON(w, http.StatusOK, user.Agents)
}

func (h *Handler) CreateAgent(w http.ResponseWriter, r *http.Request) {
	h.saveAgent(w, r, "", http.StatusCreated)
}

func (h *Handler) UpdateAgent(w http.ResponseWriter, r *http.Request) {
	h.saveAgent(w, r, r.PathValue("id"), http.StatusOK)
}

func (h *Handler) saveAgent(w http.ResponseWriter, r *http.Request, agentID string, status int) {
	id, _ := auth.FromContext(r.Context())

	var cmd SaveAgentCommand
	if err := handlers.DecodeJSON(r, maxBody, &cmd); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}
	cmd.ID = agentID

	agent, err := h.sys.SaveAgent(r.Context(), id.UserID, cmd)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	if h.observer != nil {
		h.observer.AgentSaved(r.Context(), id.UserID, *agent)
	}
	handlers.RespondJSON(w, status, agent)
}

func (h *Handler) DeleteAgent(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.FromContext(r.Context())
	agentID := r.PathValue("id")

	if err := h.sys.DeleteAgent(r.Context(), id.UserID, agentID); err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	if h.observer != nil {
		h.observer.AgentDeleted(r.Context(), id.UserID, agentID)
	}
	w.WriteHeader(http.StatusNoContent)
}

type activeRequest struct {
	Active *bool `json:"active"`
}

func (h *Handler) SetActive(w http.ResponseWriter, r *http.Request) {
	var req activeRequest
	if err := handlers.DecodeJSON(r, maxBody, &req); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}
	if req.Active == nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, handlers.ErrInvalidBody)
		return
	}

	user, err := h.sys.SetActive(r.Context(), r.PathValue("id"), *req.Active)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}
	handlers.RespondJSON(w, http.StatusOK, user)
}
