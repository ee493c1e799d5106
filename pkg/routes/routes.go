// Package routes registers HTTP routes and route groups onto a ServeMux
// using Go 1.22 method-qualified patterns.
package routes

import (
	"log/slog"
	"net/http"

	"github.com/JaimeStill/agent-chat/pkg/openapi"
)

// Route is a single method + pattern binding. OpenAPI, when set, documents
// the route in the generated API description.
type Route struct {
	Method  string
	Pattern string
	Handler http.HandlerFunc
	OpenAPI *openapi.Operation
}

// Group is a set of routes sharing a prefix. Children inherit the prefix
// and, when they declare none of their own, the tags.
type Group struct {
	Prefix   string
	Tags     []string
	Routes   []Route
	Children []Group
}

// System collects routes and builds them into an http.Handler.
type System interface {
	RegisterGroup(group Group)
	RegisterRoute(route Route)
	Build() http.Handler
	Patterns() []string

	// Spec describes every documented route as an OpenAPI document.
	Spec(info *openapi.Info, components *openapi.Components) *openapi.Spec
}

type routes struct {
	routes []Route
	groups []Group
	logger *slog.Logger
}

// New creates an empty route system.
func New(logger *slog.Logger) System {
	return &routes{
		logger: logger.With("system", "routes"),
	}
}

func (r *routes) RegisterRoute(route Route) {
	r.routes = append(r.routes, route)
}

func (r *routes) RegisterGroup(group Group) {
	r.groups = append(r.groups, group)
}

// Patterns lists every registered "METHOD /path" pattern in registration order.
func (r *routes) Patterns() []string {
	patterns := make([]string, 0, len(r.routes))
	for _, route := range r.routes {
		patterns = append(patterns, route.Method+" "+route.Pattern)
	}
	for _, group := range r.groups {
		patterns = appendGroup(patterns, "", group)
	}
	return patterns
}

func (r *routes) Build() http.Handler {
	mux := http.NewServeMux()
	for _, pattern := range r.Patterns() {
		r.logger.Debug("route registered", "pattern", pattern)
	}

	for _, route := range r.routes {
		mux.HandleFunc(route.Method+" "+route.Pattern, route.Handler)
	}
	for _, group := range r.groups {
		registerGroup(mux, "", group)
	}
	return mux
}

func registerGroup(mux *http.ServeMux, parent string, group Group) {
	prefix := parent + group.Prefix
	for _, route := range group.Routes {
		mux.HandleFunc(route.Method+" "+prefix+route.Pattern, route.Handler)
	}
	for _, child := range group.Children {
		registerGroup(mux, prefix, child)
	}
}

func appendGroup(patterns []string, parent string, group Group) []string {
	prefix := parent + group.Prefix
	for _, route := range group.Routes {
		patterns = append(patterns, route.Method+" "+prefix+route.Pattern)
	}
	for _, child := range group.Children {
		patterns = appendGroup(patterns, prefix, child)
	}
	return patterns
}
