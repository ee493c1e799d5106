package api_test

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/JaimeStill/agent-chat/internal/api"
	"github.com/JaimeStill/agent-chat/internal/config"
	"github.com/JaimeStill/agent-chat/internal/infrastructure"
	"github.com/JaimeStill/agent-chat/pkg/database"
)

func newModule(t *testing.T) *api.Module {
	t.Helper()
	dir := t.TempDir()

	cfg := &config.Config{}
	cfg.Database.Driver = database.DialectSQLite
	cfg.Database.Path = filepath.Join(dir, "chat.db")
	cfg.Storage.BasePath = filepath.Join(dir, "blobs")
	cfg.Auth.Secret = "0123456789abcdef0123"
	cfg.Secrets.Backend = "database"
	if err := cfg.Finalize(); err != nil {
		t.Fatalf("Finalize() error = %v", err)
	}

	infra, err := infrastructure.New(cfg)
	if err != nil {
		t.Fatalf("infrastructure.New() error = %v", err)
	}
	t.Cleanup(func() { infra.Database.Connection().Close() })

	if err := infra.Migrate(); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}

	module, err := api.NewModule(cfg, infra)
	if err != nil {
		t.Fatalf("NewModule() error = %v", err)
	}
	return module
}

func TestHandler_Surface(t *testing.T) {
	module := newModule(t)
	token, err := module.Domain.Tokens.Issue("u1", "user")
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		token  string
		status int
		want   string
	}{
		{"health", "GET", "/healthz", "", "", http.StatusOK, `"ok"`},
		{"metrics", "GET", "/metrics", "", "", http.StatusOK, "go_goroutines"},
		{"openapi", "GET", "/api/openapi.json", "", "", http.StatusOK, `"/api/agents/{id}/messages"`},
		{"unauthenticated", "GET", "/api/me", "", "", http.StatusUnauthorized, ""},
		{"save me", "PUT", "/api/me", `{"name":"Ada"}`, token, http.StatusOK, `"Ada"`},
		{"settings", "GET", "/api/settings", "", token, http.StatusOK, `"has_secrets"`},
		{"trailing slash", "GET", "/api/settings/", "", token, http.StatusMovedPermanently, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
			if tt.body != "" {
				req.Header.Set("Content-Type", "application/json")
			}
			if tt.token != "" {
				req.Header.Set("Authorization", "Bearer "+tt.token)
			}
			rec := httptest.NewRecorder()
			module.Handler.ServeHTTP(rec, req)

			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d: %s", rec.Code, tt.status, rec.Body)
			}
			if tt.want != "" && !strings.Contains(rec.Body.String(), tt.want) {
				t.Errorf("body = %s, want it to contain %s", rec.Body, tt.want)
			}
		})
	}
}
