package settings_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/zalando/go-keyring"

	"github.com/JaimeStill/agent-chat/internal/auth"
	"github.com/JaimeStill/agent-chat/internal/dbtest"
	"github.com/JaimeStill/agent-chat/internal/settings"
	"github.com/JaimeStill/agent-chat/internal/webhook"
	"github.com/JaimeStill/agent-chat/pkg/logging"
)

func newProvider(t *testing.T, backend string) *settings.Provider {
	t.Helper()
	db := dbtest.New(t)

	cfg := &settings.Config{Backend: backend, ServiceName: "agent-chat-test"}
	if err := cfg.Finalize(nil); err != nil {
		t.Fatalf("Finalize() error = %v", err)
	}
	if backend == settings.BackendKeyring {
		keyring.MockInit()
	}

	secrets, err := settings.NewSecretStore(cfg, db.Connection(), db.Dialect())
	if err != nil {
		t.Fatalf("NewSecretStore() error = %v", err)
	}
	store := settings.NewStore(db.Connection(), db.Dialect())
	return settings.NewProvider(store, secrets, "X-API-Key", logging.Discard())
}

func backends(t *testing.T, fn func(t *testing.T, p *settings.Provider)) {
	for _, backend := range []string{settings.BackendKeyring, settings.BackendDatabase} {
		t.Run(backend, func(t *testing.T) {
			fn(t, newProvider(t, backend))
		})
	}
}

func TestGet_Defaults(t *testing.T) {
	p := newProvider(t, settings.BackendDatabase)

	s, err := p.Get(context.Background(), "u1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if s.AuthType != webhook.AuthNone || s.WebhookURL != "" {
		t.Errorf("Get() = %+v, want defaults", s)
	}
}

func TestResolve_AgentOverridesGlobal(t *testing.T) {
	p := newProvider(t, settings.BackendDatabase)
	ctx := context.Background()

	_, err := p.Save(ctx, "u1", settings.SaveRequest{
		Settings: settings.AgentSettings{WebhookURL: "https://global.example/hook"},
	})
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	endpoint, _, err := p.Resolve(ctx, "u1", "https://agent.example/hook")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if endpoint != "https://agent.example/hook" {
		t.Errorf("endpoint = %q, want agent url", endpoint)
	}

	endpoint, _, _ = p.Resolve(ctx, "u1", "")
	if endpoint != "https://global.example/hook" {
		t.Errorf("endpoint = %q, want global url", endpoint)
	}
}

func TestResolve_MissingEndpoint(t *testing.T) {
	p := newProvider(t, settings.BackendDatabase)

	_, _, err := p.Resolve(context.Background(), "u1", "")
	if !errors.Is(err, webhook.ErrMissingEndpoint) {
		t.Errorf("Resolve() error = %v, want ErrMissingEndpoint", err)
	}
}

func TestResolve_BasicAuthHeader(t *testing.T) {
	backends(t, func(t *testing.T, p *settings.Provider) {
		ctx := context.Background()

		_, err := p.Save(ctx, "u1", settings.SaveRequest{
			Settings: settings.AgentSettings{WebhookURL: "https://hooks.example/x", AuthType: "basic"},
			Secrets:  &settings.Secrets{BasicAuthUsername: "u", BasicAuthPassword: "p"},
		})
		if err != nil {
			t.Fatalf("Save() error = %v", err)
		}

		_, a, err := p.Resolve(ctx, "u1", "")
		if err != nil {
			t.Fatalf("Resolve() error = %v", err)
		}

		h := http.Header{}
		a.Apply(h)
		if got := h.Get("Authorization"); got != "Basic dTpw" {
			t.Errorf("Authorization = %q, want %q", got, "Basic dTpw")
		}
	})
}

func TestResolve_APIKeyHeaderDefault(t *testing.T) {
	p := newProvider(t, settings.BackendDatabase)
	ctx := context.Background()

	p.Save(ctx, "u1", settings.SaveRequest{
		Settings: settings.AgentSettings{WebhookURL: "https://hooks.example/x", AuthType: "apiKey"},
		Secrets:  &settings.Secrets{APIKey: "k"},
	})

	_, a, err := p.Resolve(ctx, "u1", "")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if a.Type != webhook.AuthAPIKey || a.APIKeyHeader != "X-API-Key" || a.APIKey != "k" {
		t.Errorf("auth = %+v", a)
	}
}

func TestSave_SecretsNeverInSnapshot(t *testing.T) {
	backends(t, func(t *testing.T, p *settings.Provider) {
		ctx := context.Background()

		snap, err := p.Save(ctx, "u1", settings.SaveRequest{
			Settings: settings.AgentSettings{AuthType: "oauth"},
			Secrets:  &settings.Secrets{OAuthToken: "super-secret-token"},
		})
		if err != nil {
			t.Fatalf("Save() error = %v", err)
		}
		if !snap.HasSecrets.OAuth || snap.HasSecrets.APIKey {
			t.Errorf("HasSecrets = %+v", snap.HasSecrets)
		}

		raw, _ := json.Marshal(snap)
		if strings.Contains(string(raw), "super-secret-token") {
			t.Errorf("snapshot leaks secret: %s", raw)
		}
	})
}

func TestSave_MergeAndClearSecrets(t *testing.T) {
	backends(t, func(t *testing.T, p *settings.Provider) {
		ctx := context.Background()
		s := settings.AgentSettings{AuthType: "basic"}

		p.Save(ctx, "u1", settings.SaveRequest{Settings: s, Secrets: &settings.Secrets{BasicAuthUsername: "u", BasicAuthPassword: "p"}})
		snap, _ := p.Save(ctx, "u1", settings.SaveRequest{Settings: s, Secrets: &settings.Secrets{APIKey: "k"}})
		if !snap.HasSecrets.BasicAuth || !snap.HasSecrets.APIKey {
			t.Errorf("merge lost secrets: %+v", snap.HasSecrets)
		}

		snap, err := p.Save(ctx, "u1", settings.SaveRequest{Settings: s, ClearSecrets: true})
		if err != nil {
			t.Fatalf("Save() clear error = %v", err)
		}
		if snap.HasSecrets != (settings.SecretFlags{}) {
			t.Errorf("ClearSecrets left %+v", snap.HasSecrets)
		}
	})
}

func TestSave_Invalid(t *testing.T) {
	p := newProvider(t, settings.BackendDatabase)
	ctx := context.Background()

	tests := []settings.AgentSettings{
		{AuthType: "digest"},
		{WebhookURL: "not a url"},
	}
	for _, s := range tests {
		if _, err := p.Save(ctx, "u1", settings.SaveRequest{Settings: s}); !errors.Is(err, settings.ErrInvalid) {
			t.Errorf("Save(%+v) error = %v, want ErrInvalid", s, err)
		}
	}
}

func TestSubscribe(t *testing.T) {
	p := newProvider(t, settings.BackendDatabase)
	ctx := context.Background()

	var calls []string
	unsubscribe := p.Subscribe(func(userID string, s settings.AgentSettings) {
		calls = append(calls, userID+"="+s.WebhookURL)
	})

	p.Save(ctx, "u1", settings.SaveRequest{Settings: settings.AgentSettings{WebhookURL: "https://a.example/h"}})
	p.Refresh(ctx, "u1")

	unsubscribe()
	unsubscribe()
	p.Save(ctx, "u1", settings.SaveRequest{Settings: settings.AgentSettings{WebhookURL: "https://b.example/h"}})

	want := []string{"u1=https://a.example/h", "u1=https://a.example/h"}
	if strings.Join(calls, ",") != strings.Join(want, ",") {
		t.Errorf("notifications = %v, want %v", calls, want)
	}
}

func TestHandler(t *testing.T) {
	p := newProvider(t, settings.BackendDatabase)
	h := settings.NewHandler(p, logging.Discard())

	body := `{"settings":{"webhook_url":"https://hooks.example/x","auth_type":"oauth"},"secrets":{"oauth_token":"t"}}`
	req := httptest.NewRequest(http.MethodPut, "/api/settings", strings.NewReader(body))
	req = req.WithContext(auth.WithIdentity(req.Context(), auth.Identity{UserID: "u1"}))
	rec := httptest.NewRecorder()
	h.Save(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("PUT status = %d: %s", rec.Code, rec.Body)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/settings", nil)
	req = req.WithContext(auth.WithIdentity(req.Context(), auth.Identity{UserID: "u1"}))
	rec = httptest.NewRecorder()
	h.Get(rec, req)

	var snap settings.Snapshot
	if err := json.NewDecoder(rec.Body).Decode(&snap); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if snap.WebhookURL != "https://hooks.example/x" || snap.AuthType != webhook.AuthOAuth || !snap.HasSecrets.OAuth {
		t.Errorf("GET settings = %+v", snap)
	}
}
