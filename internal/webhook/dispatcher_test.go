package webhook_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/JaimeStill/agent-chat/internal/webhook"
	"github.com/JaimeStill/agent-chat/pkg/logging"
)

func newDispatcher(t *testing.T, cfg webhook.Config, reg prometheus.Registerer) *webhook.Dispatcher {
	t.Helper()
	if err := cfg.Finalize(nil); err != nil {
		t.Fatalf("Finalize() error = %v", err)
	}
	return webhook.NewDispatcher(&cfg, nil, reg, logging.Discard())
}

func jsonPayload() *webhook.Payload {
	return &webhook.Payload{ContentType: "application/json", Body: []byte(`{"message":"Hallo"}`)}
}

func TestResolveEndpoint(t *testing.T) {
	tests := []struct {
		name    string
		agent   string
		global  string
		want    string
		wantErr error
	}{
		{"agent overrides global", "https://agent.example/hook", "https://global.example/hook", "https://agent.example/hook", nil},
		{"global fallback", "", "https://global.example/hook", "https://global.example/hook", nil},
		{"blank agent uses global", "   ", "https://global.example/hook", "https://global.example/hook", nil},
		{"both blank", "", " ", "", webhook.ErrMissingEndpoint},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := webhook.ResolveEndpoint(tt.agent, tt.global)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("ResolveEndpoint() error = %v, want %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ResolveEndpoint() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestAuth_Apply(t *testing.T) {
	tests := []struct {
		name   string
		auth   webhook.Auth
		header string
		want   string
	}{
		{"basic", webhook.Auth{Type: webhook.AuthBasic, Username: "u", Password: "p"}, "Authorization", "Basic dTpw"},
		{"oauth", webhook.Auth{Type: webhook.AuthOAuth, Token: "tok"}, "Authorization", "Bearer tok"},
		{"api key", webhook.Auth{Type: webhook.AuthAPIKey, APIKeyHeader: "X-API-Key", APIKey: "k"}, "X-API-Key", "k"},
		{"api key custom header", webhook.Auth{Type: webhook.AuthAPIKey, APIKeyHeader: "X-N8N-Key", APIKey: "k"}, "X-N8N-Key", "k"},
		{"none", webhook.Auth{Type: webhook.AuthNone, Token: "ignored"}, "Authorization", ""},
		{"basic missing credentials", webhook.Auth{Type: webhook.AuthBasic}, "Authorization", ""},
		{"oauth missing token", webhook.Auth{Type: webhook.AuthOAuth}, "Authorization", ""},
		{"api key missing key", webhook.Auth{Type: webhook.AuthAPIKey, APIKeyHeader: "X-API-Key"}, "X-API-Key", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := http.Header{}
			tt.auth.Apply(h)
			if got := h.Get(tt.header); got != tt.want {
				t.Errorf("%s = %q, want %q", tt.header, got, tt.want)
			}
		})
	}
}

func TestParseAuthType(t *testing.T) {
	tests := map[string]webhook.AuthType{
		"":       webhook.AuthNone,
		"none":   webhook.AuthNone,
		"apiKey": webhook.AuthAPIKey,
		"APIKEY": webhook.AuthAPIKey,
		"basic":  webhook.AuthBasic,
		"oauth":  webhook.AuthOAuth,
	}
	for in, want := range tests {
		if got, err := webhook.ParseAuthType(in); err != nil || got != want {
			t.Errorf("ParseAuthType(%q) = %q, %v; want %q", in, got, err, want)
		}
	}
	if _, err := webhook.ParseAuthType("digest"); err == nil {
		t.Error("ParseAuthType(digest) succeeded, want error")
	}
}

func TestDispatch_Success(t *testing.T) {
	var gotAuth, gotType, gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		gotAuth = r.Header.Get("Authorization")
		gotType = r.Header.Get("Content-Type")
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"reply":"Hi there"}`))
	}))
	defer srv.Close()

	reg := prometheus.NewRegistry()
	d := newDispatcher(t, webhook.Config{}, reg)

	resp, err := d.Dispatch(context.Background(), webhook.Request{
		Endpoint: srv.URL,
		Auth:     webhook.Auth{Type: webhook.AuthBasic, Username: "u", Password: "p"},
		Payload:  jsonPayload(),
	})
	if err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}

	if gotAuth != "Basic dTpw" {
		t.Errorf("Authorization = %q, want %q", gotAuth, "Basic dTpw")
	}
	if gotType != "application/json" || gotBody != `{"message":"Hallo"}` {
		t.Errorf("request = %s %s", gotType, gotBody)
	}
	if resp.Status != http.StatusOK || resp.ContentType != "application/json" {
		t.Errorf("response = %+v", resp)
	}

	expected := `
# HELP agentchat_webhook_dispatch_total Webhook dispatches by outcome.
# TYPE agentchat_webhook_dispatch_total counter
agentchat_webhook_dispatch_total{outcome="success"} 1
`
	if err := testutil.GatherAndCompare(reg, strings.NewReader(expected), "agentchat_webhook_dispatch_total"); err != nil {
		t.Errorf("metrics mismatch: %v", err)
	}
}

func TestDispatch_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	d := newDispatcher(t, webhook.Config{}, nil)

	_, err := d.Dispatch(context.Background(), webhook.Request{Endpoint: srv.URL, Payload: jsonPayload()})
	if !errors.Is(err, webhook.ErrServerError) {
		t.Fatalf("Dispatch() error = %v, want ErrServerError", err)
	}

	var de *webhook.DispatchError
	if !errors.As(err, &de) {
		t.Fatalf("error %T is not *DispatchError", err)
	}
	if de.Status != 500 || de.Body != "boom" {
		t.Errorf("DispatchError = %+v", de)
	}
	if msg := err.Error(); !strings.Contains(msg, "500") || !strings.Contains(msg, "boom") {
		t.Errorf("Error() = %q, want status and body", msg)
	}
}

func TestDispatch_NonSuccessStatuses(t *testing.T) {
	for _, status := range []int{http.StatusMultipleChoices, http.StatusBadRequest, http.StatusUnauthorized, http.StatusBadGateway} {
		t.Run(http.StatusText(status), func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(status)
				w.Write([]byte(`{"reply":"ignored"}`))
			}))
			defer srv.Close()

			d := newDispatcher(t, webhook.Config{}, nil)
			_, err := d.Dispatch(context.Background(), webhook.Request{Endpoint: srv.URL, Payload: jsonPayload()})
			if !errors.Is(err, webhook.ErrServerError) {
				t.Errorf("Dispatch() error = %v, want ErrServerError", err)
			}
		})
	}
}

func TestDispatch_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	d := newDispatcher(t, webhook.Config{}, nil)

	start := time.Now()
	_, err := d.Dispatch(context.Background(), webhook.Request{
		Endpoint: srv.URL,
		Payload:  jsonPayload(),
		Timeout:  50 * time.Millisecond,
	})
	if !errors.Is(err, webhook.ErrTimeout) {
		t.Fatalf("Dispatch() error = %v, want ErrTimeout", err)
	}
	if time.Since(start) > 5*time.Second {
		t.Error("Dispatch() did not honor the timeout")
	}
}

func TestDispatch_Transport(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	d := newDispatcher(t, webhook.Config{}, nil)

	_, err := d.Dispatch(context.Background(), webhook.Request{Endpoint: url, Payload: jsonPayload()})
	if !errors.Is(err, webhook.ErrTransport) {
		t.Fatalf("Dispatch() error = %v, want ErrTransport", err)
	}
	var de *webhook.DispatchError
	if !errors.As(err, &de) || de.Cause == nil {
		t.Errorf("transport error should carry its cause: %v", err)
	}
}

func TestDispatch_MissingEndpoint(t *testing.T) {
	d := newDispatcher(t, webhook.Config{}, nil)
	_, err := d.Dispatch(context.Background(), webhook.Request{Payload: jsonPayload()})
	if !errors.Is(err, webhook.ErrMissingEndpoint) {
		t.Errorf("Dispatch() error = %v, want ErrMissingEndpoint", err)
	}
}

func TestDispatch_ResponseSizeCapped(t *testing.T) {
	tests := []struct {
		name    string
		size    int
		wantErr bool
	}{
		{"at limit", 1000, false},
		{"over limit", 4096, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{"reply":"` + strings.Repeat("a", tt.size-12) + `"}`))
			}))
			defer srv.Close()

			d := newDispatcher(t, webhook.Config{MaxResponseSize: "1KB"}, nil)
			resp, err := d.Dispatch(context.Background(), webhook.Request{Endpoint: srv.URL, Payload: jsonPayload()})

			if tt.wantErr {
				if !errors.Is(err, webhook.ErrResponseTooLarge) {
					t.Fatalf("Dispatch() error = %v, want ErrResponseTooLarge", err)
				}
				if got := webhook.Describe(err); got != "response too large: HTTP 200" {
					t.Errorf("Describe() = %q", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("Dispatch() error = %v", err)
			}
			if len(resp.Body) != tt.size {
				t.Errorf("body length = %d, want %d", len(resp.Body), tt.size)
			}
		})
	}
}

func TestMapHTTPStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{webhook.ErrEmptyTurn, http.StatusBadRequest},
		{webhook.ErrEncoding, http.StatusBadRequest},
		{webhook.ErrMissingEndpoint, http.StatusUnprocessableEntity},
		{&webhook.DispatchError{Kind: webhook.ErrTimeout}, http.StatusGatewayTimeout},
		{&webhook.DispatchError{Kind: webhook.ErrServerError, Status: 500}, http.StatusBadGateway},
		{&webhook.DispatchError{Kind: webhook.ErrResponseTooLarge, Status: 200}, http.StatusBadGateway},
		{errors.New("other"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := webhook.MapHTTPStatus(tt.err); got != tt.want {
			t.Errorf("MapHTTPStatus(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}
