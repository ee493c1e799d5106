package settings

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/JaimeStill/agent-chat/internal/webhook"
)

// Listener is called after a user's settings change.
type Listener func(userID string, s AgentSettings)

// SaveRequest updates settings and, optionally, credentials. Non-empty
// Secrets fields overwrite stored ones; ClearSecrets removes all first.
type SaveRequest struct {
	Settings     AgentSettings `json:"settings"`
	Secrets      *Secrets      `json:"secrets,omitempty"`
	ClearSecrets bool          `json:"clear_secrets,omitempty"`
}

// Provider is the single source of effective settings. It caches settings
// per user, merges secrets at resolve time, and notifies subscribers on
// change.
type Provider struct {
	store        Store
	secrets      SecretStore
	apiKeyHeader string
	logger       *slog.Logger

	mu    sync.RWMutex
	cache map[string]AgentSettings

	subMu  sync.Mutex
	subs   map[int]Listener
	nextID int
}

// NewProvider creates a Provider. apiKeyHeader is used for apiKey auth when
// a user's settings leave the header blank.
func NewProvider(store Store, secrets SecretStore, apiKeyHeader string, logger *slog.Logger) *Provider {
	return &Provider{
		store:        store,
		secrets:      secrets,
		apiKeyHeader: apiKeyHeader,
		logger:       logger.With("system", "settings"),
		cache:        make(map[string]AgentSettings),
		subs:         make(map[int]Listener),
	}
}

// Get returns the user's settings without secrets.
func (p *Provider) Get(ctx context.Context, userID string) (AgentSettings, error) {
	p.mu.RLock()
	s, ok := p.cache[userID]
	p.mu.RUnlock()
	if ok {
		return s, nil
	}
	return p.load(ctx, userID)
}

// Snapshot returns settings plus flags for which secrets are stored.
func (p *Provider) Snapshot(ctx context.Context, userID string) (Snapshot, error) {
	s, err := p.Get(ctx, userID)
	if err != nil {
		return Snapshot{}, err
	}
	sec, err := p.secrets.Get(ctx, userID)
	if err != nil {
		return Snapshot{}, err
	}
	return Snapshot{AgentSettings: s, HasSecrets: sec.Flags()}, nil
}

// Refresh discards the cached settings, reloads them from the store, and
// notifies subscribers.
func (p *Provider) Refresh(ctx context.Context, userID string) (AgentSettings, error) {
	p.mu.Lock()
	delete(p.cache, userID)
	p.mu.Unlock()

	s, err := p.load(ctx, userID)
	if err != nil {
		return AgentSettings{}, err
	}
	p.notify(userID, s)
	return s, nil
}

// Save validates and persists req, then notifies subscribers.
func (p *Provider) Save(ctx context.Context, userID string, req SaveRequest) (Snapshot, error) {
	s := req.Settings
	if err := s.Normalize(); err != nil {
		return Snapshot{}, err
	}

	if req.ClearSecrets || req.Secrets != nil {
		current := Secrets{}
		if !req.ClearSecrets {
			var err error
			if current, err = p.secrets.Get(ctx, userID); err != nil {
				return Snapshot{}, err
			}
		}
		if req.Secrets != nil {
			current = current.Merge(*req.Secrets)
		}
		if err := p.secrets.Set(ctx, userID, current); err != nil {
			return Snapshot{}, err
		}
	}

	saved, err := p.store.Save(ctx, userID, s)
	if err != nil {
		return Snapshot{}, err
	}

	p.mu.Lock()
	p.cache[userID] = saved
	p.mu.Unlock()

	p.logger.Info("settings saved", "user_id", userID, "auth_type", saved.AuthType, "has_webhook", saved.WebhookURL != "")
	p.notify(userID, saved)

	return p.Snapshot(ctx, userID)
}

// SetSecrets merges secrets into the stored credentials.
func (p *Provider) SetSecrets(ctx context.Context, userID string, secrets Secrets) error {
	current, err := p.secrets.Get(ctx, userID)
	if err != nil {
		return err
	}
	return p.secrets.Set(ctx, userID, current.Merge(secrets))
}

// Subscribe registers fn for change notifications. The returned function
// unsubscribes and is safe to call more than once.
func (p *Provider) Subscribe(fn Listener) (unsubscribe func()) {
	p.subMu.Lock()
	id := p.nextID
	p.nextID++
	p.subs[id] = fn
	p.subMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			p.subMu.Lock()
			delete(p.subs, id)
			p.subMu.Unlock()
		})
	}
}

// Resolve returns the effective endpoint and auth for a dispatch to an
// agent whose own webhook URL is agentURL. ErrMissingEndpoint is returned
// before any secrets are read.
func (p *Provider) Resolve(ctx context.Context, userID, agentURL string) (string, webhook.Auth, error) {
	s, err := p.Get(ctx, userID)
	if err != nil {
		return "", webhook.Auth{}, err
	}

	endpoint, err := webhook.ResolveEndpoint(agentURL, s.WebhookURL)
	if err != nil {
		return "", webhook.Auth{}, err
	}

	auth := webhook.Auth{Type: s.AuthType, APIKeyHeader: s.APIKeyHeader}
	if auth.APIKeyHeader == "" {
		auth.APIKeyHeader = p.apiKeyHeader
	}
	if auth.Type == webhook.AuthNone || auth.Type == "" {
		auth.Type = webhook.AuthNone
		return endpoint, auth, nil
	}

	sec, err := p.secrets.Get(ctx, userID)
	if err != nil {
		return "", webhook.Auth{}, fmt.Errorf("load secrets: %w", err)
	}
	auth.APIKey = sec.APIKey
	auth.Username = sec.BasicAuthUsername
	auth.Password = sec.BasicAuthPassword
	auth.Token = sec.OAuthToken

	return endpoint, auth, nil
}

func (p *Provider) load(ctx context.Context, userID string) (AgentSettings, error) {
	s, err := p.store.Find(ctx, userID)
	if err != nil {
		return AgentSettings{}, err
	}

	p.mu.Lock()
	p.cache[userID] = s
	p.mu.Unlock()
	return s, nil
}

func (p *Provider) notify(userID string, s AgentSettings) {
	p.subMu.Lock()
	listeners := make([]Listener, 0, len(p.subs))
	for _, fn := range p.subs {
		listeners = append(listeners, fn)
	}
	p.subMu.Unlock()

	for _, fn := range listeners {
		fn(userID, s)
	}
}
