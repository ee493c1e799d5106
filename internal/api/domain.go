package api

import (
	"fmt"

	"github.com/JaimeStill/agent-chat/internal/auth"
	"github.com/JaimeStill/agent-chat/internal/chat"
	"github.com/JaimeStill/agent-chat/internal/conversations"
	"github.com/JaimeStill/agent-chat/internal/profiles"
	"github.com/JaimeStill/agent-chat/internal/settings"
	"github.com/JaimeStill/agent-chat/internal/webhook"
	"github.com/JaimeStill/agent-chat/pkg/storage"
)

// Domain holds all domain systems that comprise the API.
type Domain struct {
	Profiles      profiles.System
	Conversations conversations.System
	Settings      *settings.Provider
	Chat          *chat.Service
	Tokens        *auth.Tokens
}

// NewDomain creates all domain systems from the API runtime.
func NewDomain(runtime *Runtime) (*Domain, error) {
	cfg := runtime.Config
	conn := runtime.Database.Connection()
	dialect := runtime.Database.Dialect()

	profilesSys := profiles.New(conn, dialect, runtime.Logger)
	conversationsSys := conversations.New(conn, dialect, runtime.Logger)

	secrets, err := settings.NewSecretStore(&cfg.Secrets, conn, dialect)
	if err != nil {
		return nil, fmt.Errorf("secret store: %w", err)
	}
	provider := settings.NewProvider(
		settings.NewStore(conn, dialect),
		secrets,
		cfg.Webhook.APIKeyHeader,
		runtime.Logger,
	)

	chatSvc := chat.New(chat.Deps{
		Profiles:      profilesSys,
		Conversations: conversationsSys,
		Resolver:      provider,
		Builder:       webhook.NewBuilder(BlobReader(runtime.Storage), cfg.Webhook.MaxAttachmentBytes()),
		Dispatcher:    webhook.NewDispatcher(&cfg.Webhook, nil, runtime.Metrics, runtime.Logger),
		Normalizer:    webhook.NewNormalizer(cfg.Webhook.DefaultReply),
	}, cfg.Reconcile.Concurrency, runtime.Logger)

	return &Domain{
		Profiles:      profilesSys,
		Conversations: conversationsSys,
		Settings:      provider,
		Chat:          chatSvc,
		Tokens:        auth.NewTokens(&cfg.Auth),
	}, nil
}

// BlobReader reads attachment bytes from blob storage.
func BlobReader(store storage.System) webhook.BlobReader {
	return webhook.BlobReaderFunc(store.Retrieve)
}
