package config

import (
	"github.com/JaimeStill/agent-chat/internal/auth"
	"github.com/JaimeStill/agent-chat/internal/chat"
	"github.com/JaimeStill/agent-chat/internal/settings"
	"github.com/JaimeStill/agent-chat/internal/webhook"
	"github.com/JaimeStill/agent-chat/pkg/database"
	"github.com/JaimeStill/agent-chat/pkg/logging"
	"github.com/JaimeStill/agent-chat/pkg/middleware"
	"github.com/JaimeStill/agent-chat/pkg/openapi"
	"github.com/JaimeStill/agent-chat/pkg/pagination"
	"github.com/JaimeStill/agent-chat/pkg/storage"
)

var databaseEnv = &database.Env{
	Driver:          "DATABASE_DRIVER",
	Path:            "DATABASE_PATH",
	Host:            "DATABASE_HOST",
	Port:            "DATABASE_PORT",
	Name:            "DATABASE_NAME",
	User:            "DATABASE_USER",
	Password:        "DATABASE_PASSWORD",
	MaxOpenConns:    "DATABASE_MAX_OPEN_CONNS",
	MaxIdleConns:    "DATABASE_MAX_IDLE_CONNS",
	ConnMaxLifetime: "DATABASE_CONN_MAX_LIFETIME",
	ConnTimeout:     "DATABASE_CONN_TIMEOUT",
}

var loggingEnv = &logging.Env{
	Level:     "LOGGING_LEVEL",
	Format:    "LOGGING_FORMAT",
	AddSource: "LOGGING_ADD_SOURCE",
}

var storageEnv = &storage.Env{
	BasePath:      "STORAGE_BASE_PATH",
	MaxUploadSize: "STORAGE_MAX_UPLOAD_SIZE",
}

var webhookEnv = &webhook.Env{
	Timeout:           "WEBHOOK_TIMEOUT",
	DefaultReply:      "WEBHOOK_DEFAULT_REPLY",
	MaxResponseSize:   "WEBHOOK_MAX_RESPONSE_SIZE",
	MaxAttachmentSize: "WEBHOOK_MAX_ATTACHMENT_SIZE",
	APIKeyHeader:      "WEBHOOK_API_KEY_HEADER",
}

var authEnv = &auth.Env{
	Secret:   "AUTH_JWT_SECRET",
	Issuer:   "AUTH_ISSUER",
	TokenTTL: "AUTH_TOKEN_TTL",
}

var secretsEnv = &settings.Env{
	Backend:     "SECRETS_BACKEND",
	ServiceName: "SECRETS_SERVICE_NAME",
}

var reconcileEnv = &chat.ReconcileEnv{
	Enabled:     "RECONCILE_ENABLED",
	Schedule:    "RECONCILE_SCHEDULE",
	Concurrency: "RECONCILE_CONCURRENCY",
}

var corsEnv = &middleware.CORSEnv{
	Enabled:          "CORS_ENABLED",
	Origins:          "CORS_ORIGINS",
	AllowedMethods:   "CORS_ALLOWED_METHODS",
	AllowedHeaders:   "CORS_ALLOWED_HEADERS",
	AllowCredentials: "CORS_ALLOW_CREDENTIALS",
	MaxAge:           "CORS_MAX_AGE",
}

var paginationEnv = &pagination.Env{
	DefaultPageSize: "PAGINATION_DEFAULT_PAGE_SIZE",
	MaxPageSize:     "PAGINATION_MAX_PAGE_SIZE",
}

var openapiEnv = &openapi.Env{
	Title:       "OPENAPI_TITLE",
	Description: "OPENAPI_DESCRIPTION",
	Version:     "OPENAPI_VERSION",
}
