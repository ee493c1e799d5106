// Package dbtest opens migrated SQLite databases for package tests.
package dbtest

import (
	"path/filepath"
	"testing"

	"github.com/JaimeStill/agent-chat/migrations"
	"github.com/JaimeStill/agent-chat/pkg/database"
	"github.com/JaimeStill/agent-chat/pkg/logging"
)

// New returns a database.System backed by a fresh SQLite file in a temp
// directory with all migrations applied. The pool is closed on cleanup.
func New(t testing.TB) database.System {
	t.Helper()

	cfg := &database.Config{
		Driver: database.DialectSQLite,
		Path:   filepath.Join(t.TempDir(), "agent-chat.db"),
	}
	if err := cfg.Finalize(nil); err != nil {
		t.Fatalf("database config: %v", err)
	}

	sys, err := database.New(cfg, logging.Discard())
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	t.Cleanup(func() { sys.Connection().Close() })

	if err := sys.Migrate(migrations.FS, migrations.Dir(database.DialectSQLite)); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return sys
}
