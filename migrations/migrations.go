// Package migrations embeds the schema for each supported dialect.
package migrations

import (
	"embed"

	"github.com/JaimeStill/agent-chat/pkg/database"
)

//go:embed postgres/*.sql sqlite/*.sql
var FS embed.FS

// Dir returns the migration directory inside FS for dialect.
func Dir(dialect database.Dialect) string {
	if dialect == database.DialectSQLite {
		return "sqlite"
	}
	return "postgres"
}
