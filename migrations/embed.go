// Package migrations embeds the audit trail schema into the binary.
package migrations

import (
	"embed"

	"github.com/nerrad567/gray-logic-climate/internal/infrastructure/database"
)

//go:embed *.sql
var migrationsFS embed.FS

func init() {
	database.MigrationsFS = migrationsFS
	database.MigrationsDir = "."
}
