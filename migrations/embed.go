// Package migrations embeds SQL migration files into the binary, so
// the run-history schema can be applied in the field without the SQL
// files present on the filesystem.
package migrations

import (
	"embed"

	"github.com/ecliptic-labs/eclipseq/internal/infrastructure/database"
)

//go:embed *.sql
var migrationsFS embed.FS

func init() {
	// Register embedded migrations with the database package.
	database.MigrationsFS = migrationsFS
	database.MigrationsDir = "." // Files are at root of embedded FS
}
