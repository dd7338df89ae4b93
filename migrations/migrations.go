package migrations

import (
	"embed"
)

//go:embed *.sql
var embedMigrations embed.FS

// GetMigrations returns the goose migrations for the status snapshot store
func GetMigrations() embed.FS {
	return embedMigrations
}
