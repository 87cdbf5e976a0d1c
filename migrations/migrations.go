package migrations

import "embed"

// Embedded schema migrations for the ID history store, one set per driver.
//
//go:embed sqlite/*.sql
var SqliteMigrations embed.FS

//go:embed postgres/*.sql
var PostgresMigrations embed.FS
