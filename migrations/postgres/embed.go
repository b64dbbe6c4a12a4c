// Package migrations embeds SQL migration files.
package migrations

import "embed"

// FS contains the schema migrations for the run-history database.
//
//go:embed *.sql
var FS embed.FS
