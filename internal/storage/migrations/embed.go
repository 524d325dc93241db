package migrations

import "embed"

// FS embeds the SQL migrations for the SQLite key-value store and activity log.
//
//go:embed *.sql
var FS embed.FS
