package migrations

import "embed"

// FS contains embedded SQLite migrations for claims storage.
//
//go:embed *.sql
var FS embed.FS
