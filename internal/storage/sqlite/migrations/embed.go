package migrations

import "embed"

// FS contains the embedded SQLite migrations for match history and captain
// opt-outs.
//
//go:embed *.sql
var FS embed.FS
