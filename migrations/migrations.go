// Package migrations embeds the SQL schema migrations applied by goose at
// startup, one directory per database dialect.
package migrations

import "embed"

//go:embed mysql/*.sql postgres/*.sql
var FS embed.FS
