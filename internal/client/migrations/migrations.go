// Package migrations embeds goose migrations for the local SQLite store.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
