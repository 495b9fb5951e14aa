// Package migrations embeds goose migrations for the server database.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
