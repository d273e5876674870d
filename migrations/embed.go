// Package migrations embeds the goose SQL migrations so the binary can apply
// them on startup without shipping the directory.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
