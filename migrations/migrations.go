// Package migrations embeds the goose SQL migrations so the binary and the
// integration tests can run them without a checkout path.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
