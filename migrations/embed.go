// Package migrations carries the schema as ordered SQL files compiled into
// the binary.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
