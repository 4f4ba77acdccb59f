// Package migrations carries the goose SQL migrations embedded into the
// server binary.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
