// Package migrations holds the versioned schema applied by goose.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
