package migrations

import "embed"

// FS carries the migration sources so goose can list them from any working
// directory.
//
//go:embed *.go
var FS embed.FS
