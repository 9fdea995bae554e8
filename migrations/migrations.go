// Package migrations embeds the SQL schema so binaries and tests can apply it
// without locating the source tree.
package migrations

import "embed"

//go:embed *.up.sql
var FS embed.FS
