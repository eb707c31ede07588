// Package migrations embeds the SQL schema for the database-backed stores.
// Each driver has its own directory of golang-migrate files.
package migrations

import "embed"

//go:embed postgres/*.sql sqlite/*.sql
var FS embed.FS
