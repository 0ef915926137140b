// Package migrations holds the SQL schema of the storefront.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
