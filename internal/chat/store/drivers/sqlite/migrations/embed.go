package migrations

import "embed"

// Migrations holds the embedded SQL migration files, applied in lexical order
// by golang-migrate's iofs source driver.
//
//go:embed *.sql
var Migrations embed.FS
