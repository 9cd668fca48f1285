// Package db holds the SQL migrations applied by "votemectl db migrate".
package db

import "embed"

// Migrations contains every file under migrations/.
//
//go:embed migrations/*.sql
var Migrations embed.FS
