package task

import "embed"

// Migrations holds the versioned SQL schema under "migrations".
//
//go:embed migrations/*.sql
var Migrations embed.FS

// MigrationsPath is the directory inside Migrations.
const MigrationsPath = "migrations"
