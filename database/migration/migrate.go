// Package migration applies versioned SQL migrations to a SQLite database
// through golang-migrate.
//
// Migration files follow golang-migrate naming, VERSION_name.up.sql and
// VERSION_name.down.sql, and are usually embedded next to the service:
//
//	//go:embed migrations/*.sql
//	var Migrations embed.FS
//
//	err := migration.Up(db.GormDB, Migrations, "migrations")
package migration

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"gorm.io/gorm"
)

// Up runs all pending migrations. It is a no-op when the schema is current.
func Up(gormDB *gorm.DB, fsys fs.FS, path string) error {
	m, err := newMigrator(gormDB, fsys, path)
	if err != nil {
		return err
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrate up: %w", err)
	}
	return nil
}

// Down rolls back all migrations.
func Down(gormDB *gorm.DB, fsys fs.FS, path string) error {
	m, err := newMigrator(gormDB, fsys, path)
	if err != nil {
		return err
	}
	if err := m.Down(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrate down: %w", err)
	}
	return nil
}

// Version returns the current migration version and dirty flag.
// A database with no applied migrations reports version 0.
func Version(gormDB *gorm.DB, fsys fs.FS, path string) (version uint, dirty bool, err error) {
	m, err := newMigrator(gormDB, fsys, path)
	if err != nil {
		return 0, false, err
	}
	version, dirty, err = m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	return version, dirty, err
}

// newMigrator builds a migrator over the shared connection pool.
// Callers must not call m.Close(), which would close the pool.
func newMigrator(gormDB *gorm.DB, fsys fs.FS, path string) (*migrate.Migrate, error) {
	sqlDB, err := gormDB.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql.DB: %w", err)
	}

	driver, err := sqlite3.WithInstance(sqlDB, &sqlite3.Config{})
	if err != nil {
		return nil, fmt.Errorf("create database driver: %w", err)
	}

	source, err := iofs.New(fsys, path)
	if err != nil {
		return nil, fmt.Errorf("create iofs source: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "sqlite3", driver)
	if err != nil {
		return nil, fmt.Errorf("create migrator: %w", err)
	}
	return m, nil
}
