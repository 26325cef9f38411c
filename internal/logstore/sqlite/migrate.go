package sqlite

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

// recordsSchemaVersion is the migration that creates the records table.
const recordsSchemaVersion = 1

// migrationsFS holds the versioned schema of the records table. Version 1
// creates it with one column per log field plus the position that fixes
// display order, and the (date_time, shop) index used by summaries.
//
//go:embed migrations/*.sql
var migrationsFS embed.FS

// RunMigrations creates or upgrades the records table at dbPath. It is run
// by NewRepository before the first Load, so an empty file becomes an empty
// log.
func RunMigrations(dbPath string) error {
	// Own connection, so closing the migrate instance leaves the caller's pool alone
	migrateDB, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return fmt.Errorf("open migration database: %w", err)
	}
	defer migrateDB.Close()

	driver, err := migratesqlite.WithInstance(migrateDB, &migratesqlite.Config{})
	if err != nil {
		return fmt.Errorf("create sqlite driver: %w", err)
	}

	d, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("create iofs source: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", d, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("create migrate instance: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrate records table: %w", err)
	}

	version, dirty, err := m.Version()
	if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if dirty {
		return fmt.Errorf("records schema version %d is dirty", version)
	}
	if version < recordsSchemaVersion {
		return fmt.Errorf("records schema version %d, want at least %d", version, recordsSchemaVersion)
	}

	return nil
}
