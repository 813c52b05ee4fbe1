package db

import (
	"errors"
	"fmt"
	"io/fs"
	"path"
	"strconv"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"github.com/banshee-data/lidar.perception/internal/monitoring"
)

// MigrationStatus describes the schema state of a database against a set
// of migrations.
type MigrationStatus struct {
	Current uint // 0 when nothing has been applied
	Latest  uint
	Dirty   bool
}

// Pending reports whether migrations remain to be applied.
func (s MigrationStatus) Pending() bool {
	return s.Current < s.Latest
}

// migrateWith runs fn against a migrate instance bound to db. The instance
// is never closed because that would close the shared *sql.DB.
func (db *DB) migrateWith(migrations fs.FS, fn func(*migrate.Migrate) error) error {
	src, err := iofs.New(migrations, ".")
	if err != nil {
		return fmt.Errorf("read migrations: %w", err)
	}
	driver, err := sqlite.WithInstance(db.DB, &sqlite.Config{})
	if err != nil {
		return fmt.Errorf("sqlite migrate driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("migrate instance: %w", err)
	}
	m.Log = migrateLogger{}

	if err := fn(m); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}

// MigrateUp applies every pending migration. An up-to-date schema is not
// an error.
func (db *DB) MigrateUp(migrations fs.FS) error {
	return db.migrateWith(migrations, func(m *migrate.Migrate) error {
		if err := m.Up(); err != nil {
			return fmt.Errorf("migrate up: %w", err)
		}
		return nil
	})
}

// MigrateDown reverts the most recent migration.
func (db *DB) MigrateDown(migrations fs.FS) error {
	return db.migrateWith(migrations, func(m *migrate.Migrate) error {
		if err := m.Steps(-1); err != nil {
			return fmt.Errorf("migrate down: %w", err)
		}
		return nil
	})
}

// MigrateTo moves the schema up or down to version.
func (db *DB) MigrateTo(migrations fs.FS, version uint) error {
	return db.migrateWith(migrations, func(m *migrate.Migrate) error {
		if err := m.Migrate(version); err != nil {
			return fmt.Errorf("migrate to %d: %w", version, err)
		}
		return nil
	})
}

// MigrateForce records version as applied and clears the dirty flag
// without running any SQL. Use it to recover from a failed migration.
func (db *DB) MigrateForce(migrations fs.FS, version int) error {
	return db.migrateWith(migrations, func(m *migrate.Migrate) error {
		if err := m.Force(version); err != nil {
			return fmt.Errorf("force version %d: %w", version, err)
		}
		return nil
	})
}

// MigrateVersion returns the applied version and dirty flag; 0, false on a
// fresh database.
func (db *DB) MigrateVersion(migrations fs.FS) (version uint, dirty bool, err error) {
	err = db.migrateWith(migrations, func(m *migrate.Migrate) error {
		var verr error
		version, dirty, verr = m.Version()
		if errors.Is(verr, migrate.ErrNilVersion) {
			return nil
		}
		return verr
	})
	return version, dirty, err
}

// MigrationStatus compares the applied version with the newest migration.
func (db *DB) MigrationStatus(migrations fs.FS) (MigrationStatus, error) {
	current, dirty, err := db.MigrateVersion(migrations)
	if err != nil {
		return MigrationStatus{}, err
	}
	latest, err := GetLatestMigrationVersion(migrations)
	if err != nil {
		return MigrationStatus{}, err
	}
	return MigrationStatus{Current: current, Latest: latest, Dirty: dirty}, nil
}

// GetLatestMigrationVersion returns the largest NNNNNN prefix among the
// *.up.sql files.
func GetLatestMigrationVersion(migrations fs.FS) (uint, error) {
	names, err := fs.Glob(migrations, "*.up.sql")
	if err != nil {
		return 0, fmt.Errorf("list migrations: %w", err)
	}

	var latest uint
	for _, name := range names {
		prefix, _, ok := strings.Cut(path.Base(name), "_")
		if !ok {
			continue
		}
		v, err := strconv.ParseUint(prefix, 10, 32)
		if err != nil {
			continue
		}
		latest = max(latest, uint(v))
	}
	if latest == 0 {
		return 0, errors.New("no numbered migrations found")
	}
	return latest, nil
}

// migrateLogger routes golang-migrate output to monitoring.Logf; verbose
// lines only appear in debug mode.
type migrateLogger struct{}

func (migrateLogger) Printf(format string, v ...interface{}) {
	monitoring.Logf("[migrate] "+format, v...)
}

func (migrateLogger) Verbose() bool { return monitoring.DebugEnabled() }
