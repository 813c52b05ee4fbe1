package db

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	database, err := NewDB(filepath.Join(t.TempDir(), "perception.db"))
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	return database
}

func TestPragmasApplied(t *testing.T) {
	database := openTestDB(t)

	var journalMode string
	require.NoError(t, database.QueryRow("PRAGMA journal_mode").Scan(&journalMode))
	assert.Equal(t, "wal", journalMode)

	var busyTimeout int
	require.NoError(t, database.QueryRow("PRAGMA busy_timeout").Scan(&busyTimeout))
	assert.Equal(t, 5000, busyTimeout)

	var foreignKeys int
	require.NoError(t, database.QueryRow("PRAGMA foreign_keys").Scan(&foreignKeys))
	assert.Equal(t, 1, foreignKeys)
}

func TestNewDB_CreatesSchema(t *testing.T) {
	database := openTestDB(t)

	for _, table := range []string{"perception_runs", "perception_frames", "perception_objects", "schema_migrations"} {
		var n int
		err := database.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?`, table).Scan(&n)
		require.NoError(t, err)
		assert.Equal(t, 1, n, "table %s", table)
	}
}

func TestNewDB_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reopen.db")

	first, err := NewDB(path)
	require.NoError(t, err)
	_, err = first.Exec(`INSERT INTO perception_runs (run_id, data_root, random_seed, config_json, build_version) VALUES ('r1', 'data', 1, '{}', 'dev')`)
	require.NoError(t, err)
	require.NoError(t, first.Close())

	second, err := NewDB(path)
	require.NoError(t, err)
	defer second.Close()

	var n int
	require.NoError(t, second.QueryRow(`SELECT COUNT(*) FROM perception_runs`).Scan(&n))
	assert.Equal(t, 1, n)
}

func TestMigrateVersionAndDown(t *testing.T) {
	database := openTestDB(t)
	migrations, err := getMigrationsFS()
	require.NoError(t, err)

	latest, err := GetLatestMigrationVersion(migrations)
	require.NoError(t, err)
	assert.Equal(t, uint(2), latest)

	version, dirty, err := database.MigrateVersion(migrations)
	require.NoError(t, err)
	assert.Equal(t, latest, version)
	assert.False(t, dirty)

	require.NoError(t, database.MigrateDown(migrations))
	version, _, err = database.MigrateVersion(migrations)
	require.NoError(t, err)
	assert.Equal(t, uint(1), version)

	var n int
	require.NoError(t, database.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type='index' AND name='idx_perception_objects_identity'`).Scan(&n))
	assert.Equal(t, 0, n)

	require.NoError(t, database.MigrateUp(migrations))
	version, _, err = database.MigrateVersion(migrations)
	require.NoError(t, err)
	assert.Equal(t, uint(2), version)
}

func TestMigrationStatus(t *testing.T) {
	database, err := OpenDB(filepath.Join(t.TempDir(), "status.db"))
	require.NoError(t, err)
	defer database.Close()

	migrations, err := getMigrationsFS()
	require.NoError(t, err)

	status, err := database.MigrationStatus(migrations)
	require.NoError(t, err)
	assert.Equal(t, MigrationStatus{Current: 0, Latest: 2}, status)
	assert.True(t, status.Pending())

	require.NoError(t, database.MigrateUp(migrations))
	status, err = database.MigrationStatus(migrations)
	require.NoError(t, err)
	assert.Equal(t, MigrationStatus{Current: 2, Latest: 2}, status)
	assert.False(t, status.Pending())
}

func TestMigrateVersion_Fresh(t *testing.T) {
	database, err := OpenDB(filepath.Join(t.TempDir(), "fresh.db"))
	require.NoError(t, err)
	defer database.Close()

	migrations, err := getMigrationsFS()
	require.NoError(t, err)

	version, dirty, err := database.MigrateVersion(migrations)
	require.NoError(t, err)
	assert.Equal(t, uint(0), version)
	assert.False(t, dirty)
}

func TestRunMigrateCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cli.db")

	var out bytes.Buffer
	require.NoError(t, RunMigrateCommand([]string{"up"}, path, &out))
	assert.Contains(t, out.String(), "Current version: 2")

	out.Reset()
	require.NoError(t, RunMigrateCommand([]string{"version", "1"}, path, &out))
	assert.Contains(t, out.String(), "Current version: 1")

	out.Reset()
	require.NoError(t, RunMigrateCommand([]string{"status"}, path, &out))
	assert.Contains(t, out.String(), "Latest version: 2")
	assert.Contains(t, out.String(), "1 migration(s) pending")

	t.Run("errors", func(t *testing.T) {
		var out bytes.Buffer
		assert.Error(t, RunMigrateCommand(nil, path, &out))
		assert.Error(t, RunMigrateCommand([]string{"sideways"}, path, &out))
		assert.Error(t, RunMigrateCommand([]string{"force"}, path, &out))
		assert.Error(t, RunMigrateCommand([]string{"version", "x"}, path, &out))
		assert.Contains(t, out.String(), "Usage: perception migrate")
	})
}
