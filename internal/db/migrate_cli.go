package db

import (
	"fmt"
	"io"
	"io/fs"
	"strconv"

	"github.com/banshee-data/lidar.perception/internal/monitoring"
)

// RunMigrateCommand handles the 'migrate' subcommand of the perception
// binary: up, down, status, version <n> and force <n>.
func RunMigrateCommand(args []string, dbPath string, out io.Writer) error {
	if len(args) < 1 {
		PrintMigrateHelp(out)
		return fmt.Errorf("missing migrate action")
	}

	migrations, err := getMigrationsFS()
	if err != nil {
		return err
	}

	database, err := OpenDB(dbPath)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer database.Close()

	switch action := args[0]; action {
	case "up":
		monitoring.Logf("Running migrations...")
		if err := database.MigrateUp(migrations); err != nil {
			return err
		}
	case "down":
		monitoring.Logf("Rolling back one migration...")
		if err := database.MigrateDown(migrations); err != nil {
			return err
		}
	case "status":
	case "version", "force":
		if len(args) < 2 {
			return fmt.Errorf("usage: perception migrate %s <version_number>", action)
		}
		n, err := strconv.Atoi(args[1])
		if err != nil || n < 0 {
			return fmt.Errorf("invalid version number: %s", args[1])
		}
		if action == "version" {
			err = database.MigrateTo(migrations, uint(n))
		} else {
			err = database.MigrateForce(migrations, n)
		}
		if err != nil {
			return err
		}
	case "help":
		PrintMigrateHelp(out)
		return nil
	default:
		PrintMigrateHelp(out)
		return fmt.Errorf("unknown migrate action: %s", action)
	}

	return printMigrateStatus(database, migrations, out)
}

func printMigrateStatus(database *DB, migrations fs.FS, out io.Writer) error {
	status, err := database.MigrationStatus(migrations)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, "=== Migration Status ===")
	fmt.Fprintf(out, "Current version: %d\n", status.Current)
	fmt.Fprintf(out, "Latest version: %d\n", status.Latest)
	fmt.Fprintf(out, "Dirty: %v\n", status.Dirty)
	switch {
	case status.Dirty:
		fmt.Fprintln(out, "\nWARNING: database is in a dirty state; inspect it, then run: perception migrate force <version>")
	case status.Pending():
		fmt.Fprintf(out, "\n%d migration(s) pending; run: perception migrate up\n", status.Latest-status.Current)
	}
	return nil
}

// PrintMigrateHelp writes usage for the migrate subcommand.
func PrintMigrateHelp(out io.Writer) {
	fmt.Fprint(out, `Usage: perception migrate <action> [args]

Actions:
  up              Apply all pending migrations
  down            Roll back the most recent migration
  status          Show the current migration version
  version <n>     Migrate up or down to version n
  force <n>       Force the recorded version (recovery only)
  help            Show this help
`)
}
