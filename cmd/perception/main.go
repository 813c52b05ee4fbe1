// Command perception runs the LiDAR perception pipeline over a directory of
// CSV frames and writes one JSON result file per frame.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/banshee-data/lidar.perception/internal/db"
	"github.com/banshee-data/lidar.perception/internal/version"
)

const defaultDBFile = "perception.db"

func main() {
	flag.Usage = func() { printUsage(os.Stderr) }
	flag.Parse()

	// A missing .env is the normal case.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Printf("failed to load .env: %v", err)
	}

	command, args := "run", flag.Args()
	if len(args) > 0 {
		command, args = args[0], args[1:]
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var err error
	switch command {
	case "run":
		err = runCommand(ctx, args, os.Stdout)
	case "migrate":
		err = migrateCommand(args, os.Stdout)
	case "version":
		fmt.Printf("perception %s\n", version.String())
	case "help":
		printUsage(os.Stdout)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
		printUsage(os.Stderr)
		os.Exit(2)
	}
	if err != nil {
		log.Fatalf("perception %s: %v", command, err)
	}
}

func migrateCommand(args []string, out io.Writer) error {
	fsFlags := flag.NewFlagSet("migrate", flag.ContinueOnError)
	dbPath := fsFlags.String("db", defaultDBFile, "SQLite database path")
	if err := fsFlags.Parse(args); err != nil {
		return err
	}
	return db.RunMigrateCommand(fsFlags.Args(), *dbPath, out)
}

func printUsage(w io.Writer) {
	fmt.Fprint(w, `perception - offline LiDAR frame perception

Usage: perception [command] [options]

Commands:
  run        Process every frame under -data (default command)
  migrate    Manage the result database schema (perception migrate help)
  version    Show build information
  help       Show this help message

Run 'perception run -h' for the run options. Every tuning key can also be
set through a PERCEPTION_* environment variable, optionally from a .env file.
`)
}
