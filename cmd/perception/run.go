package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/banshee-data/lidar.perception/internal/config"
	"github.com/banshee-data/lidar.perception/internal/db"
	"github.com/banshee-data/lidar.perception/internal/fsutil"
	"github.com/banshee-data/lidar.perception/internal/lidar/l2frames"
	"github.com/banshee-data/lidar.perception/internal/lidar/pipeline"
	"github.com/banshee-data/lidar.perception/internal/lidar/storage/jsonsink"
	"github.com/banshee-data/lidar.perception/internal/lidar/storage/sqlite"
	"github.com/banshee-data/lidar.perception/internal/monitoring"
)

type runOptions struct {
	dataDir    string
	outDir     string
	configPath string
	dbPath     string
	seed       int64
	maxFrames  int
	debug      bool

	// Flags given explicitly on the command line.
	set map[string]bool
}

func parseRunFlags(args []string) (*runOptions, error) {
	o := &runOptions{set: make(map[string]bool)}
	fsFlags := flag.NewFlagSet("run", flag.ContinueOnError)
	fsFlags.StringVar(&o.dataDir, "data", "data", "Directory searched recursively for frame CSV files")
	fsFlags.StringVar(&o.outDir, "out", "output", "Directory for per-frame JSON results")
	fsFlags.StringVar(&o.configPath, "config", "", "Tuning config (.json, .yaml); defaults to "+config.DefaultConfigPath+" when present")
	fsFlags.StringVar(&o.dbPath, "db", "", "Also record the run in this SQLite database")
	fsFlags.Int64Var(&o.seed, "seed", 42, "Random seed for ground segmentation (overrides config)")
	fsFlags.IntVar(&o.maxFrames, "max-frames", 0, "Stop after this many frames, 0 for all (overrides config)")
	fsFlags.BoolVar(&o.debug, "debug", false, "Enable stage-level debug logging")
	if err := fsFlags.Parse(args); err != nil {
		return nil, err
	}
	if fsFlags.NArg() > 0 {
		return nil, fmt.Errorf("unexpected arguments: %v", fsFlags.Args())
	}
	fsFlags.Visit(func(f *flag.Flag) { o.set[f.Name] = true })
	return o, nil
}

// loadTuning resolves the configuration: file, then PERCEPTION_* variables,
// then explicit flags.
func loadTuning(o *runOptions, lookup func(string) (string, bool)) (*config.TuningConfig, error) {
	var (
		cfg *config.TuningConfig
		err error
	)
	switch {
	case o.configPath != "":
		cfg, err = config.LoadTuningConfig(o.configPath)
	case fileExists(config.DefaultConfigPath):
		cfg, err = config.LoadTuningConfig(config.DefaultConfigPath)
	default:
		cfg = config.DefaultTuningConfig()
	}
	if err != nil {
		return nil, err
	}

	if err := cfg.ApplyEnv(lookup); err != nil {
		return nil, err
	}
	if o.set["seed"] {
		cfg.RandomSeed = &o.seed
	}
	if o.set["max-frames"] {
		if o.maxFrames < 0 {
			return nil, fmt.Errorf("invalid -max-frames %d", o.maxFrames)
		}
		cfg.MaxFrames = &o.maxFrames
	}
	return cfg, nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func runCommand(ctx context.Context, args []string, out io.Writer) error {
	o, err := parseRunFlags(args)
	if err != nil {
		return err
	}
	monitoring.SetDebug(o.debug)

	tuning, err := loadTuning(o, os.LookupEnv)
	if err != nil {
		return err
	}

	fs := fsutil.OSFileSystem{}
	src, err := l2frames.NewCSVFrameSource(fs, o.dataDir)
	if errors.Is(err, l2frames.ErrNoFrames) {
		fmt.Fprintf(out, "No frame files found in %s\n", o.dataDir)
		return nil
	}
	if err != nil {
		return err
	}
	monitoring.Logf("found %d frame files in %s", src.Len(), o.dataDir)

	jsonSink, err := jsonsink.New(fs, o.outDir)
	if err != nil {
		return err
	}
	sinks := pipeline.MultiSink{jsonSink}

	var store *sqlite.ResultStore
	if o.dbPath != "" {
		database, err := db.NewDB(o.dbPath)
		if err != nil {
			return err
		}
		defer database.Close()

		store = sqlite.NewResultStore(database.DB)
		runID, err := store.StartRun(o.dataDir, tuning.GetRandomSeed(), tuning)
		if err != nil {
			return err
		}
		monitoring.Logf("recording run %s in %s", runID, o.dbPath)
		sinks = append(sinks, store)
	}

	p := pipeline.New(pipeline.ConfigFromTuning(tuning))
	summary, runErr := p.Run(ctx, src, sinks)

	if store != nil {
		if err := store.FinishRun(summary); err != nil {
			monitoring.Logf("failed to finish run %s: %v", store.RunID(), err)
		}
	}

	fmt.Fprintf(out, "Processed %d frames (%d skipped, %d with too few points): %d objects, %d identities in %v\n",
		summary.Frames, summary.Skipped, summary.Insufficient, summary.Records, len(summary.ObjectIDs),
		summary.Elapsed.Round(time.Millisecond))
	if summary.Records > 0 {
		fmt.Fprintf(out, "Class distribution: %s\n", pipeline.FormatCounts(summary.ClassCounts))
	}
	fmt.Fprintf(out, "Results written to %s\n", o.outDir)
	return runErr
}
