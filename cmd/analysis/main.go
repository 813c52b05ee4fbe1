// Command analysis summarises the per-frame results of a perception run:
// class counts of unique objects and how long each object was tracked.
package main

import (
	"bytes"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/banshee-data/lidar.perception/internal/fsutil"
	"github.com/banshee-data/lidar.perception/internal/lidar/report"
)

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		log.Fatalf("analysis: %v", err)
	}
}

func run(args []string, out io.Writer) error {
	flags := flag.NewFlagSet("analysis", flag.ContinueOnError)
	resultsDir := flags.String("results", "output", "Directory of frame_NNN_analysis.json files")
	chartsDir := flags.String("charts", ".", "Directory for the PNG charts")
	htmlReport := flags.Bool("html", false, "Also write an interactive "+report.ReportHTML)
	assetsHost := flags.String("assets-host", "", "Override the echarts asset host of the HTML report")
	if err := flags.Parse(args); err != nil {
		return err
	}

	fs := fsutil.OSFileSystem{}
	results, err := report.LoadResults(fs, *resultsDir)
	if errors.Is(err, report.ErrNoResults) {
		fmt.Fprintf(out, "Warning: could not find any JSON files to analyze in the '%s' directory.\n", *resultsDir)
		return nil
	}
	if err != nil {
		return err
	}

	summary := report.Summarize(results.Frames)
	if err := report.WriteText(out, summary, len(results.Corrupt)); err != nil {
		return err
	}
	if len(summary.Objects) == 0 {
		fmt.Fprintln(out, "No tracked objects; no charts generated.")
		return nil
	}

	if err := fs.MkdirAll(*chartsDir, 0755); err != nil {
		return fmt.Errorf("failed to create %s: %w", *chartsDir, err)
	}
	countsPath := filepath.Join(*chartsDir, report.UniqueCountsPNG)
	if err := report.RenderUniqueCountsPNG(fs, countsPath, summary); err != nil {
		return err
	}
	fmt.Fprintf(out, "\nGenerated plot: '%s'\n", countsPath)

	histPath := filepath.Join(*chartsDir, report.DurationHistogramPNG)
	if err := report.RenderDurationHistogramPNG(fs, histPath, summary); err != nil {
		return err
	}
	fmt.Fprintf(out, "Generated plot: '%s'\n", histPath)

	if *htmlReport {
		var buf bytes.Buffer
		if err := report.RenderHTML(&buf, summary, *assetsHost); err != nil {
			return err
		}
		htmlPath := filepath.Join(*chartsDir, report.ReportHTML)
		if err := fs.WriteFile(htmlPath, buf.Bytes(), 0644); err != nil {
			return fmt.Errorf("failed to write %s: %w", htmlPath, err)
		}
		fmt.Fprintf(out, "Generated report: '%s'\n", htmlPath)
	}
	return nil
}
