// Package jsonsink writes one JSON result file per processed frame.
package jsonsink

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"regexp"

	"github.com/banshee-data/lidar.perception/internal/fsutil"
	"github.com/banshee-data/lidar.perception/internal/lidar/pipeline"
)

// FileNamePattern matches the result files written by Sink.
var FileNamePattern = regexp.MustCompile(`^frame_(\d{3,})_analysis\.json$`)

// FileName returns the result file name of the zero-based frame index.
func FileName(index int) string {
	return fmt.Sprintf("frame_%03d_analysis.json", index+1)
}

// Sink writes each frame's object records as an indented JSON array.
// Frames that failed ingestion produce no file; every other frame does,
// even when it has no records.
type Sink struct {
	fs  fsutil.FileSystem
	dir string
}

// New creates a sink writing into dir, creating it if needed.
func New(fs fsutil.FileSystem, dir string) (*Sink, error) {
	if err := fs.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory %s: %w", dir, err)
	}
	return &Sink{fs: fs, dir: dir}, nil
}

// Dir returns the output directory.
func (s *Sink) Dir() string {
	return s.dir
}

// WriteFrame implements pipeline.ResultSink.
func (s *Sink) WriteFrame(result pipeline.FrameResult) error {
	if result.Skipped() {
		return nil
	}
	records := result.Records
	if records == nil {
		records = []pipeline.ObjectRecord{}
	}

	data, err := json.MarshalIndent(records, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to encode frame %d: %w", result.Index, err)
	}
	name := filepath.Join(s.dir, FileName(result.Index))
	if err := s.fs.WriteFile(name, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	return nil
}

var _ pipeline.ResultSink = (*Sink)(nil)
