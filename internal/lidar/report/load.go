// Package report aggregates per-frame result files into run-level
// statistics: the class of every unique object and how long each object
// was tracked.
package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"sort"

	"github.com/banshee-data/lidar.perception/internal/fsutil"
	"github.com/banshee-data/lidar.perception/internal/lidar/pipeline"
	"github.com/banshee-data/lidar.perception/internal/monitoring"
)

// ErrNoResults is returned when a directory holds no result files.
var ErrNoResults = errors.New("no result files found")

// FrameFile is the decoded content of one result file.
type FrameFile struct {
	Path    string
	Records []pipeline.ObjectRecord
}

// Results is every result file found in a directory.
type Results struct {
	Files   []string    // Every *.json file, sorted
	Corrupt []string    // Files that could not be decoded
	Frames  []FrameFile // Decoded files in Files order
}

// LoadResults reads every *.json file directly inside dir in lexical
// order. Files that cannot be read or decoded are logged and skipped.
func LoadResults(fs fsutil.FileSystem, dir string) (*Results, error) {
	dir = filepath.Clean(dir)
	res := &Results{}
	err := fs.WalkFiles(dir, func(path string) error {
		if filepath.Ext(path) == ".json" && filepath.Dir(path) == dir {
			res.Files = append(res.Files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", dir, err)
	}
	if len(res.Files) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoResults, dir)
	}
	sort.Strings(res.Files)

	for _, path := range res.Files {
		data, err := fs.ReadFile(path)
		if err != nil {
			monitoring.Logf("WARNING: failed to read %s, skipping: %v", path, err)
			res.Corrupt = append(res.Corrupt, path)
			continue
		}
		var records []pipeline.ObjectRecord
		if err := json.Unmarshal(data, &records); err != nil {
			monitoring.Logf("WARNING: %s is corrupted or empty, skipping: %v", path, err)
			res.Corrupt = append(res.Corrupt, path)
			continue
		}
		res.Frames = append(res.Frames, FrameFile{Path: path, Records: records})
	}
	return res, nil
}
