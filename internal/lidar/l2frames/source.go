package l2frames

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"sort"

	"github.com/banshee-data/lidar.perception/internal/fsutil"
	"github.com/banshee-data/lidar.perception/internal/lidar/l4perception"
)

// ErrNoFrames is returned when discovery finds no frame files.
var ErrNoFrames = errors.New("no frame files found")

// FrameExt is the extension of frame files.
const FrameExt = ".csv"

// DiscoverFrames returns every *.csv file below root, recursively, in
// lexical path order.
func DiscoverFrames(fs fsutil.FileSystem, root string) ([]string, error) {
	var paths []string
	err := fs.WalkFiles(root, func(path string) error {
		if filepath.Ext(path) == FrameExt {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", root, err)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoFrames, root)
	}
	sort.Strings(paths)
	return paths, nil
}

// CSVFrameSource yields the frames of a fixed list of files in order.
type CSVFrameSource struct {
	reader *CSVFrameReader
	paths  []string
	pos    int
}

// NewCSVFrameSource discovers the frame files under root.
func NewCSVFrameSource(fs fsutil.FileSystem, root string) (*CSVFrameSource, error) {
	paths, err := DiscoverFrames(fs, root)
	if err != nil {
		return nil, err
	}
	return NewCSVFrameSourceFromPaths(fs, paths), nil
}

// NewCSVFrameSourceFromPaths reads exactly the given files, in order.
func NewCSVFrameSourceFromPaths(fs fsutil.FileSystem, paths []string) *CSVFrameSource {
	return &CSVFrameSource{reader: NewCSVFrameReader(fs), paths: paths}
}

// Len returns the number of frames the source will yield.
func (s *CSVFrameSource) Len() int {
	return len(s.paths)
}

// Paths returns the frame files in iteration order.
func (s *CSVFrameSource) Paths() []string {
	return s.paths
}

// Next decodes the next frame. It returns io.EOF after the last frame.
// On a decoding error the returned Frame still carries Index and Source,
// and the following call moves on to the next file.
func (s *CSVFrameSource) Next(ctx context.Context) (l4perception.Frame, error) {
	if err := ctx.Err(); err != nil {
		return l4perception.Frame{}, err
	}
	if s.pos >= len(s.paths) {
		return l4perception.Frame{}, io.EOF
	}

	frame := l4perception.Frame{Index: s.pos, Source: s.paths[s.pos]}
	s.pos++

	points, err := s.reader.ReadFrame(frame.Source)
	if err != nil {
		return frame, err
	}
	frame.Points = points
	return frame, nil
}
