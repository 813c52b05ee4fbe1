package l2frames

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/banshee-data/lidar.perception/internal/fsutil"
	"github.com/banshee-data/lidar.perception/internal/lidar/l4perception"
)

// ErrMalformedFrame is wrapped by every decoding failure of a single frame.
var ErrMalformedFrame = errors.New("malformed frame")

// RequiredColumns lists the header names every frame file must carry.
var RequiredColumns = []string{"X", "Y", "Z", "INTENSITY"}

// FieldSeparator separates values in a frame file.
const FieldSeparator = ';'

// CSVFrameReader decodes frame files.
type CSVFrameReader struct {
	fs fsutil.FileSystem
}

// NewCSVFrameReader creates a reader over fs.
func NewCSVFrameReader(fs fsutil.FileSystem) *CSVFrameReader {
	return &CSVFrameReader{fs: fs}
}

// ReadFrame decodes the file at path. Unreadable files, missing columns,
// non-numeric or non-finite values, and files without data rows all fail
// with an error wrapping ErrMalformedFrame.
func (r *CSVFrameReader) ReadFrame(path string) ([]l4perception.Point, error) {
	f, err := r.fs.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open %s: %v", ErrMalformedFrame, path, err)
	}
	defer f.Close()

	points, err := DecodeFrame(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return points, nil
}

// DecodeFrame parses one frame from rd.
func DecodeFrame(rd io.Reader) ([]l4perception.Point, error) {
	reader := csv.NewReader(rd)
	reader.Comma = FieldSeparator
	reader.TrimLeadingSpace = true
	reader.ReuseRecord = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty file", ErrMalformedFrame)
		}
		return nil, fmt.Errorf("%w: failed to read header: %v", ErrMalformedFrame, err)
	}

	colMap := make(map[string]int, len(header))
	for i, col := range header {
		name := strings.ToUpper(strings.TrimSpace(strings.TrimPrefix(col, "\ufeff")))
		if _, dup := colMap[name]; !dup {
			colMap[name] = i
		}
	}
	cols := make([]int, len(RequiredColumns))
	var missing []string
	for i, name := range RequiredColumns {
		idx, ok := colMap[name]
		if !ok {
			missing = append(missing, name)
		}
		cols[i] = idx
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: missing required columns %v (found %v)", ErrMalformedFrame, missing, header)
	}

	var points []l4perception.Point
	for line := 2; ; line++ {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedFrame, err)
		}

		var v [4]float64
		for i, c := range cols {
			v[i], err = strconv.ParseFloat(strings.TrimSpace(row[c]), 64)
			if err != nil || math.IsNaN(v[i]) || math.IsInf(v[i], 0) {
				return nil, fmt.Errorf("%w: line %d: invalid %s value %q", ErrMalformedFrame, line, RequiredColumns[i], row[c])
			}
		}
		points = append(points, l4perception.Point{X: v[0], Y: v[1], Z: v[2], Intensity: v[3]})
	}

	if len(points) == 0 {
		return nil, fmt.Errorf("%w: no data points", ErrMalformedFrame)
	}
	return points, nil
}
