package pipeline

import (
	"context"
	"errors"
	"io"

	"github.com/banshee-data/lidar.perception/internal/lidar/l4perception"
)

// MultiSink fans one result out to several sinks. Every sink sees every
// result; the errors of all failing sinks are joined.
type MultiSink []ResultSink

// WriteFrame implements ResultSink.
func (m MultiSink) WriteFrame(result FrameResult) error {
	var errs []error
	for _, s := range m {
		if err := s.WriteFrame(result); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// CollectSink keeps every result in memory.
type CollectSink struct {
	Results []FrameResult
}

// WriteFrame implements ResultSink.
func (c *CollectSink) WriteFrame(result FrameResult) error {
	c.Results = append(c.Results, result)
	return nil
}

// SliceSource yields pre-loaded frames. Frame indices are rewritten to
// their position in the slice.
type SliceSource struct {
	frames []l4perception.Frame
	pos    int
}

// NewSliceSource creates a source over frames.
func NewSliceSource(frames []l4perception.Frame) *SliceSource {
	return &SliceSource{frames: frames}
}

// Next implements FrameSource.
func (s *SliceSource) Next(ctx context.Context) (l4perception.Frame, error) {
	if err := ctx.Err(); err != nil {
		return l4perception.Frame{}, err
	}
	if s.pos >= len(s.frames) {
		return l4perception.Frame{}, io.EOF
	}
	f := s.frames[s.pos]
	f.Index = s.pos
	s.pos++
	return f, nil
}

var (
	_ ResultSink  = MultiSink(nil)
	_ ResultSink  = (*CollectSink)(nil)
	_ FrameSource = (*SliceSource)(nil)
)
