package pipeline

import (
	"io"
	"log"

	"github.com/banshee-data/lidar.perception/internal/monitoring"
)

const logPrefix = "[pipeline] "

// logStream writes to its own logger when one is set and to fallback
// otherwise.
type logStream struct {
	logger   *log.Logger
	fallback func(format string, v ...interface{})
}

func (s *logStream) printf(format string, args ...interface{}) {
	if s.logger != nil {
		s.logger.Printf(format, args...)
		return
	}
	s.fallback(logPrefix+format, args...)
}

func (s *logStream) redirect(w io.Writer) {
	s.logger = nil
	if w != nil {
		s.logger = log.New(w, logPrefix, log.LstdFlags|log.Lmicroseconds)
	}
}

var (
	// skipped frames, sink failures
	opsStream = &logStream{fallback: func(f string, v ...interface{}) { monitoring.Logf(f, v...) }}
	// per-frame progress, class distribution, run summary
	diagStream = &logStream{fallback: func(f string, v ...interface{}) { monitoring.Logf(f, v...) }}
	// stage-level detail
	traceStream = &logStream{fallback: monitoring.Debugf}
)

// SetLogWriters redirects the ops, diag and trace streams of the pipeline.
// A nil writer restores that stream's default: ops and diag go to
// monitoring.Logf, trace goes to monitoring.Debugf.
func SetLogWriters(ops, diag, trace io.Writer) {
	opsStream.redirect(ops)
	diagStream.redirect(diag)
	traceStream.redirect(trace)
}

func opsf(format string, args ...interface{})   { opsStream.printf(format, args...) }
func diagf(format string, args ...interface{})  { diagStream.printf(format, args...) }
func tracef(format string, args ...interface{}) { traceStream.printf(format, args...) }
