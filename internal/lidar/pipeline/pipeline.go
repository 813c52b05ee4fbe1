package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"sort"
	"strings"
	"time"

	"github.com/banshee-data/lidar.perception/internal/config"
	"github.com/banshee-data/lidar.perception/internal/lidar/l4perception"
	"github.com/banshee-data/lidar.perception/internal/lidar/l5tracks"
	"github.com/banshee-data/lidar.perception/internal/lidar/l6objects"
	"github.com/banshee-data/lidar.perception/internal/timeutil"
)

// Config holds the parameters of every stage.
type Config struct {
	Ground        l4perception.GroundParams
	Clustering    l4perception.DBSCANParams
	Classifier    l6objects.ClassifierThresholds
	Tracker       l5tracks.TrackerConfig
	LinkTolerance float64 // Corner tolerance of identity linkage (metres)
	Seed          int64   // Seed of the ground segmenter's random source
	MaxFrames     int     // Frames to read per run; 0 reads all
}

// ConfigFromTuning builds a Config from a loaded TuningConfig.
func ConfigFromTuning(cfg *config.TuningConfig) Config {
	return Config{
		Ground:        l4perception.GroundParamsFromTuning(cfg),
		Clustering:    l4perception.DBSCANParamsFromTuning(cfg),
		Classifier:    l6objects.ClassifierThresholdsFromTuning(cfg),
		Tracker:       l5tracks.TrackerConfigFromTuning(cfg),
		LinkTolerance: cfg.GetLinkTolerance(),
		Seed:          cfg.GetRandomSeed(),
		MaxFrames:     cfg.GetMaxFrames(),
	}
}

// DefaultConfig returns the default pipeline configuration.
func DefaultConfig() Config {
	return ConfigFromTuning(config.EmptyTuningConfig())
}

// Option customises a Pipeline built by New.
type Option func(*Pipeline)

// WithGroundStage replaces the RANSAC ground segmenter.
func WithGroundStage(s GroundStage) Option { return func(p *Pipeline) { p.ground = s } }

// WithClusterStage replaces the DBSCAN clusterer.
func WithClusterStage(s ClusterStage) Option { return func(p *Pipeline) { p.cluster = s } }

// WithObjectStage replaces feature extraction and classification.
func WithObjectStage(s ObjectStage) Option { return func(p *Pipeline) { p.objects = s } }

// WithTrackingStage replaces the identity tracker.
func WithTrackingStage(s TrackingStage) Option { return func(p *Pipeline) { p.tracking = s } }

// WithSampler drives the default ground segmenter from sampler instead of
// a random source seeded with Config.Seed. Ignored with WithGroundStage.
func WithSampler(s l4perception.Sampler) Option { return func(p *Pipeline) { p.sampler = s } }

// WithClock sets the clock used to time runs.
func WithClock(c timeutil.Clock) Option { return func(p *Pipeline) { p.clock = c } }

// Pipeline processes frames sequentially. It owns the tracker state of one
// run and must not be shared between goroutines or runs.
type Pipeline struct {
	cfg   Config
	clock timeutil.Clock

	sampler  l4perception.Sampler
	ground   GroundStage
	cluster  ClusterStage
	objects  ObjectStage
	tracking TrackingStage
}

// New builds a pipeline. Stages not replaced by an option are the defaults
// configured from cfg.
func New(cfg Config, opts ...Option) *Pipeline {
	p := &Pipeline{cfg: cfg, clock: timeutil.RealClock{}}
	for _, opt := range opts {
		opt(p)
	}

	if p.ground == nil {
		if p.sampler == nil {
			p.sampler = l4perception.NewRandomSampler(rand.New(rand.NewSource(cfg.Seed)))
		}
		p.ground = l4perception.NewGroundSegmenter(cfg.Ground, p.sampler)
	}
	if p.cluster == nil {
		p.cluster = l4perception.NewDBSCANClusterer(cfg.Clustering)
	}
	if p.objects == nil {
		p.objects = objectStage{classifier: l6objects.NewClassifier(cfg.Classifier)}
	}
	if p.tracking == nil {
		p.tracking = l5tracks.NewIdentityTracker(cfg.Tracker)
	}
	return p
}

// Config returns the pipeline configuration.
func (p *Pipeline) Config() Config {
	return p.cfg
}

// ProcessFrame runs every stage over one frame and updates the tracker
// exactly once. Frames with too few points for a plane fit and frames
// without clusters update the tracker with no detections, so every
// identity not seen in this frame is dropped.
func (p *Pipeline) ProcessFrame(frame l4perception.Frame) FrameResult {
	res := FrameResult{
		Index:     frame.Index,
		Source:    frame.Source,
		Status:    FrameProcessed,
		Records:   []ObjectRecord{},
		NumPoints: len(frame.Points),
	}

	seg, err := p.ground.Segment(frame.Points)
	if err != nil {
		res.Status = FrameInsufficientPoints
		res.Reason = err.Error()
		if !errors.Is(err, l4perception.ErrInsufficientPoints) {
			res.Status = FrameGroundFailed
			opsf("frame %d: ground stage failed: %v", frame.Index, err)
		}
		p.tracking.Update(nil)
		return res
	}
	res.NumGround = len(seg.GroundIndices)
	tracef("frame %d: %d ground, %d non-ground points", frame.Index, res.NumGround, len(seg.NonGround))

	clusters := p.cluster.Cluster(seg.NonGround)
	res.NumClusters = clusters.NumClusters
	if clusters.NumClusters == 0 {
		p.tracking.Update(nil)
		return res
	}

	features := p.objects.Describe(seg.NonGround, clusters.Labels)
	tracked := p.tracking.Update(Detections(features))
	ids := LinkIdentities(features, tracked, p.cfg.LinkTolerance)

	for i, f := range features {
		if f.Class == l6objects.ClassNoise {
			res.NoiseObjects++
			continue
		}
		res.Records = append(res.Records, NewObjectRecord(f, ids[i]))
	}
	tracef("frame %d: %d clusters, %d tracked", frame.Index, clusters.NumClusters, len(tracked))
	if c, ok := p.tracking.(identityCounter); ok {
		tracef("frame %d: %d identities active, next id %d", frame.Index, c.Len(), c.NextID())
	}
	return res
}

// RunSummary aggregates one run.
type RunSummary struct {
	Frames       int // Frames read from the source
	Processed    int // Frames that ran every stage
	Insufficient int // Frames with too few points
	GroundFailed int // Frames whose ground stage failed otherwise
	Skipped      int // Frames that failed ingestion
	SinkErrors   int
	Records      int
	ClassCounts  map[l6objects.ObjectClass]int
	ObjectIDs    map[int]bool // Distinct resolved object ids
	Elapsed      time.Duration
}

func newRunSummary() RunSummary {
	return RunSummary{
		ClassCounts: make(map[l6objects.ObjectClass]int),
		ObjectIDs:   make(map[int]bool),
	}
}

func (s *RunSummary) add(res FrameResult) {
	s.Frames++
	switch res.Status {
	case FrameProcessed:
		s.Processed++
	case FrameInsufficientPoints:
		s.Insufficient++
	case FrameGroundFailed:
		s.GroundFailed++
	case FrameIngestionFailed:
		s.Skipped++
	}
	s.Records += len(res.Records)
	for _, r := range res.Records {
		s.ClassCounts[r.Class]++
		if r.ObjectID != UnresolvedID {
			s.ObjectIDs[r.ObjectID] = true
		}
	}
}

// Run reads frames from src until io.EOF or Config.MaxFrames, processes
// each one and hands every result to sink (which may be nil). Ingestion
// failures and sink errors are logged and counted; they never stop the
// run. Run returns an error only when ctx is done, which is checked
// between frames.
func (p *Pipeline) Run(ctx context.Context, src FrameSource, sink ResultSink) (RunSummary, error) {
	summary := newRunSummary()
	start := p.clock.Now()

	for {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		if p.cfg.MaxFrames > 0 && summary.Frames >= p.cfg.MaxFrames {
			break
		}

		frame, err := src.Next(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
			return summary, ctxErr
		}

		var res FrameResult
		if err != nil {
			opsf("[%d] skipped %s: %v", frame.Index+1, frame.Source, err)
			res = FrameResult{
				Index:  frame.Index,
				Source: frame.Source,
				Status: FrameIngestionFailed,
				Reason: err.Error(),
			}
		} else {
			diagf("[%d] processing %s (%d points)", frame.Index+1, frame.Source, len(frame.Points))
			res = p.ProcessFrame(frame)
			logFrameResult(res)
		}
		summary.add(res)

		if sink != nil {
			if err := sink.WriteFrame(res); err != nil {
				summary.SinkErrors++
				opsf("[%d] failed to write result for %s: %v", frame.Index+1, frame.Source, err)
			}
		}
	}

	summary.Elapsed = p.clock.Since(start)
	diagf("run complete: %d frames, %d processed, %d insufficient, %d skipped, %d objects, %d identities in %v",
		summary.Frames, summary.Processed, summary.Insufficient, summary.Skipped, summary.Records,
		len(summary.ObjectIDs), summary.Elapsed)
	return summary, nil
}

func logFrameResult(res FrameResult) {
	if res.Status == FrameInsufficientPoints || res.Status == FrameGroundFailed {
		diagf("[%d] %s: %s", res.Index+1, res.Source, res.Reason)
		return
	}
	if len(res.Records) == 0 {
		diagf("[%d] %d clusters, no objects", res.Index+1, res.NumClusters)
		return
	}
	diagf("[%d] %d clusters, class distribution: %s", res.Index+1, res.NumClusters, FormatClassCounts(res.Records))
}

// FormatClassCounts renders per-class record counts as
// "car=2 pedestrian=1", sorted by class name.
func FormatClassCounts(records []ObjectRecord) string {
	counts := make(map[l6objects.ObjectClass]int)
	for _, r := range records {
		counts[r.Class]++
	}
	return FormatCounts(counts)
}

// FormatCounts renders a class histogram the way FormatClassCounts does.
func FormatCounts(counts map[l6objects.ObjectClass]int) string {
	classes := make([]string, 0, len(counts))
	for c, n := range counts {
		if n > 0 {
			classes = append(classes, string(c))
		}
	}
	sort.Strings(classes)

	parts := make([]string, len(classes))
	for i, c := range classes {
		parts[i] = fmt.Sprintf("%s=%d", c, counts[l6objects.ObjectClass(c)])
	}
	return strings.Join(parts, " ")
}
