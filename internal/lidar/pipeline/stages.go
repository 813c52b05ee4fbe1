package pipeline

import (
	"context"

	"github.com/banshee-data/lidar.perception/internal/lidar/l4perception"
	"github.com/banshee-data/lidar.perception/internal/lidar/l5tracks"
	"github.com/banshee-data/lidar.perception/internal/lidar/l6objects"
)

// ---------------------------------------------------------------------------
// Stage interfaces: layer-aligned contracts for the perception pipeline.
// The defaults are built by New; tests and experiments replace them through
// the With* options.
// ---------------------------------------------------------------------------

// GroundStage removes the ground plane from a frame (L4 Perception).
type GroundStage interface {
	Segment(points []l4perception.Point) (l4perception.GroundSegmentation, error)
}

// ClusterStage labels non-ground points (L4 Perception).
type ClusterStage interface {
	Cluster(points []l4perception.Point) l4perception.ClusterResult
}

// identityCounter is implemented by trackers that can report their table
// size for trace logging.
type identityCounter interface {
	Len() int
	NextID() int
}

// ObjectStage describes and classifies every cluster (L6 Objects).
type ObjectStage interface {
	Describe(points []l4perception.Point, labels []int) []l6objects.ObjectFeature
}

// TrackingStage assigns persistent identities to detections (L5 Tracks).
type TrackingStage interface {
	Update(dets []l5tracks.Detection) []l5tracks.TrackedDetection
}

// FrameSource yields frames in processing order.
type FrameSource interface {
	// Next returns the next frame, or io.EOF when there are no more.
	// Any other error is an ingestion failure for that frame only; the
	// returned Frame still carries its Index and Source.
	Next(ctx context.Context) (l4perception.Frame, error)
}

// ResultSink receives one FrameResult per frame, including frames that
// failed ingestion.
type ResultSink interface {
	WriteFrame(result FrameResult) error
}

// objectStage is the default ObjectStage: feature extraction followed by
// rule-based classification.
type objectStage struct {
	classifier *l6objects.Classifier
}

func (s objectStage) Describe(points []l4perception.Point, labels []int) []l6objects.ObjectFeature {
	features := l6objects.ExtractFeatures(points, labels)
	s.classifier.ClassifyAll(features)
	return features
}

// Compile-time checks for the default stages.
var (
	_ GroundStage   = (*l4perception.GroundSegmenter)(nil)
	_ ClusterStage  = (*l4perception.DBSCANClusterer)(nil)
	_ ObjectStage   = objectStage{}
	_ TrackingStage = (*l5tracks.IdentityTracker)(nil)

	_ identityCounter = (*l5tracks.IdentityTracker)(nil)
)
