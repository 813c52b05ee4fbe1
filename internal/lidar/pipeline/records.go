package pipeline

import (
	"github.com/banshee-data/lidar.perception/internal/lidar/l6objects"
)

// Dimensions are a cluster's x, y and z extents in metres.
type Dimensions struct {
	Width  float64 `json:"width"`
	Length float64 `json:"length"`
	Height float64 `json:"height"`
}

// ObjectRecord is the per-object output contract consumed by sinks and the
// aggregate report.
type ObjectRecord struct {
	ObjectID     int                   `json:"object_id"` // -1 when unresolved
	ClusterID    int                   `json:"cluster_id"`
	Class        l6objects.ObjectClass `json:"class"`
	NumPoints    int                   `json:"num_points"`
	Dimensions   Dimensions            `json:"dimensions_m"`
	AvgIntensity int                   `json:"avg_intensity"`
}

// NewObjectRecord builds the output record of a classified feature.
func NewObjectRecord(f l6objects.ObjectFeature, objectID int) ObjectRecord {
	return ObjectRecord{
		ObjectID:  objectID,
		ClusterID: f.Label,
		Class:     f.Class,
		NumPoints: f.PointCount,
		Dimensions: Dimensions{
			Width:  f.Width,
			Length: f.Length,
			Height: f.Height,
		},
		AvgIntensity: f.AvgIntensity,
	}
}

// FrameStatus tells sinks how a frame was handled.
type FrameStatus string

const (
	// FrameProcessed ran every stage; Records may still be empty.
	FrameProcessed FrameStatus = "processed"
	// FrameInsufficientPoints had too few points for a plane fit; the
	// tracker saw an empty frame.
	FrameInsufficientPoints FrameStatus = "insufficient_points"
	// FrameGroundFailed hit any other ground-stage error; the tracker saw
	// an empty frame.
	FrameGroundFailed FrameStatus = "ground_failed"
	// FrameIngestionFailed could not be read; the tracker was not updated.
	FrameIngestionFailed FrameStatus = "ingestion_failed"
)

// FrameResult is the outcome of one frame.
type FrameResult struct {
	Index   int    // Zero-based position in the run
	Source  string // Frame file
	Status  FrameStatus
	Reason  string         // Error text for non-processed frames
	Records []ObjectRecord // Non-noise objects in ascending cluster order

	// Diagnostics
	NumPoints    int
	NumGround    int
	NumClusters  int
	NoiseObjects int // Clusters classified as noise (not in Records)
}

// Skipped reports whether the frame produced no pipeline output at all.
func (r FrameResult) Skipped() bool {
	return r.Status == FrameIngestionFailed
}
