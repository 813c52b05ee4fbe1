package pipeline

import (
	"errors"

	"github.com/banshee-data/lidar.perception/internal/lidar/l4perception"
	"github.com/banshee-data/lidar.perception/internal/lidar/l5tracks"
	"github.com/banshee-data/lidar.perception/internal/lidar/l6objects"
)

type stubGround struct{}

func (stubGround) Segment(points []l4perception.Point) (l4perception.GroundSegmentation, error) {
	return l4perception.GroundSegmentation{Found: true, NonGround: points}, nil
}

// failingGround fails every frame with err.
type failingGround struct{ err error }

func (g failingGround) Segment([]l4perception.Point) (l4perception.GroundSegmentation, error) {
	return l4perception.GroundSegmentation{}, g.err
}

type stubCluster struct{ n int }

func (s stubCluster) Cluster(points []l4perception.Point) l4perception.ClusterResult {
	labels := make([]int, len(points))
	for i := range labels {
		labels[i] = i % s.n
	}
	return l4perception.ClusterResult{Labels: labels, NumClusters: s.n}
}

type stubObjects struct {
	features []l6objects.ObjectFeature
}

func (s stubObjects) Describe([]l4perception.Point, []int) []l6objects.ObjectFeature {
	return append([]l6objects.ObjectFeature(nil), s.features...)
}

// recordingTracker hands out ids in detection order and remembers every call.
type recordingTracker struct {
	calls  [][]l5tracks.Detection
	nextID int
}

func (r *recordingTracker) Update(dets []l5tracks.Detection) []l5tracks.TrackedDetection {
	r.calls = append(r.calls, dets)
	out := make([]l5tracks.TrackedDetection, len(dets))
	for i, d := range dets {
		r.nextID++
		out[i] = l5tracks.TrackedDetection{Detection: d, ID: r.nextID}
	}
	return out
}

type failingSink struct{}

func (failingSink) WriteFrame(FrameResult) error {
	return errors.New("disk full")
}
