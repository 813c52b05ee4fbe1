package l4perception

import (
	"math"

	"github.com/golang/geo/r3"
)

// NoiseLabel marks a point that belongs to no cluster.
const NoiseLabel = -1

// Point is one LiDAR return in the sensor's Cartesian frame.
type Point struct {
	X, Y, Z   float64 // Position (metres)
	Intensity float64 // Return intensity
}

// Vector returns the point position as an r3.Vector.
func (p Point) Vector() r3.Vector {
	return r3.Vector{X: p.X, Y: p.Y, Z: p.Z}
}

// Frame is an ordered point collection captured at one instant.
type Frame struct {
	Index  int    // Zero-based position in the run
	Source string // Where the frame was read from
	Points []Point
}

// PlaneModel is a plane n·p + d = 0 with a unit normal, together with the
// inlier distance threshold it was fitted with.
type PlaneModel struct {
	Normal    r3.Vector
	Offset    float64
	Threshold float64
}

// Distance returns the perpendicular distance from p to the plane.
func (m PlaneModel) Distance(p Point) float64 {
	return math.Abs(m.Normal.Dot(p.Vector()) + m.Offset)
}

// IsInlier reports whether p lies within the plane's threshold.
func (m PlaneModel) IsInlier(p Point) bool {
	return m.Distance(p) <= m.Threshold
}

// ClusterResult holds one label per input point, in input order.
// Labels run 0..NumClusters-1; NoiseLabel marks unclustered points.
type ClusterResult struct {
	Labels      []int
	NumClusters int
}

// Sizes returns the member count of each cluster, indexed by label.
func (r ClusterResult) Sizes() []int {
	sizes := make([]int, r.NumClusters)
	for _, l := range r.Labels {
		if l >= 0 && l < r.NumClusters {
			sizes[l]++
		}
	}
	return sizes
}

// NoiseCount returns the number of points labelled as noise.
func (r ClusterResult) NoiseCount() int {
	n := 0
	for _, l := range r.Labels {
		if l == NoiseLabel {
			n++
		}
	}
	return n
}
