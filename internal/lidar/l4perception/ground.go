package l4perception

import (
	"errors"
	"fmt"
	"math/rand"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/mat"

	"github.com/banshee-data/lidar.perception/internal/config"
	"github.com/banshee-data/lidar.perception/internal/monitoring"
)

// ErrInsufficientPoints is returned when a frame holds fewer points than
// the plane-fit sample size. It is recoverable: callers treat the frame as
// having no non-ground points.
var ErrInsufficientPoints = errors.New("insufficient points for plane fit")

const (
	// minSampleSize is the number of points that defines a plane.
	minSampleSize = 3
	// maxDegenerateRetries bounds redraws of near-collinear samples per iteration.
	maxDegenerateRetries = 100
	// maxDistinctDraws bounds rejection sampling before falling back to probing.
	maxDistinctDraws = 64
	// degenerateEpsilon is the smallest normal magnitude (or second eigenvalue)
	// accepted for a fitted plane.
	degenerateEpsilon = 1e-9
)

// GroundParams configures RANSAC ground segmentation.
type GroundParams struct {
	DistanceThreshold float64 // Max perpendicular distance of an inlier (metres)
	SampleSize        int     // Points drawn per hypothesis (≥ 3)
	Iterations        int     // Hypotheses evaluated per frame
}

// DefaultGroundParams returns the default ground segmentation parameters.
func DefaultGroundParams() GroundParams {
	return GroundParamsFromTuning(config.EmptyTuningConfig())
}

// GroundParamsFromTuning extracts ground segmentation parameters from cfg.
func GroundParamsFromTuning(cfg *config.TuningConfig) GroundParams {
	return GroundParams{
		DistanceThreshold: cfg.GetGroundDistanceThreshold(),
		SampleSize:        cfg.GetRansacSampleSize(),
		Iterations:        cfg.GetRansacIterations(),
	}
}

// Sampler draws indices for plane hypotheses.
type Sampler interface {
	// Sample returns an index in [0, n).
	Sample(n int) int
}

// RandomSampler draws uniformly from a caller-owned random source.
type RandomSampler struct {
	rng *rand.Rand
}

// NewRandomSampler wraps rng. The sampler is not safe for concurrent use.
func NewRandomSampler(rng *rand.Rand) *RandomSampler {
	return &RandomSampler{rng: rng}
}

// Sample implements Sampler.
func (s *RandomSampler) Sample(n int) int {
	return s.rng.Intn(n)
}

// GroundSegmentation is the outcome of segmenting one frame.
type GroundSegmentation struct {
	Plane         PlaneModel // Winning plane (zero value when !Found)
	Found         bool       // False when every hypothesis was degenerate
	GroundIndices []int      // Indices of plane inliers, ascending
	NonGround     []Point    // Remaining points in original order
}

// GroundSegmenter removes the dominant plane from a frame using RANSAC.
type GroundSegmenter struct {
	params  GroundParams
	sampler Sampler
}

// NewGroundSegmenter creates a segmenter drawing samples from sampler.
// A SampleSize below 3 is raised to 3.
func NewGroundSegmenter(params GroundParams, sampler Sampler) *GroundSegmenter {
	if params.SampleSize < minSampleSize {
		params.SampleSize = minSampleSize
	}
	return &GroundSegmenter{params: params, sampler: sampler}
}

// Segment finds the plane with the most inliers and splits points into
// ground and non-ground. Ties keep the first plane found.
func (g *GroundSegmenter) Segment(points []Point) (GroundSegmentation, error) {
	k := g.params.SampleSize
	if len(points) < k {
		return GroundSegmentation{}, fmt.Errorf("%w: have %d, need %d", ErrInsufficientPoints, len(points), k)
	}

	var (
		best      PlaneModel
		bestCount int
		found     bool
	)
	sample := make([]int, k)
	for it := 0; it < g.params.Iterations; it++ {
		plane, ok := g.hypothesis(points, sample)
		if !ok {
			continue
		}
		count := 0
		for _, p := range points {
			if plane.IsInlier(p) {
				count++
			}
		}
		if !found || count > bestCount {
			best, bestCount, found = plane, count, true
		}
	}

	if !found {
		monitoring.Debugf("ground: no valid plane after %d iterations over %d points", g.params.Iterations, len(points))
		nonGround := make([]Point, len(points))
		copy(nonGround, points)
		return GroundSegmentation{NonGround: nonGround}, nil
	}

	seg := GroundSegmentation{
		Plane:         best,
		Found:         true,
		GroundIndices: make([]int, 0, bestCount),
		NonGround:     make([]Point, 0, len(points)-bestCount),
	}
	for i, p := range points {
		if best.IsInlier(p) {
			seg.GroundIndices = append(seg.GroundIndices, i)
		} else {
			seg.NonGround = append(seg.NonGround, p)
		}
	}
	monitoring.Debugf("ground: plane n=(%.3f, %.3f, %.3f) d=%.3f, %d/%d inliers",
		best.Normal.X, best.Normal.Y, best.Normal.Z, best.Offset, bestCount, len(points))
	return seg, nil
}

// hypothesis draws samples until one fits a plane, redrawing degenerate
// samples up to maxDegenerateRetries times.
func (g *GroundSegmenter) hypothesis(points []Point, sample []int) (PlaneModel, bool) {
	for attempt := 0; attempt <= maxDegenerateRetries; attempt++ {
		g.drawDistinct(len(points), sample)
		if plane, ok := FitPlane(points, sample, g.params.DistanceThreshold); ok {
			return plane, true
		}
	}
	return PlaneModel{}, false
}

// drawDistinct fills out with distinct indices in [0, n).
func (g *GroundSegmenter) drawDistinct(n int, out []int) {
	for i := range out {
		c := g.sampler.Sample(n)
		for tries := 0; containsIndex(out[:i], c); tries++ {
			if tries < maxDistinctDraws {
				c = g.sampler.Sample(n)
			} else {
				c = (c + 1) % n
			}
		}
		out[i] = c
	}
}

func containsIndex(s []int, v int) bool {
	for _, x := range s {
		if x == v {
			return true
		}
	}
	return false
}

// FitPlane fits a plane through points[idx...]. Three points use the cross
// product of two edges; more points use a least-squares fit whose normal is
// the eigenvector of the smallest covariance eigenvalue. Returns false for
// degenerate (coincident or collinear) samples. The normal is oriented with
// a non-negative Z component.
func FitPlane(points []Point, idx []int, threshold float64) (PlaneModel, bool) {
	if len(idx) < minSampleSize {
		return PlaneModel{}, false
	}

	var normal, anchor r3.Vector
	if len(idx) == minSampleSize {
		p0 := points[idx[0]].Vector()
		n := points[idx[1]].Vector().Sub(p0).Cross(points[idx[2]].Vector().Sub(p0))
		norm := n.Norm()
		if norm < degenerateEpsilon {
			return PlaneModel{}, false
		}
		normal, anchor = n.Mul(1/norm), p0
	} else {
		var ok bool
		normal, anchor, ok = leastSquaresNormal(points, idx)
		if !ok {
			return PlaneModel{}, false
		}
	}

	if normal.Z < 0 {
		normal = normal.Mul(-1)
	}
	return PlaneModel{
		Normal:    normal,
		Offset:    -normal.Dot(anchor),
		Threshold: threshold,
	}, true
}

func leastSquaresNormal(points []Point, idx []int) (normal, centroid r3.Vector, ok bool) {
	for _, i := range idx {
		centroid = centroid.Add(points[i].Vector())
	}
	centroid = centroid.Mul(1 / float64(len(idx)))

	cov := mat.NewSymDense(3, nil)
	for _, i := range idx {
		d := points[i].Vector().Sub(centroid)
		c := [3]float64{d.X, d.Y, d.Z}
		for r := 0; r < 3; r++ {
			for s := r; s < 3; s++ {
				cov.SetSym(r, s, cov.At(r, s)+c[r]*c[s])
			}
		}
	}

	var eig mat.EigenSym
	if !eig.Factorize(cov, true) {
		return r3.Vector{}, r3.Vector{}, false
	}
	// Values are ascending; collinear samples leave two near-zero values.
	values := eig.Values(nil)
	if values[1] < degenerateEpsilon {
		return r3.Vector{}, r3.Vector{}, false
	}
	var vecs mat.Dense
	eig.VectorsTo(&vecs)
	normal = r3.Vector{X: vecs.At(0, 0), Y: vecs.At(1, 0), Z: vecs.At(2, 0)}.Normalize()
	return normal, centroid, true
}
