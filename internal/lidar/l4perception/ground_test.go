package l4perception

import (
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/lidar.perception/internal/testutil"
)

func TestFitPlane_ThreePoints(t *testing.T) {
	t.Parallel()

	pts := []Point{{0, 0, 1, 0}, {1, 0, 1, 0}, {0, 1, 1, 0}}
	plane, ok := FitPlane(pts, []int{0, 1, 2}, 0.2)
	require.True(t, ok)

	assert.InDelta(t, 0, plane.Normal.X, 1e-12)
	assert.InDelta(t, 0, plane.Normal.Y, 1e-12)
	assert.InDelta(t, 1, plane.Normal.Z, 1e-12)
	assert.InDelta(t, -1, plane.Offset, 1e-12)
	assert.Equal(t, 0.2, plane.Threshold)

	assert.InDelta(t, 2.0, plane.Distance(Point{X: 5, Y: -3, Z: 3}), 1e-12)
	assert.True(t, plane.IsInlier(Point{Z: 1.2}))
	assert.False(t, plane.IsInlier(Point{Z: 1.21}))
}

func TestFitPlane_NormalOrientedUp(t *testing.T) {
	t.Parallel()

	// Clockwise winding would give a downward normal.
	pts := []Point{{0, 0, 0, 0}, {0, 1, 0, 0}, {1, 0, 0, 0}}
	plane, ok := FitPlane(pts, []int{0, 1, 2}, 0.1)
	require.True(t, ok)
	assert.InDelta(t, 1, plane.Normal.Z, 1e-12)
}

func TestFitPlane_Degenerate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		pts  []Point
	}{
		{"collinear", []Point{{0, 0, 0, 0}, {1, 1, 1, 0}, {2, 2, 2, 0}}},
		{"coincident", []Point{{1, 1, 1, 0}, {1, 1, 1, 0}, {1, 1, 1, 0}}},
		{"collinear least squares", []Point{{0, 0, 0, 0}, {1, 0, 0, 0}, {2, 0, 0, 0}, {3, 0, 0, 0}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			idx := make([]int, len(tt.pts))
			for i := range idx {
				idx[i] = i
			}
			_, ok := FitPlane(tt.pts, idx, 0.2)
			assert.False(t, ok)
		})
	}

	_, ok := FitPlane([]Point{{0, 0, 0, 0}, {1, 0, 0, 0}}, []int{0, 1}, 0.2)
	assert.False(t, ok, "two points never define a plane")
}

func TestFitPlane_LeastSquares(t *testing.T) {
	t.Parallel()

	// Tilted plane z = 0.5x + 2 sampled at five points.
	pts := []Point{{0, 0, 2, 0}, {2, 0, 3, 0}, {0, 2, 2, 0}, {2, 2, 3, 0}, {1, 1, 2.5, 0}}
	plane, ok := FitPlane(pts, []int{0, 1, 2, 3, 4}, 0.1)
	require.True(t, ok)

	want := 1 / math.Sqrt(1.25)
	assert.InDelta(t, -0.5*want, plane.Normal.X, 1e-9)
	assert.InDelta(t, 0, plane.Normal.Y, 1e-9)
	assert.InDelta(t, want, plane.Normal.Z, 1e-9)
	for _, p := range pts {
		assert.InDelta(t, 0, plane.Distance(p), 1e-9)
	}
}

func groundAndBoxes(seed int64) []Point {
	rng := testutil.NewRand(seed)
	return pointsFromRows(testutil.Concat(
		testutil.GroundPlane(rng, 400, 10, 0.02),
		testutil.Box(rng, 120, [3]float64{2, 2, 0.8}, [3]float64{0.6, 0.6, 1.2}, 55),
		testutil.Box(rng, 120, [3]float64{-6, 3, 0.8}, [3]float64{1.8, 4.0, 0.8}, 90),
	))
}

func TestGroundSegmenter_SeparatesPlane(t *testing.T) {
	t.Parallel()

	pts := groundAndBoxes(1)
	params := GroundParams{DistanceThreshold: 0.2, SampleSize: 3, Iterations: 200}
	seg, err := NewGroundSegmenter(params, NewRandomSampler(testutil.NewRand(42))).Segment(pts)
	require.NoError(t, err)
	require.True(t, seg.Found)

	ground := make(map[int]bool, len(seg.GroundIndices))
	for _, i := range seg.GroundIndices {
		ground[i] = true
		assert.LessOrEqual(t, seg.Plane.Distance(pts[i]), params.DistanceThreshold)
	}
	for _, p := range seg.NonGround {
		assert.Greater(t, seg.Plane.Distance(p), params.DistanceThreshold)
	}
	assert.Equal(t, len(pts), len(seg.GroundIndices)+len(seg.NonGround))
	assert.Len(t, seg.NonGround, 240, "all box points stay above the ground")
	assert.GreaterOrEqual(t, len(seg.GroundIndices), 400)

	// Non-ground keeps the original relative order and attributes.
	var want []Point
	for i, p := range pts {
		if !ground[i] {
			want = append(want, p)
		}
	}
	if diff := cmp.Diff(want, seg.NonGround); diff != "" {
		t.Errorf("non-ground order mismatch (-want +got):\n%s", diff)
	}
}

func TestGroundSegmenter_Deterministic(t *testing.T) {
	t.Parallel()

	pts := groundAndBoxes(3)
	params := DefaultGroundParams()
	params.Iterations = 100

	a, err := NewGroundSegmenter(params, NewRandomSampler(testutil.NewRand(9))).Segment(pts)
	require.NoError(t, err)
	b, err := NewGroundSegmenter(params, NewRandomSampler(testutil.NewRand(9))).Segment(pts)
	require.NoError(t, err)

	if diff := cmp.Diff(a, b); diff != "" {
		t.Errorf("same seed produced different segmentations (-a +b):\n%s", diff)
	}
}

func TestGroundSegmenter_InsufficientPoints(t *testing.T) {
	t.Parallel()

	seg := NewGroundSegmenter(DefaultGroundParams(), NewRandomSampler(testutil.NewRand(1)))
	for _, pts := range [][]Point{nil, {{1, 2, 3, 4}}, {{1, 2, 3, 4}, {5, 6, 7, 8}}} {
		res, err := seg.Segment(pts)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrInsufficientPoints))
		assert.Empty(t, res.NonGround)
		assert.False(t, res.Found)
	}
}

func TestGroundSegmenter_AllDegenerate(t *testing.T) {
	t.Parallel()

	pts := make([]Point, 10)
	for i := range pts {
		pts[i] = Point{X: float64(i), Intensity: float64(i)}
	}
	params := GroundParams{DistanceThreshold: 0.2, SampleSize: 3, Iterations: 5}
	res, err := NewGroundSegmenter(params, NewRandomSampler(testutil.NewRand(1))).Segment(pts)
	require.NoError(t, err)
	assert.False(t, res.Found)
	assert.Empty(t, res.GroundIndices)
	assert.Equal(t, pts, res.NonGround)
}

func TestGroundSegmenter_FirstPlaneWinsTies(t *testing.T) {
	t.Parallel()

	// Two parallel triangles, each supporting exactly three inliers.
	pts := []Point{
		{0, 0, 0, 1}, {1, 0, 0, 1}, {0, 1, 0, 1},
		{0, 0, 5, 2}, {1, 0, 5, 2}, {0, 1, 5, 2},
	}
	params := GroundParams{DistanceThreshold: 0.2, SampleSize: 3, Iterations: 2}

	low, err := NewGroundSegmenter(params, &sequenceSampler{seq: []int{0, 1, 2, 3, 4, 5}}).Segment(pts)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2}, low.GroundIndices)
	assert.InDelta(t, 0, low.Plane.Offset, 1e-12)

	high, err := NewGroundSegmenter(params, &sequenceSampler{seq: []int{3, 4, 5, 0, 1, 2}}).Segment(pts)
	require.NoError(t, err)
	assert.Equal(t, []int{3, 4, 5}, high.GroundIndices)
	assert.InDelta(t, -5, high.Plane.Offset, 1e-12)
	assert.Equal(t, pts[:3], high.NonGround)
}

func TestGroundSegmenter_DistinctSamples(t *testing.T) {
	t.Parallel()

	g := NewGroundSegmenter(GroundParams{SampleSize: 3}, &sequenceSampler{seq: []int{4}})
	out := make([]int, 3)
	g.drawDistinct(6, out)
	assert.Equal(t, []int{4, 5, 0}, out)
}

func TestNewGroundSegmenter_RaisesSampleSize(t *testing.T) {
	t.Parallel()

	g := NewGroundSegmenter(GroundParams{SampleSize: 1, Iterations: 1}, NewRandomSampler(testutil.NewRand(1)))
	assert.Equal(t, 3, g.params.SampleSize)
}
