package l4perception

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/lidar.perception/internal/testutil"
)

func TestSpatialIndex_RegionQuery(t *testing.T) {
	t.Parallel()

	pts := []Point{
		{X: -0.1}, {X: 0.1}, {X: 0.45, Y: 0.3}, {Z: 0.6}, {X: 3},
	}
	si := NewSpatialIndex(0.5)
	si.Build(pts)

	got := si.RegionQuery(pts, 0, 0.5)
	assert.ElementsMatch(t, []int{0, 1}, got, "neighbourhood spans negative cells and includes self")

	got = si.RegionQuery(pts, 1, 0.5)
	assert.ElementsMatch(t, []int{0, 1, 2}, got)

	got = si.RegionQuery(pts, 4, 0.5)
	assert.Equal(t, []int{4}, got)
}

func TestDBSCAN_TwoClustersAndNoise(t *testing.T) {
	t.Parallel()

	rng := testutil.NewRand(5)
	rows := testutil.Concat(
		testutil.Box(rng, 150, [3]float64{0, 0, 0}, [3]float64{1, 1, 1.7}, 20),
		testutil.Box(rng, 150, [3]float64{10, 10, 0}, [3]float64{1, 1, 1}, 80),
		[]testutil.Row{{-20, -20, 0, 1}, {30, -5, 2, 1}, {5, 5, 5, 1}},
	)
	pts := pointsFromRows(rows)

	res := DBSCAN(pts, DBSCANParams{Eps: 1.0, MinPts: 20})
	require.Len(t, res.Labels, len(pts))
	assert.Equal(t, 2, res.NumClusters)

	for i := 0; i < 150; i++ {
		assert.Equal(t, 0, res.Labels[i], "first box gets the first label")
	}
	for i := 150; i < 300; i++ {
		assert.Equal(t, 1, res.Labels[i])
	}
	for i := 300; i < len(pts); i++ {
		assert.Equal(t, NoiseLabel, res.Labels[i])
	}
	assert.Equal(t, []int{150, 150}, res.Sizes())
	assert.Equal(t, 3, res.NoiseCount())
}

func TestDBSCAN_Empty(t *testing.T) {
	t.Parallel()

	res := DBSCAN(nil, DefaultDBSCANParams())
	assert.Empty(t, res.Labels)
	assert.NotNil(t, res.Labels)
	assert.Equal(t, 0, res.NumClusters)
}

func TestDBSCAN_SparseIsNoise(t *testing.T) {
	t.Parallel()

	pts := pointsFromRows(testutil.Box(testutil.NewRand(2), 10, [3]float64{}, [3]float64{0.2, 0.2, 0.2}, 1))
	res := DBSCAN(pts, DBSCANParams{Eps: 1.0, MinPts: 20})
	assert.Equal(t, 0, res.NumClusters)
	assert.Equal(t, len(pts), res.NoiseCount())
}

func TestDBSCAN_NonPositiveEps(t *testing.T) {
	t.Parallel()

	pts := []Point{{}, {}, {}}
	res := DBSCAN(pts, DBSCANParams{Eps: 0, MinPts: 1})
	assert.Equal(t, []int{NoiseLabel, NoiseLabel, NoiseLabel}, res.Labels)
}

func TestDBSCAN_UndersizedClusterDemoted(t *testing.T) {
	t.Parallel()

	// Points on the x axis. The first four form a dense core; 1.15 is a
	// border point of that cluster. 2.1 is a core point whose own cluster
	// can only claim 2.6 and 3.0, leaving it below MinPts.
	xs := []float64{0, 0.05, 0.1, 0.2, 1.15, 2.1, 2.6, 3.0}
	pts := make([]Point, len(xs))
	for i, x := range xs {
		pts[i] = Point{X: x}
	}

	res := DBSCAN(pts, DBSCANParams{Eps: 1.0, MinPts: 4})
	assert.Equal(t, 1, res.NumClusters)
	assert.Equal(t, []int{0, 0, 0, 0, 0, -1, -1, -1}, res.Labels)
	for _, size := range res.Sizes() {
		assert.GreaterOrEqual(t, size, 4)
	}
}

func TestDBSCAN_LabelsCompacted(t *testing.T) {
	t.Parallel()

	// An undersized cluster between two valid ones must not leave a gap.
	xs := []float64{0, 0.05, 0.1, 0.2, 1.15, 2.1, 2.6, 3.0}
	var pts []Point
	for _, x := range xs {
		pts = append(pts, Point{X: x})
	}
	for i := 0; i < 5; i++ {
		pts = append(pts, Point{X: 50 + 0.1*float64(i)})
	}

	res := DBSCAN(pts, DBSCANParams{Eps: 1.0, MinPts: 4})
	assert.Equal(t, 2, res.NumClusters)
	for i := 8; i < len(pts); i++ {
		assert.Equal(t, 1, res.Labels[i])
	}
}

func TestDBSCANClusterer_Params(t *testing.T) {
	t.Parallel()

	assert.Equal(t, DBSCANParams{Eps: 1.0, MinPts: 20}, NewDBSCANClusterer(DefaultDBSCANParams()).params)

	c := NewDBSCANClusterer(DBSCANParams{Eps: 0.5, MinPts: 3})

	pts := []Point{{X: 0}, {X: 0.1}, {X: 0.2}, {X: 9}}
	res := c.Cluster(pts)
	assert.Equal(t, []int{0, 0, 0, NoiseLabel}, res.Labels)
}
