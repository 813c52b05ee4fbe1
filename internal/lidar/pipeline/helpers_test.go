package pipeline

import (
	"github.com/banshee-data/lidar.perception/internal/lidar/l4perception"
	"github.com/banshee-data/lidar.perception/internal/testutil"
)

func pointsFromRows(rows []testutil.Row) []l4perception.Point {
	pts := make([]l4perception.Point, len(rows))
	for i, r := range rows {
		pts[i] = l4perception.Point{X: r[0], Y: r[1], Z: r[2], Intensity: r[3]}
	}
	return pts
}

// streetRows is a flat ground patch with a car near (5, 5) and a
// pedestrian near (-8, -8), both shifted along x by dx.
func streetRows(seed int64, dx float64) []testutil.Row {
	rng := testutil.NewRand(seed)
	return testutil.Concat(
		testutil.Box(rng, 300, [3]float64{5 + dx, 5, 0.5}, [3]float64{4, 1.8, 1.4}, 80),
		testutil.Box(rng, 80, [3]float64{-8 + dx, -8, 0.4}, [3]float64{0.5, 0.5, 1.4}, 30),
		testutil.GroundPlane(rng, 400, 15, 0.02),
	)
}

func streetFrame(seed int64, dx float64) l4perception.Frame {
	return l4perception.Frame{Source: "street.csv", Points: pointsFromRows(streetRows(seed, dx))}
}
