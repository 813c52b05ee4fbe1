package l6objects

import (
	"math"
	"sort"
	"strconv"

	"gonum.org/v1/gonum/stat"

	"github.com/banshee-data/lidar.perception/internal/lidar/l4perception"
)

// roundTo2 rounds the exact value of v to 2 decimal places, ties to even:
// 0.125 becomes 0.12 and 2.675, stored just below the half, becomes 2.67.
func roundTo2(v float64) float64 {
	r, _ := strconv.ParseFloat(strconv.FormatFloat(v, 'f', 2, 64), 64)
	return r
}

// ExtractFeatures computes one ObjectFeature per non-noise label, in
// ascending label order. labels[i] belongs to points[i]; labels beyond
// len(points) are ignored and points without a label count as noise.
// Class is left empty for the classifier to fill.
func ExtractFeatures(points []l4perception.Point, labels []int) []ObjectFeature {
	members := make(map[int][]int)
	for i, l := range labels {
		if i >= len(points) {
			break
		}
		if l < 0 {
			continue
		}
		members[l] = append(members[l], i)
	}
	if len(members) == 0 {
		return nil
	}

	order := make([]int, 0, len(members))
	for l := range members {
		order = append(order, l)
	}
	sort.Ints(order)

	features := make([]ObjectFeature, 0, len(order))
	for _, l := range order {
		features = append(features, computeFeature(l, points, members[l]))
	}
	return features
}

func computeFeature(label int, points []l4perception.Point, idx []int) ObjectFeature {
	first := points[idx[0]]
	minB := [3]float64{first.X, first.Y, first.Z}
	maxB := minB
	intensities := make([]float64, len(idx))

	for k, i := range idx {
		p := points[i]
		c := [3]float64{p.X, p.Y, p.Z}
		for a := 0; a < 3; a++ {
			minB[a] = math.Min(minB[a], c[a])
			maxB[a] = math.Max(maxB[a], c[a])
		}
		intensities[k] = p.Intensity
	}

	f := ObjectFeature{
		Label:        label,
		PointCount:   len(idx),
		Width:        roundTo2(maxB[0] - minB[0]),
		Length:       roundTo2(maxB[1] - minB[1]),
		Height:       roundTo2(maxB[2] - minB[2]),
		AvgIntensity: int(stat.Mean(intensities, nil)),
	}
	for a := 0; a < 3; a++ {
		f.BBoxMin[a] = roundTo2(minB[a])
		f.BBoxMax[a] = roundTo2(maxB[a])
	}
	return f
}
