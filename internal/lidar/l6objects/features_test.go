package l6objects

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"

	"github.com/banshee-data/lidar.perception/internal/lidar/l4perception"
)

func TestExtractFeatures(t *testing.T) {
	t.Parallel()

	points := []l4perception.Point{
		{X: 1.004, Y: 2.0, Z: 0.5, Intensity: 10},
		{X: 9, Y: 9, Z: 9, Intensity: 99}, // noise
		{X: 1.5, Y: 2.333, Z: 2.1, Intensity: 11},
		{X: -3, Y: -3, Z: 0, Intensity: 1},
		{X: 1.2, Y: 2.2, Z: 1.0, Intensity: 12},
		{X: -2, Y: -1.5, Z: 0.25, Intensity: 2},
	}
	labels := []int{1, -1, 1, 0, 1, 0}

	got := ExtractFeatures(points, labels)

	want := []ObjectFeature{
		{
			Label:        0,
			PointCount:   2,
			BBoxMin:      [3]float64{-3, -3, 0},
			BBoxMax:      [3]float64{-2, -1.5, 0.25},
			Width:        1,
			Length:       1.5,
			Height:       0.25,
			AvgIntensity: 1,
		},
		{
			Label:        1,
			PointCount:   3,
			BBoxMin:      [3]float64{1, 2, 0.5},
			BBoxMax:      [3]float64{1.5, 2.33, 2.1},
			Width:        0.5,
			Length:       0.33,
			Height:       1.6,
			AvgIntensity: 11,
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ExtractFeatures mismatch (-want +got):\n%s", diff)
	}
}

func TestExtractFeatures_IntensityTruncated(t *testing.T) {
	t.Parallel()

	points := []l4perception.Point{{Intensity: 10}, {X: 1, Intensity: 11}, {X: 2, Intensity: 11}}
	got := ExtractFeatures(points, []int{0, 0, 0})
	assert.Len(t, got, 1)
	assert.Equal(t, 10, got[0].AvgIntensity, "mean 10.67 truncates to 10")
}

func TestExtractFeatures_EdgeCases(t *testing.T) {
	t.Parallel()

	assert.Nil(t, ExtractFeatures(nil, nil))
	assert.Nil(t, ExtractFeatures([]l4perception.Point{{}, {}}, []int{-1, -1}))

	// Labels beyond the point slice are ignored; missing labels are noise.
	pts := []l4perception.Point{{X: 1}, {X: 2}, {X: 3}}
	got := ExtractFeatures(pts, []int{0, 0, 0, 0, 1})
	assert.Len(t, got, 1)
	assert.Equal(t, 3, got[0].PointCount)

	got = ExtractFeatures(pts, []int{0})
	assert.Len(t, got, 1)
	assert.Equal(t, 1, got[0].PointCount)
}

func TestRoundTo2(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in, want float64
	}{
		{1.234, 1.23},
		{1.236, 1.24},
		{-1.234, -1.23},
		{0.004, 0},
		{0.125, 0.12},
		{0.375, 0.38},
		{-0.125, -0.12},
		{2.675, 2.67},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, roundTo2(tt.in), "roundTo2(%v)", tt.in)
	}
}
