package testutil

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssertNoError(t *testing.T) {
	t.Parallel()

	AssertNoError(t, nil)
}

func TestGroundPlane_Bounds(t *testing.T) {
	t.Parallel()

	rows := GroundPlane(NewRand(1), 500, 10, 0.05)
	require.Len(t, rows, 500)
	for _, r := range rows {
		assert.LessOrEqual(t, r[0], 10.0)
		assert.GreaterOrEqual(t, r[0], -10.0)
		assert.LessOrEqual(t, r[2], 0.05)
		assert.GreaterOrEqual(t, r[2], -0.05)
	}
}

func TestBox_Deterministic(t *testing.T) {
	t.Parallel()

	a := Box(NewRand(7), 50, [3]float64{1, 2, 0}, [3]float64{0.5, 0.5, 1.8}, 30)
	b := Box(NewRand(7), 50, [3]float64{1, 2, 0}, [3]float64{0.5, 0.5, 1.8}, 30)
	assert.Equal(t, a, b)
	for _, r := range a {
		assert.GreaterOrEqual(t, r[0], 1.0)
		assert.Less(t, r[0], 1.5)
		assert.Equal(t, 30.0, r[3])
	}
}

func TestConcat(t *testing.T) {
	t.Parallel()

	out := Concat([]Row{{1, 1, 1, 1}}, nil, []Row{{2, 2, 2, 2}, {3, 3, 3, 3}})
	assert.Equal(t, []Row{{1, 1, 1, 1}, {2, 2, 2, 2}, {3, 3, 3, 3}}, out)
}

func TestFrameCSV(t *testing.T) {
	t.Parallel()

	got := string(FrameCSV([]Row{{1.5, -2, 0.25, 12}}))
	lines := strings.Split(strings.TrimSpace(got), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "X;Y;Z;INTENSITY", lines[0])
	assert.Equal(t, "1.5;-2;0.25;12", lines[1])
}
