// Package testutil provides shared test utilities and fixtures.
//
// The point-cloud generators return plain rows so that any layer can use
// them without an import cycle; callers convert rows into their own types.
package testutil

import (
	"bytes"
	"encoding/csv"
	"math/rand"
	"strconv"
	"testing"
)

// Row is one sample in x, y, z, intensity order.
type Row [4]float64

// AssertNoError fails the test if err is not nil.
func AssertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// AssertError fails the test if err is nil.
func AssertError(t *testing.T, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}

// NewRand returns a deterministic random source for fixtures.
func NewRand(seed int64) *rand.Rand {
	return rand.New(rand.NewSource(seed))
}

// GroundPlane scatters n samples over the square [-half, half]² at z = 0,
// jittered vertically by up to ±noise.
func GroundPlane(rng *rand.Rand, n int, half, noise float64) []Row {
	rows := make([]Row, n)
	for i := range rows {
		rows[i] = Row{
			(rng.Float64()*2 - 1) * half,
			(rng.Float64()*2 - 1) * half,
			(rng.Float64()*2 - 1) * noise,
			float64(rng.Intn(40)),
		}
	}
	return rows
}

// Box fills an axis-aligned box with n uniformly distributed samples.
// min is the lower corner and size the extent along x, y and z.
func Box(rng *rand.Rand, n int, min, size [3]float64, intensity float64) []Row {
	rows := make([]Row, n)
	for i := range rows {
		rows[i] = Row{
			min[0] + rng.Float64()*size[0],
			min[1] + rng.Float64()*size[1],
			min[2] + rng.Float64()*size[2],
			intensity,
		}
	}
	return rows
}

// Concat joins row slices into a new slice.
func Concat(parts ...[]Row) []Row {
	var n int
	for _, p := range parts {
		n += len(p)
	}
	out := make([]Row, 0, n)
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

// FrameCSV renders rows as a ';'-separated frame file with an
// X;Y;Z;INTENSITY header.
func FrameCSV(rows []Row) []byte {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	w.Comma = ';'
	_ = w.Write([]string{"X", "Y", "Z", "INTENSITY"})
	for _, r := range rows {
		_ = w.Write([]string{
			strconv.FormatFloat(r[0], 'f', -1, 64),
			strconv.FormatFloat(r[1], 'f', -1, 64),
			strconv.FormatFloat(r[2], 'f', -1, 64),
			strconv.FormatFloat(r[3], 'f', -1, 64),
		})
	}
	w.Flush()
	return buf.Bytes()
}
