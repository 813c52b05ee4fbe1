package report

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/banshee-data/lidar.perception/internal/lidar/l6objects"
	"github.com/banshee-data/lidar.perception/internal/lidar/pipeline"
)

// DefaultHistogramBins is the number of tracking-duration bins.
const DefaultHistogramBins = 30

// UniqueObject is one resolved object id over the whole run.
type UniqueObject struct {
	ID         int
	Class      l6objects.ObjectClass // Most frequent class; ties go to the class seen first
	Frames     int                   // Records carrying this id (tracking duration)
	FirstFrame int                   // Position of the first frame file with this id
}

// Summary aggregates a set of result files.
type Summary struct {
	Frames       int
	Detections   int
	ClassCounts  map[l6objects.ObjectClass]int // Per detection
	Objects      []UniqueObject                // Ascending id
	UniqueCounts map[l6objects.ObjectClass]int // Per unique object, by its final class
}

// Summarize aggregates decoded result files. Records with an unresolved
// object id count as detections but not as objects.
func Summarize(frames []FrameFile) *Summary {
	s := &Summary{
		Frames:       len(frames),
		ClassCounts:  make(map[l6objects.ObjectClass]int),
		UniqueCounts: make(map[l6objects.ObjectClass]int),
	}

	type tally struct {
		obj    UniqueObject
		counts map[l6objects.ObjectClass]int
		order  []l6objects.ObjectClass // Classes in first-seen order
	}
	tallies := make(map[int]*tally)

	for fi, f := range frames {
		for _, r := range f.Records {
			s.Detections++
			s.ClassCounts[r.Class]++
			if r.ObjectID == pipeline.UnresolvedID {
				continue
			}
			t, ok := tallies[r.ObjectID]
			if !ok {
				t = &tally{
					obj:    UniqueObject{ID: r.ObjectID, FirstFrame: fi},
					counts: make(map[l6objects.ObjectClass]int),
				}
				tallies[r.ObjectID] = t
			}
			if t.counts[r.Class] == 0 {
				t.order = append(t.order, r.Class)
			}
			t.counts[r.Class]++
			t.obj.Frames++
		}
	}

	for _, t := range tallies {
		best := t.order[0]
		for _, c := range t.order[1:] {
			if t.counts[c] > t.counts[best] {
				best = c
			}
		}
		t.obj.Class = best
		s.Objects = append(s.Objects, t.obj)
		s.UniqueCounts[best]++
	}
	sort.Slice(s.Objects, func(i, j int) bool { return s.Objects[i].ID < s.Objects[j].ID })
	return s
}

// Durations returns the tracking duration of every unique object, in id
// order.
func (s *Summary) Durations() []float64 {
	d := make([]float64, len(s.Objects))
	for i, o := range s.Objects {
		d[i] = float64(o.Frames)
	}
	return d
}

// ClassOrder returns the classes with at least one unique object, in
// canonical class order.
func (s *Summary) ClassOrder() []l6objects.ObjectClass {
	var out []l6objects.ObjectClass
	for _, c := range l6objects.AllClasses {
		if s.UniqueCounts[c] > 0 {
			out = append(out, c)
		}
	}
	return out
}

// Bin is one histogram bucket covering [Min, Max).
type Bin struct {
	Min, Max float64
	Count    int
}

// DurationHistogram splits the tracking durations into n equal-width bins
// spanning the observed range; the maximum falls into the last bin. When
// every duration equals v the range is widened to [v-0.5, v+0.5], so v sits
// in the middle of the axis.
func (s *Summary) DurationHistogram(n int) []Bin {
	values := s.Durations()
	if len(values) == 0 {
		return nil
	}
	if n < 1 {
		n = 1
	}
	sort.Float64s(values)
	lo, hi := values[0], values[len(values)-1]
	if lo == hi {
		lo, hi = lo-0.5, hi+0.5
	}
	width := (hi - lo) / float64(n)

	dividers := make([]float64, n+1)
	for i := range dividers {
		dividers[i] = lo + float64(i)*width
	}
	dividers[n] = hi
	edges := append([]float64(nil), dividers...)
	// stat.Histogram bins are half-open; widen the last edge to keep hi.
	dividers[n] = math.Nextafter(hi, math.Inf(1))

	counts := stat.Histogram(nil, dividers, values, nil)
	bins := make([]Bin, n)
	for i := range bins {
		bins[i] = Bin{Min: edges[i], Max: edges[i+1], Count: int(counts[i])}
	}
	return bins
}

func allClassesPresent(s *Summary) []l6objects.ObjectClass {
	var out []l6objects.ObjectClass
	for _, c := range l6objects.AllClasses {
		if s.ClassCounts[c] > 0 || s.UniqueCounts[c] > 0 {
			out = append(out, c)
		}
	}
	return out
}
