package l4perception

import "github.com/banshee-data/lidar.perception/internal/testutil"

func pointsFromRows(rows []testutil.Row) []Point {
	pts := make([]Point, len(rows))
	for i, r := range rows {
		pts[i] = Point{X: r[0], Y: r[1], Z: r[2], Intensity: r[3]}
	}
	return pts
}

// sequenceSampler replays a fixed index sequence, wrapping at the end.
type sequenceSampler struct {
	seq []int
	pos int
}

func (s *sequenceSampler) Sample(n int) int {
	v := s.seq[s.pos%len(s.seq)] % n
	s.pos++
	return v
}
