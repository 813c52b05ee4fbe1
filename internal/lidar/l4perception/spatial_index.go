package l4perception

import "math"

// estimatedPointsPerCell sizes the initial grid map.
const estimatedPointsPerCell = 4

// cellKey identifies one cubic grid cell.
type cellKey struct {
	X, Y, Z int64
}

// SpatialIndex provides neighbourhood queries over a uniform 3D grid.
// Cell size should match the DBSCAN eps parameter so that a query only
// inspects the 27 cells around the query point.
type SpatialIndex struct {
	CellSize float64
	Grid     map[cellKey][]int // Cell → point indices
}

// NewSpatialIndex creates a spatial index with the specified cell size.
func NewSpatialIndex(cellSize float64) *SpatialIndex {
	return &SpatialIndex{
		CellSize: cellSize,
		Grid:     make(map[cellKey][]int),
	}
}

// Build populates the index from points.
func (si *SpatialIndex) Build(points []Point) {
	si.Grid = make(map[cellKey][]int, len(points)/estimatedPointsPerCell+1)
	for i, p := range points {
		k := si.cellOf(p)
		si.Grid[k] = append(si.Grid[k], i)
	}
}

func (si *SpatialIndex) cellOf(p Point) cellKey {
	return cellKey{
		X: int64(math.Floor(p.X / si.CellSize)),
		Y: int64(math.Floor(p.Y / si.CellSize)),
		Z: int64(math.Floor(p.Z / si.CellSize)),
	}
}

// RegionQuery returns the indices of all points within eps (3D Euclidean,
// inclusive) of points[idx], including idx itself. Indices are grouped by
// cell and ascending within a cell.
func (si *SpatialIndex) RegionQuery(points []Point, idx int, eps float64) []int {
	p := points[idx]
	c := si.cellOf(p)
	eps2 := eps * eps
	var neighbors []int

	for dx := int64(-1); dx <= 1; dx++ {
		for dy := int64(-1); dy <= 1; dy++ {
			for dz := int64(-1); dz <= 1; dz++ {
				for _, j := range si.Grid[cellKey{c.X + dx, c.Y + dy, c.Z + dz}] {
					q := points[j]
					ex, ey, ez := q.X-p.X, q.Y-p.Y, q.Z-p.Z
					if ex*ex+ey*ey+ez*ez <= eps2 {
						neighbors = append(neighbors, j)
					}
				}
			}
		}
	}
	return neighbors
}
