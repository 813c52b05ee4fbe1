package l4perception

import (
	"github.com/banshee-data/lidar.perception/internal/config"
)

// DBSCANParams contains parameters for the DBSCAN clustering algorithm.
type DBSCANParams struct {
	Eps    float64 // Neighbourhood radius in metres
	MinPts int     // Minimum neighbourhood size (self included) of a core point
}

// DefaultDBSCANParams returns the default DBSCAN parameters.
func DefaultDBSCANParams() DBSCANParams {
	return DBSCANParamsFromTuning(config.EmptyTuningConfig())
}

// DBSCANParamsFromTuning extracts DBSCAN parameters from cfg.
func DBSCANParamsFromTuning(cfg *config.TuningConfig) DBSCANParams {
	return DBSCANParams{
		Eps:    cfg.GetDBSCANEps(),
		MinPts: cfg.GetDBSCANMinPts(),
	}
}

// DBSCAN performs density-based clustering on points using 3D Euclidean
// distance. Labels are assigned in traversal order starting at 0; points
// in no cluster get NoiseLabel. A cluster left with fewer than MinPts
// members (its border points already claimed by an earlier cluster) is
// demoted to noise and the remaining labels are renumbered densely.
func DBSCAN(points []Point, params DBSCANParams) ClusterResult {
	n := len(points)
	if n == 0 {
		return ClusterResult{Labels: []int{}}
	}
	if params.Eps <= 0 {
		labels := make([]int, n)
		for i := range labels {
			labels[i] = NoiseLabel
		}
		return ClusterResult{Labels: labels}
	}

	// Working labels: 0=unvisited, -1=noise, >0=cluster id.
	labels := make([]int, n)
	clusterID := 0

	si := NewSpatialIndex(params.Eps)
	si.Build(points)

	for i := 0; i < n; i++ {
		if labels[i] != 0 {
			continue
		}

		neighbors := si.RegionQuery(points, i, params.Eps)
		if len(neighbors) < params.MinPts {
			labels[i] = -1
			continue
		}

		clusterID++
		expandCluster(points, si, labels, i, neighbors, clusterID, params.Eps, params.MinPts)
	}

	return compactLabels(labels, clusterID, params.MinPts)
}

// expandCluster grows a cluster from a core point using a work queue.
func expandCluster(points []Point, si *SpatialIndex, labels []int,
	seedIdx int, neighbors []int, clusterID int, eps float64, minPts int) {

	labels[seedIdx] = clusterID

	for j := 0; j < len(neighbors); j++ {
		idx := neighbors[j]

		if labels[idx] == -1 {
			labels[idx] = clusterID // Noise becomes border point
		}
		if labels[idx] != 0 {
			continue
		}

		labels[idx] = clusterID
		newNeighbors := si.RegionQuery(points, idx, eps)
		if len(newNeighbors) >= minPts {
			neighbors = append(neighbors, newNeighbors...)
		}
	}
}

// compactLabels converts working ids to zero-based output labels, dropping
// clusters smaller than minPts.
func compactLabels(labels []int, maxClusterID, minPts int) ClusterResult {
	sizes := make([]int, maxClusterID+1)
	for _, l := range labels {
		if l > 0 {
			sizes[l]++
		}
	}

	remap := make([]int, maxClusterID+1)
	next := 0
	for id := 1; id <= maxClusterID; id++ {
		if sizes[id] >= minPts {
			remap[id] = next
			next++
		} else {
			remap[id] = NoiseLabel
		}
	}

	out := make([]int, len(labels))
	for i, l := range labels {
		if l > 0 {
			out[i] = remap[l]
		} else {
			out[i] = NoiseLabel
		}
	}
	return ClusterResult{Labels: out, NumClusters: next}
}
