package l4perception

// DBSCANClusterer holds DBSCAN parameters so a configured clusterer can be
// handed to the pipeline as a stage.
type DBSCANClusterer struct {
	params DBSCANParams
}

// NewDBSCANClusterer returns a clusterer running DBSCAN with params.
func NewDBSCANClusterer(params DBSCANParams) *DBSCANClusterer {
	return &DBSCANClusterer{params: params}
}

// Cluster labels points; see DBSCAN.
func (c *DBSCANClusterer) Cluster(points []Point) ClusterResult {
	return DBSCAN(points, c.params)
}
