// Package l4perception owns Layer 4 (Perception) of the LiDAR data model.
//
// Responsibilities: ground removal by RANSAC plane fitting and DBSCAN
// clustering of the remaining points.
// Key types: Point, Frame, PlaneModel, ClusterResult.
//
// Dependency rule: L4 never depends on L5+ (tracks, objects).
// No SQL/database code is allowed in this package.
package l4perception
