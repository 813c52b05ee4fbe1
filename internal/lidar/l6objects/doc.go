// Package l6objects owns Layer 6 (Objects) of the LiDAR data model.
//
// Responsibilities: per-cluster descriptors (point count, bounding box,
// extents, mean intensity) and rule-based semantic classification.
//
// Dependency rule: L6 may depend on L4 and L5.
// No SQL/database code is allowed in this package.
package l6objects
