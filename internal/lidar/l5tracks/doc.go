// Package l5tracks owns Layer 5 (Tracks) of the LiDAR data model.
//
// Responsibilities: persistent object identities across frames using
// per-identity greedy nearest-centroid matching. Identities are dropped on
// the first frame in which they go unmatched.
// Key types: IdentityTracker, Detection, TrackedDetection.
//
// Dependency rule: L5 may depend on L4, but never on L6.
// No SQL/database code is allowed in this package.
package l5tracks
