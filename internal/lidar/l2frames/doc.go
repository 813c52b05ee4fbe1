// Package l2frames owns Layer 2 (Frames) of the LiDAR data model.
//
// Responsibilities: discovering recorded frame files and decoding each one
// into an ordered l4perception.Frame.
// Key types: CSVFrameReader, CSVFrameSource.
//
// Frames are ';'-separated text files with a header row naming at least
// the X, Y, Z and INTENSITY columns (case and surrounding whitespace are
// ignored). Additional columns are ignored.
//
// Dependency rule: L2 may depend on L4 only for the Frame and Point
// value types. No SQL/database code is allowed in this package.
package l2frames
