// Package sqlite persists perception runs in SQLite.
//
// A run row records the seed, configuration and build of one invocation;
// frame rows record how each frame was handled and object rows hold the
// records the pipeline emitted. The schema is owned by internal/db.
package sqlite
