// Package snapshot holds the published result of a discovery pass.
//
// A Snapshot is built by a single pass through a Builder and is immutable
// once Build returns; any number of goroutines may read it. A Store publishes
// snapshots atomically, so readers see either the previous complete snapshot
// or the next complete one, never a half-built registry.
package snapshot
