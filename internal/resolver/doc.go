// Package resolver resolves per-location parking configurations.
//
// Resolution is layered, short-circuiting on the first success:
//
//  1. In-memory hit for the requested location (no I/O)
//  2. Joining an already in-flight load (global single-flight)
//  3. Persisted cache, if the location matches and the TTL holds
//     (a hit additionally triggers a fire-and-forget remote refresh)
//  4. Remote fetch, persisted with fresh metadata before returning
//  5. The hardcoded fallback layout, which never fails
//
// Resolution is therefore total: Get always returns a usable config. Load
// failures are logged and recovered internally; the caller sees fallback
// data, never an error.
//
// # Single-flight contract
//
// The in-flight guard is keyed globally, not per location: while any load
// is pending, every caller joins it and receives its result, even a caller
// that asked for a different location ID. This collapses the burst of
// lookups a UI issues at startup into one remote operation. The guard is a
// singleflight.Group with a constant key, so the start-or-join decision is
// atomic inside the group.
package resolver
