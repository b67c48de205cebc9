// Package parking defines the parking-layout domain model and the pure
// derived-state functions built on top of it.
//
// This package contains:
//   - Layout types (LocationConfig, FloorConfig, spots, waypoints, routes)
//   - Cache metadata with TTL validity checks
//   - Occupancy event and derived spot/section state types
//   - Pure functions for sensor mappings, occupancy application,
//     section summaries and waypoint path generation
//   - Layout validation and the hardcoded fallback layout
//
// # Design
//
// Everything in this package is synchronous and allocation-light. The
// stateful consumers live elsewhere: internal/resolver owns configuration
// resolution, internal/occupancy owns the live event feed, and
// internal/guidance folds both into per-floor state using the functions
// defined here.
//
// Sections are not stored on spots. A spot's section is the first character
// of its spot ID ("A3" belongs to section "A"), so section membership can
// never drift from the spot identity.
//
// Navigation routes are authored data, not computed paths. GeneratePath only
// resolves waypoint IDs to positions; it performs no graph search.
package parking
