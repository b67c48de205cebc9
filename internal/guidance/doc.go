// Package guidance maintains the derived view state for the active floor.
//
// A Tracker owns the mutable state a guidance UI reads: per-spot occupancy,
// per-section availability summaries, and navigation paths. It consumes raw
// sensor events from an update source (the occupancy channel), translates
// them through the active floor's sensor-to-spot mapping, and recomputes
// section summaries from scratch after every change so counts can never
// drift from the spot states they summarize.
//
// Selecting a floor rebuilds every derived structure atomically: readers
// observe either the old floor's state or the new floor's, never a mix.
package guidance
