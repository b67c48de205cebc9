package guidance

import (
	"fmt"
	"sync"

	"github.com/parkpilot/parkpilot-core/internal/parking"
)

// Logger defines the logging interface used by this package.
// This allows different logging implementations to be used.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// UpdateSource delivers occupancy event batches. Satisfied by
// occupancy.Channel. The returned function removes the subscription.
type UpdateSource interface {
	OnUpdate(fn func([]parking.OccupancyEvent)) func()
}

// Recorder observes section availability after each recompute. Satisfied
// by the telemetry client; a nil Recorder disables recording.
type Recorder interface {
	RecordSectionAvailability(locationID string, floor int, summaries []parking.SectionSummary)
}

// floorState is the complete derived state for one floor. It is rebuilt
// as a unit by SelectFloor and mutated only under the tracker lock.
type floorState struct {
	floor        *parking.FloorConfig
	spots        map[string]*parking.SpotState
	sensorToSpot map[int]string
	sections     []string
	summaries    []parking.SectionSummary
}

// Tracker maintains the derived guidance state for the active floor.
//
// All methods are safe for concurrent use. Snapshots are copies; callers
// can hold them across further updates.
type Tracker struct {
	locationID string
	logger     Logger
	recorder   Recorder

	mu      sync.RWMutex
	state   *floorState
	detach  func()
	applied uint64
}

// NewTracker creates a tracker with no active floor. Call SelectFloor
// before reading state.
func NewTracker(locationID string) *Tracker {
	return &Tracker{
		locationID: locationID,
		logger:     noopLogger{},
	}
}

// SetLogger sets the logger for the tracker.
func (t *Tracker) SetLogger(logger Logger) {
	t.logger = logger
}

// SetRecorder sets the section availability recorder.
func (t *Tracker) SetRecorder(recorder Recorder) {
	t.mu.Lock()
	t.recorder = recorder
	t.mu.Unlock()
}

// SelectFloor makes a floor the active one, rebuilding all derived state
// from its layout. The swap is atomic: no reader observes a partially
// rebuilt floor. Occupancy carried in the previous floor's state is
// discarded; a ForceUpdate on the channel re-seeds the new floor.
func (t *Tracker) SelectFloor(floor *parking.FloorConfig) {
	sensorToSpot, _ := parking.BuildMappings(floor)
	spots := parking.NewSpotStates(floor)
	sections := parking.SectionsOf(floor)

	next := &floorState{
		floor:        floor,
		spots:        spots,
		sensorToSpot: sensorToSpot,
		sections:     sections,
		summaries:    parking.SummarizeSections(spots, sections),
	}

	t.mu.Lock()
	t.state = next
	t.mu.Unlock()

	t.logger.Info("floor selected",
		"location_id", t.locationID,
		"floor", floor.FloorNumber,
		"spots", len(spots),
		"sections", len(sections),
	)
}

// Apply folds a batch of occupancy events into the active floor's state,
// in receipt order, and recomputes section summaries. Events for sensors
// not mapped on the active floor are ignored. A batch that changes
// nothing still recomputes, keeping summaries trivially consistent.
//
// No-op before the first SelectFloor.
func (t *Tracker) Apply(events []parking.OccupancyEvent) {
	if len(events) == 0 {
		return
	}

	t.mu.Lock()
	state := t.state
	if state == nil {
		t.mu.Unlock()
		return
	}
	parking.ApplyOccupancy(state.spots, events, state.sensorToSpot)
	state.summaries = parking.SummarizeSections(state.spots, state.sections)
	t.applied += uint64(len(events))
	recorder := t.recorder
	summaries := copySummaries(state.summaries)
	floorNumber := state.floor.FloorNumber
	t.mu.Unlock()

	if recorder != nil {
		recorder.RecordSectionAvailability(t.locationID, floorNumber, summaries)
	}
}

// Attach subscribes the tracker to an update source, replacing any prior
// attachment. The returned function (also available via Detach) removes
// the subscription.
func (t *Tracker) Attach(source UpdateSource) func() {
	t.Detach()

	unsubscribe := source.OnUpdate(t.Apply)
	t.mu.Lock()
	t.detach = unsubscribe
	t.mu.Unlock()
	return t.Detach
}

// Detach removes the current update source subscription, if any.
func (t *Tracker) Detach() {
	t.mu.Lock()
	detach := t.detach
	t.detach = nil
	t.mu.Unlock()
	if detach != nil {
		detach()
	}
}

// FloorNumber returns the active floor's number, or false when no floor
// has been selected.
func (t *Tracker) FloorNumber() (int, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.state == nil {
		return 0, false
	}
	return t.state.floor.FloorNumber, true
}

// Spots returns a snapshot of the active floor's spot states, keyed by
// spot ID.
func (t *Tracker) Spots() map[string]parking.SpotState {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.state == nil {
		return nil
	}
	snapshot := make(map[string]parking.SpotState, len(t.state.spots))
	for id, spot := range t.state.spots {
		snapshot[id] = *spot
	}
	return snapshot
}

// Spot returns a snapshot of one spot's state.
func (t *Tracker) Spot(spotID string) (parking.SpotState, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.state == nil {
		return parking.SpotState{}, false
	}
	spot, ok := t.state.spots[spotID]
	if !ok {
		return parking.SpotState{}, false
	}
	return *spot, true
}

// Sections returns a snapshot of the current section summaries, ordered
// by section label.
func (t *Tracker) Sections() []parking.SectionSummary {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.state == nil {
		return nil
	}
	return copySummaries(t.state.summaries)
}

// Path returns the navigation path from the active floor's entrance to a
// spot, ending at the spot's destination point. Returns an error when no
// floor is active; returns nil without error when the floor defines no
// route for the spot's section.
func (t *Tracker) Path(spotID string) ([]parking.Position, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.state == nil {
		return nil, fmt.Errorf("no active floor: %w", parking.ErrFloorNotFound)
	}
	return parking.GeneratePath(t.state.floor, spotID), nil
}

// Snapshot is a point-in-time copy of the tracker's derived state.
type Snapshot struct {
	FloorNumber int
	Spots       map[string]parking.SpotState
	Sections    []parking.SectionSummary
}

// Snapshot returns a consistent copy of the active floor's spots and
// section summaries, or false when no floor has been selected. Spots and
// Sections are taken under one lock, so they always agree.
func (t *Tracker) Snapshot() (Snapshot, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.state == nil {
		return Snapshot{}, false
	}
	spots := make(map[string]parking.SpotState, len(t.state.spots))
	for id, spot := range t.state.spots {
		spots[id] = *spot
	}
	return Snapshot{
		FloorNumber: t.state.floor.FloorNumber,
		Spots:       spots,
		Sections:    copySummaries(t.state.summaries),
	}, true
}

// EventsApplied returns the total number of events folded into the
// tracker since creation, across floor selections.
func (t *Tracker) EventsApplied() uint64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.applied
}

func copySummaries(summaries []parking.SectionSummary) []parking.SectionSummary {
	out := make([]parking.SectionSummary, len(summaries))
	copy(out, summaries)
	return out
}
