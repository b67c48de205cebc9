package guidance

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/parkpilot/parkpilot-core/internal/parking"
)

func testFloor(t *testing.T, number int) *parking.FloorConfig {
	t.Helper()
	floor := parking.FallbackLocationConfig().Floor(number)
	if floor == nil {
		t.Fatalf("fallback layout has no floor %d", number)
	}
	return floor
}

func event(sensorID int, occupied bool) parking.OccupancyEvent {
	return parking.OccupancyEvent{
		SensorID:  sensorID,
		Occupied:  occupied,
		Timestamp: time.Now().UTC(),
	}
}

func sectionByID(t *testing.T, summaries []parking.SectionSummary, id string) parking.SectionSummary {
	t.Helper()
	for _, s := range summaries {
		if s.ID == id {
			return s
		}
	}
	t.Fatalf("no summary for section %s in %+v", id, summaries)
	return parking.SectionSummary{}
}

func TestSelectFloor_BuildsFreshState(t *testing.T) {
	tracker := NewTracker(parking.DefaultLocationID)
	tracker.SelectFloor(testFloor(t, 1))

	if number, ok := tracker.FloorNumber(); !ok || number != 1 {
		t.Errorf("FloorNumber() = %d, %v, want 1, true", number, ok)
	}

	spots := tracker.Spots()
	if len(spots) != 12 {
		t.Fatalf("spots = %d, want 12", len(spots))
	}
	for id, spot := range spots {
		if spot.Occupied {
			t.Errorf("spot %s occupied on a fresh floor", id)
		}
	}

	summaries := tracker.Sections()
	if len(summaries) != 2 {
		t.Fatalf("sections = %d, want 2", len(summaries))
	}
	for _, want := range []string{"A", "B"} {
		section := sectionByID(t, summaries, want)
		if section.TotalSlots != 6 || section.AvailableSlots != 6 || section.IsFull {
			t.Errorf("section %s = %+v, want 6/6 available", want, section)
		}
	}
}

func TestApply_UpdatesSpotsAndSummaries(t *testing.T) {
	tracker := NewTracker(parking.DefaultLocationID)
	tracker.SelectFloor(testFloor(t, 1))

	// Floor 1 sensors: A1-A6 are 101-106, B1-B6 are 107-112.
	tracker.Apply([]parking.OccupancyEvent{event(101, true), event(107, true)})

	if spot, ok := tracker.Spot("A1"); !ok || !spot.Occupied {
		t.Errorf("Spot(A1) = %+v, %v, want occupied", spot, ok)
	}
	if spot, ok := tracker.Spot("A2"); !ok || spot.Occupied {
		t.Errorf("Spot(A2) = %+v, %v, want free", spot, ok)
	}

	summaries := tracker.Sections()
	if a := sectionByID(t, summaries, "A"); a.AvailableSlots != 5 {
		t.Errorf("section A available = %d, want 5", a.AvailableSlots)
	}
	if b := sectionByID(t, summaries, "B"); b.AvailableSlots != 5 {
		t.Errorf("section B available = %d, want 5", b.AvailableSlots)
	}

	// Freeing the spot restores the count.
	tracker.Apply([]parking.OccupancyEvent{event(101, false)})
	if a := sectionByID(t, tracker.Sections(), "A"); a.AvailableSlots != 6 {
		t.Errorf("section A available after free = %d, want 6", a.AvailableSlots)
	}
}

func TestApply_IgnoresUnmappedSensors(t *testing.T) {
	tracker := NewTracker(parking.DefaultLocationID)
	tracker.SelectFloor(testFloor(t, 1))

	tracker.Apply([]parking.OccupancyEvent{event(999, true)})

	for id, spot := range tracker.Spots() {
		if spot.Occupied {
			t.Errorf("spot %s occupied by unmapped sensor", id)
		}
	}
}

func TestApply_BeforeSelectFloorIsANoOp(t *testing.T) {
	tracker := NewTracker(parking.DefaultLocationID)
	tracker.Apply([]parking.OccupancyEvent{event(101, true)})

	if spots := tracker.Spots(); spots != nil {
		t.Errorf("Spots() = %v, want nil before floor selection", spots)
	}
}

func TestSelectFloor_DiscardsPreviousOccupancy(t *testing.T) {
	tracker := NewTracker(parking.DefaultLocationID)
	tracker.SelectFloor(testFloor(t, 1))
	tracker.Apply([]parking.OccupancyEvent{event(101, true)})

	tracker.SelectFloor(testFloor(t, 2))

	if number, _ := tracker.FloorNumber(); number != 2 {
		t.Fatalf("FloorNumber() = %d, want 2", number)
	}
	for id, spot := range tracker.Spots() {
		if spot.Occupied {
			t.Errorf("spot %s carried occupancy across floor switch", id)
		}
	}

	// Floor 2 sensors start at 201.
	tracker.Apply([]parking.OccupancyEvent{event(201, true)})
	if spot, ok := tracker.Spot("A1"); !ok || !spot.Occupied {
		t.Errorf("Spot(A1) on floor 2 = %+v, %v, want occupied", spot, ok)
	}
}

func TestSnapshots_AreIsolatedFromTrackerState(t *testing.T) {
	tracker := NewTracker(parking.DefaultLocationID)
	tracker.SelectFloor(testFloor(t, 1))

	spots := tracker.Spots()
	mutated := spots["A1"]
	mutated.Occupied = true
	spots["A1"] = mutated

	if spot, _ := tracker.Spot("A1"); spot.Occupied {
		t.Error("snapshot mutation leaked into tracker state")
	}

	summaries := tracker.Sections()
	summaries[0].AvailableSlots = 0
	if got := tracker.Sections()[0].AvailableSlots; got == 0 {
		t.Error("summary mutation leaked into tracker state")
	}
}

func TestSnapshot_SpotsAndSectionsAgree(t *testing.T) {
	tracker := NewTracker(parking.DefaultLocationID)

	if _, ok := tracker.Snapshot(); ok {
		t.Error("Snapshot() ok = true before floor selection")
	}

	tracker.SelectFloor(testFloor(t, 1))
	tracker.Apply([]parking.OccupancyEvent{event(101, true)})

	snapshot, ok := tracker.Snapshot()
	if !ok {
		t.Fatal("Snapshot() ok = false with an active floor")
	}
	if snapshot.FloorNumber != 1 {
		t.Errorf("snapshot floor = %d, want 1", snapshot.FloorNumber)
	}

	occupied := 0
	for _, spot := range snapshot.Spots {
		if spot.Occupied {
			occupied++
		}
	}
	available := 0
	for _, section := range snapshot.Sections {
		available += section.AvailableSlots
	}
	if occupied != 1 || available != len(snapshot.Spots)-occupied {
		t.Errorf("snapshot disagrees with itself: %d occupied, %d available of %d",
			occupied, available, len(snapshot.Spots))
	}
}

func TestPath(t *testing.T) {
	tracker := NewTracker(parking.DefaultLocationID)

	if _, err := tracker.Path("A1"); !errors.Is(err, parking.ErrFloorNotFound) {
		t.Errorf("Path() before floor selection error = %v, want ErrFloorNotFound", err)
	}

	floor := testFloor(t, 1)
	tracker.SelectFloor(floor)

	path, err := tracker.Path("A1")
	if err != nil {
		t.Fatalf("Path(A1) error = %v", err)
	}
	if len(path) == 0 {
		t.Fatal("Path(A1) is empty")
	}
	if first := path[0]; first != floor.EntrancePoint {
		t.Errorf("path starts at %+v, want entrance %+v", first, floor.EntrancePoint)
	}
	// The terminal point is the spot's top-left corner nudged inward.
	last := path[len(path)-1]
	a1 := floor.Spots[0]
	if last.X <= a1.Position.X || last.Y <= a1.Position.Y {
		t.Errorf("path ends at %+v, want a point inset from %+v", last, a1.Position)
	}

	if path, err := tracker.Path("no-such-spot"); err != nil || path != nil {
		t.Errorf("Path(unknown) = %v, %v, want nil, nil", path, err)
	}

	// A floor without routes yields no path, silently.
	bare := testFloor(t, 1)
	bare.Routes = nil
	tracker.SelectFloor(bare)
	if path, err := tracker.Path("A1"); err != nil || path != nil {
		t.Errorf("Path() with no routes = %v, %v, want nil, nil", path, err)
	}
}

// fakeSource is an UpdateSource double that delivers batches on demand.
type fakeSource struct {
	mu         sync.Mutex
	fn         func([]parking.OccupancyEvent)
	subscribed int
}

func (s *fakeSource) OnUpdate(fn func([]parking.OccupancyEvent)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fn = fn
	s.subscribed++
	return func() {
		s.mu.Lock()
		s.fn = nil
		s.mu.Unlock()
	}
}

func (s *fakeSource) emit(events []parking.OccupancyEvent) {
	s.mu.Lock()
	fn := s.fn
	s.mu.Unlock()
	if fn != nil {
		fn(events)
	}
}

func TestAttach_FeedsEventsFromSource(t *testing.T) {
	tracker := NewTracker(parking.DefaultLocationID)
	tracker.SelectFloor(testFloor(t, 1))

	source := &fakeSource{}
	tracker.Attach(source)

	source.emit([]parking.OccupancyEvent{event(101, true)})
	if spot, _ := tracker.Spot("A1"); !spot.Occupied {
		t.Error("event from attached source not applied")
	}

	tracker.Detach()
	source.emit([]parking.OccupancyEvent{event(102, true)})
	if spot, _ := tracker.Spot("A2"); spot.Occupied {
		t.Error("event applied after Detach")
	}
}

// fakeRecorder captures section availability recordings.
type fakeRecorder struct {
	mu        sync.Mutex
	locations []string
	floors    []int
	summaries [][]parking.SectionSummary
}

func (r *fakeRecorder) RecordSectionAvailability(locationID string, floor int, summaries []parking.SectionSummary) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.locations = append(r.locations, locationID)
	r.floors = append(r.floors, floor)
	r.summaries = append(r.summaries, summaries)
}

func TestApply_RecordsSectionAvailability(t *testing.T) {
	tracker := NewTracker(parking.DefaultLocationID)
	tracker.SelectFloor(testFloor(t, 1))

	recorder := &fakeRecorder{}
	tracker.SetRecorder(recorder)

	tracker.Apply([]parking.OccupancyEvent{event(101, true)})

	recorder.mu.Lock()
	defer recorder.mu.Unlock()
	if len(recorder.summaries) != 1 {
		t.Fatalf("recordings = %d, want 1", len(recorder.summaries))
	}
	if recorder.locations[0] != parking.DefaultLocationID || recorder.floors[0] != 1 {
		t.Errorf("recorded %s floor %d, want %s floor 1",
			recorder.locations[0], recorder.floors[0], parking.DefaultLocationID)
	}
	if a := sectionByID(t, recorder.summaries[0], "A"); a.AvailableSlots != 5 {
		t.Errorf("recorded section A available = %d, want 5", a.AvailableSlots)
	}
}
