package parking

import (
	"testing"
	"time"
)

// testFloor returns a small floor with two sections for derived-state tests.
// Section A: A1 (sensor 10), A2 (sensor 11). Section B: B1 (sensor 12).
func testFloor() *FloorConfig {
	return &FloorConfig{
		FloorNumber:   1,
		FloorName:     "Level 1",
		EntrancePoint: Position{X: 0, Y: 50},
		Spots: []SpotConfig{
			{SpotID: "A1", SensorID: 10, Position: Position{X: 100, Y: 20}, Dimensions: Dimensions{Width: 60, Height: 120}},
			{SpotID: "A2", SensorID: 11, Position: Position{X: 170, Y: 20}, Dimensions: Dimensions{Width: 60, Height: 120}},
			{SpotID: "B1", SensorID: 12, Position: Position{X: 100, Y: 300}, Dimensions: Dimensions{Width: 60, Height: 120}},
		},
		Waypoints: []NavigationWaypoint{
			{ID: "entrance", Position: Position{X: 0, Y: 50}},
			{ID: "lane", Position: Position{X: 100, Y: 180}},
		},
		Routes: []NavigationRoute{
			{Section: "A", Waypoints: []string{"entrance", "lane", DestinationMarker}},
		},
	}
}

func TestBuildMappings(t *testing.T) {
	floor := testFloor()

	sensorToSpot, spotToSensor := BuildMappings(floor)

	for _, spot := range floor.Spots {
		if got := sensorToSpot[spot.SensorID]; got != spot.SpotID {
			t.Errorf("sensorToSpot[%d] = %q, want %q", spot.SensorID, got, spot.SpotID)
		}
		if got := spotToSensor[spot.SpotID]; got != spot.SensorID {
			t.Errorf("spotToSensor[%q] = %d, want %d", spot.SpotID, got, spot.SensorID)
		}
	}
}

func TestBuildMappings_SkipsSpotsWithoutSensor(t *testing.T) {
	floor := testFloor()
	floor.Spots = append(floor.Spots, SpotConfig{SpotID: "B2", SensorID: 0})

	sensorToSpot, spotToSensor := BuildMappings(floor)

	if _, ok := spotToSensor["B2"]; ok {
		t.Error("spot without sensor should have no mapping entry")
	}
	if len(sensorToSpot) != 3 {
		t.Errorf("sensorToSpot has %d entries, want 3", len(sensorToSpot))
	}
}

func TestApplyOccupancy_PartialUpdatePreservesState(t *testing.T) {
	floor := testFloor()
	sensorToSpot, _ := BuildMappings(floor)
	spots := NewSpotStates(floor)

	// Pre-existing state: B1 occupied from an earlier batch.
	spots["B1"].Occupied = true

	ApplyOccupancy(spots, []OccupancyEvent{
		{SensorID: 10, Occupied: true, Timestamp: time.Now()},
		{SensorID: 11, Occupied: false, Timestamp: time.Now()},
	}, sensorToSpot)

	if !spots["A1"].Occupied {
		t.Error("A1 should be occupied after event for sensor 10")
	}
	if spots["A2"].Occupied {
		t.Error("A2 should remain free")
	}
	if !spots["B1"].Occupied {
		t.Error("B1 had no event in the batch and must retain its prior value")
	}
}

func TestApplyOccupancy_IgnoresUnmappedSensors(t *testing.T) {
	floor := testFloor()
	sensorToSpot, _ := BuildMappings(floor)
	spots := NewSpotStates(floor)

	ApplyOccupancy(spots, []OccupancyEvent{
		{SensorID: 999, Occupied: true},
	}, sensorToSpot)

	for id, spot := range spots {
		if spot.Occupied {
			t.Errorf("spot %s changed by an unmapped sensor event", id)
		}
	}
}

func TestApplyOccupancy_LastEventPerSensorWins(t *testing.T) {
	floor := testFloor()
	sensorToSpot, _ := BuildMappings(floor)
	spots := NewSpotStates(floor)

	ApplyOccupancy(spots, []OccupancyEvent{
		{SensorID: 10, Occupied: true},
		{SensorID: 10, Occupied: false},
	}, sensorToSpot)

	if spots["A1"].Occupied {
		t.Error("A1 should reflect the last event in the batch")
	}
}

func TestSummarizeSections_Consistency(t *testing.T) {
	floor := testFloor()
	sensorToSpot, _ := BuildMappings(floor)
	spots := NewSpotStates(floor)
	sections := SectionsOf(floor)

	// Scenario from the availability contract: occupying A1 drops section A
	// availability by exactly one and leaves A2 untouched.
	before := SummarizeSections(spots, sections)
	ApplyOccupancy(spots, []OccupancyEvent{{SensorID: 10, Occupied: true}}, sensorToSpot)
	after := SummarizeSections(spots, sections)

	findSection := func(summaries []SectionSummary, id string) SectionSummary {
		t.Helper()
		for _, s := range summaries {
			if s.ID == id {
				return s
			}
		}
		t.Fatalf("section %s missing from summaries", id)
		return SectionSummary{}
	}

	a0, a1 := findSection(before, "A"), findSection(after, "A")
	if a0.TotalSlots != 2 || a0.AvailableSlots != 2 {
		t.Errorf("section A before = %d/%d, want 2/2", a0.AvailableSlots, a0.TotalSlots)
	}
	if a1.AvailableSlots != a0.AvailableSlots-1 {
		t.Errorf("section A availability = %d, want %d", a1.AvailableSlots, a0.AvailableSlots-1)
	}
	if spots["A2"].Occupied {
		t.Error("A2 must be unchanged")
	}

	// available_slots = total_slots - occupied count, for every section.
	for _, s := range after {
		occupied := 0
		for _, spot := range spots {
			if spot.Section == s.ID && spot.Occupied {
				occupied++
			}
		}
		if s.AvailableSlots != s.TotalSlots-occupied {
			t.Errorf("section %s: available = %d, want %d", s.ID, s.AvailableSlots, s.TotalSlots-occupied)
		}
		if s.IsFull != (s.AvailableSlots == 0) {
			t.Errorf("section %s: is_full = %v inconsistent with available %d", s.ID, s.IsFull, s.AvailableSlots)
		}
	}
}

func TestSummarizeSections_FullSection(t *testing.T) {
	floor := testFloor()
	sensorToSpot, _ := BuildMappings(floor)
	spots := NewSpotStates(floor)

	ApplyOccupancy(spots, []OccupancyEvent{
		{SensorID: 10, Occupied: true},
		{SensorID: 11, Occupied: true},
	}, sensorToSpot)

	for _, s := range SummarizeSections(spots, SectionsOf(floor)) {
		if s.ID == "A" {
			if s.AvailableSlots != 0 || !s.IsFull {
				t.Errorf("section A = %+v, want full", s)
			}
		}
	}
}

func TestGeneratePath_ResolvesRoute(t *testing.T) {
	floor := testFloor()

	path := GeneratePath(floor, "A2")

	if len(path) != 3 {
		t.Fatalf("path length = %d, want 3", len(path))
	}
	if path[0] != (Position{X: 0, Y: 50}) {
		t.Errorf("path[0] = %+v, want entrance", path[0])
	}
	if path[1] != (Position{X: 100, Y: 180}) {
		t.Errorf("path[1] = %+v, want lane waypoint", path[1])
	}
	// Terminal marker resolves inside the spot footprint, offset from its
	// top-left corner.
	want := Position{X: floor.Spots[1].Position.X + destinationInset, Y: floor.Spots[1].Position.Y + destinationInset}
	if path[2] != want {
		t.Errorf("path[2] = %+v, want %+v", path[2], want)
	}
}

func TestGeneratePath_NoRouteForSection(t *testing.T) {
	floor := testFloor()

	// Section B has no authored route: empty result, not an error.
	if path := GeneratePath(floor, "B1"); len(path) != 0 {
		t.Errorf("path = %v, want empty for section without route", path)
	}
}

func TestGeneratePath_UnknownSpot(t *testing.T) {
	floor := testFloor()

	if path := GeneratePath(floor, "Z9"); len(path) != 0 {
		t.Errorf("path = %v, want empty for unknown spot", path)
	}
}

func TestGeneratePath_SkipsUnknownWaypoints(t *testing.T) {
	floor := testFloor()
	floor.Routes[0].Waypoints = []string{"entrance", "missing-waypoint", DestinationMarker}

	path := GeneratePath(floor, "A1")

	if len(path) != 2 {
		t.Fatalf("path length = %d, want 2 (unknown waypoint skipped)", len(path))
	}
}
