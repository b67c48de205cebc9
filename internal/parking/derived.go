package parking

import (
	"fmt"
	"sort"
)

// destinationInset offsets the resolved destination marker from the target
// spot's top-left corner so a rendered path visibly terminates inside the
// spot's footprint rather than at its origin corner.
const destinationInset = 10.0

// BuildMappings constructs the sensor-to-spot and spot-to-sensor mappings
// for a floor in a single pass over its spots.
//
// Spots without a positive sensor ID yield no mapping entry; occupancy
// events for unmapped sensors are later ignored by ApplyOccupancy.
func BuildMappings(floor *FloorConfig) (sensorToSpot map[int]string, spotToSensor map[string]int) {
	sensorToSpot = make(map[int]string, len(floor.Spots))
	spotToSensor = make(map[string]int, len(floor.Spots))
	for _, spot := range floor.Spots {
		if spot.SensorID <= 0 {
			continue
		}
		sensorToSpot[spot.SensorID] = spot.SpotID
		spotToSensor[spot.SpotID] = spot.SensorID
	}
	return sensorToSpot, spotToSensor
}

// BuildWaypointIndex returns a waypoint-ID-to-position index for a floor.
func BuildWaypointIndex(floor *FloorConfig) map[string]Position {
	index := make(map[string]Position, len(floor.Waypoints))
	for _, wp := range floor.Waypoints {
		index[wp.ID] = wp.Position
	}
	return index
}

// NewSpotStates builds the initial live state for every spot on a floor.
// All spots start unoccupied until the first occupancy events arrive
// (or a force update resyncs the full floor).
func NewSpotStates(floor *FloorConfig) map[string]*SpotState {
	states := make(map[string]*SpotState, len(floor.Spots))
	for _, spot := range floor.Spots {
		states[spot.SpotID] = &SpotState{
			SpotID:     spot.SpotID,
			SensorID:   spot.SensorID,
			Section:    spot.Section(),
			Position:   spot.Position,
			Dimensions: spot.Dimensions,
			Rotation:   spot.Rotation,
		}
	}
	return states
}

// ApplyOccupancy folds a batch of occupancy events into spot state through
// the sensor-to-spot mapping.
//
// Events whose sensor has no mapping entry are ignored. Spots with no event
// in the batch keep their prior value: a partial update never resets
// unrelated spots. Within a batch the last event per sensor wins.
func ApplyOccupancy(spots map[string]*SpotState, events []OccupancyEvent, sensorToSpot map[int]string) {
	for _, ev := range events {
		spotID, ok := sensorToSpot[ev.SensorID]
		if !ok {
			continue
		}
		if spot, ok := spots[spotID]; ok {
			spot.Occupied = ev.Occupied
		}
	}
}

// SectionsOf returns the sorted set of section IDs present on a floor.
// The result seeds SummarizeSections so a fully occupied section still
// appears in the summary list.
func SectionsOf(floor *FloorConfig) []string {
	seen := make(map[string]bool)
	for _, spot := range floor.Spots {
		if section := spot.Section(); section != "" {
			seen[section] = true
		}
	}
	sections := make([]string, 0, len(seen))
	for section := range seen {
		sections = append(sections, section)
	}
	sort.Strings(sections)
	return sections
}

// SummarizeSections computes aggregate availability per section from the
// current spot state. Counts are always recomputed from scratch rather than
// adjusted incrementally, so they cannot drift from the underlying state.
func SummarizeSections(spots map[string]*SpotState, sections []string) []SectionSummary {
	summaries := make([]SectionSummary, 0, len(sections))
	for _, section := range sections {
		summary := SectionSummary{
			ID:    section,
			Label: fmt.Sprintf("Section %s", section),
		}
		for _, spot := range spots {
			if spot.Section != section {
				continue
			}
			summary.TotalSlots++
			if !spot.Occupied {
				summary.AvailableSlots++
			}
		}
		summary.IsFull = summary.AvailableSlots == 0
		summaries = append(summaries, summary)
	}
	return summaries
}

// GeneratePath resolves the authored route to a spot into an ordered
// position sequence.
//
// The route is selected by the target spot's section. If the floor has no
// route for that section, or the spot does not exist, the result is an empty
// sequence: no route available, not an error. Waypoint IDs that are
// missing from the floor's waypoint set are skipped; the terminal
// DestinationMarker resolves to a point inset from the spot's top-left
// corner. No pathfinding is performed: routes are hand-authored per
// building.
func GeneratePath(floor *FloorConfig, spotID string) []Position {
	var target *SpotConfig
	for i := range floor.Spots {
		if floor.Spots[i].SpotID == spotID {
			target = &floor.Spots[i]
			break
		}
	}
	if target == nil {
		return nil
	}

	section := target.Section()
	var route *NavigationRoute
	for i := range floor.Routes {
		if floor.Routes[i].Section == section {
			route = &floor.Routes[i]
			break
		}
	}
	if route == nil {
		return nil
	}

	index := BuildWaypointIndex(floor)
	path := make([]Position, 0, len(route.Waypoints))
	for _, id := range route.Waypoints {
		if id == DestinationMarker {
			path = append(path, Position{
				X: target.Position.X + destinationInset,
				Y: target.Position.Y + destinationInset,
			})
			continue
		}
		if pos, ok := index[id]; ok {
			path = append(path, pos)
		}
	}
	return path
}
