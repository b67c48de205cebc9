package parking

import "time"

// DefaultLocationID identifies the location served by the hardcoded
// fallback layout.
const DefaultLocationID = "riverside-plaza"

// SensorFloorBlock is the sensor-ID block size per floor: sensor IDs
// partition into floors in fixed blocks (floor 1 owns 100-199, floor 2
// owns 200-299, ...). Used only as a legacy fallback when an occupancy
// event carries no explicit floor field. The block size is inferred from
// the sensor ranges below and is not guaranteed by any backend contract.
const SensorFloorBlock = 100

// FallbackLocationConfig returns the hardcoded layout for the default
// location. It is the terminal step of configuration resolution: it never
// fails and touches neither storage nor network, so resolution is total
// even with no connectivity and an empty cache.
func FallbackLocationConfig() *LocationConfig {
	return &LocationConfig{
		LocationID:   DefaultLocationID,
		LocationName: "Riverside Plaza Parking",
		Version:      "fallback-1",
		LastUpdated:  time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC),
		Floors: []FloorConfig{
			fallbackFloor(1, "Level 1"),
			fallbackFloor(2, "Level 2"),
		},
	}
}

// fallbackFloor builds one fallback floor: two rows of six spots (sections
// A and B) flanking a central driving lane, with an authored route per
// section. Sensor IDs start at number*SensorFloorBlock + 1.
func fallbackFloor(number int, name string) FloorConfig {
	const (
		spotWidth  = 60.0
		spotHeight = 120.0
		spotPitch  = 70.0
		rowAY      = 80.0
		rowBY      = 360.0
		laneY      = 280.0
		firstX     = 100.0
	)

	floor := FloorConfig{
		FloorNumber:   number,
		FloorName:     name,
		BuildingName:  "Riverside Plaza",
		EntrancePoint: Position{X: 40, Y: laneY},
		GestureLimits: GestureLimits{MinScale: 0.5, MaxScale: 3.0, PanMargin: 120},
		InitialView:   InitialView{Scale: 1.0, Center: Position{X: 360, Y: 280}},
	}

	sensor := number * SensorFloorBlock
	for row, section := range []string{"A", "B"} {
		y := rowAY
		if row == 1 {
			y = rowBY
		}
		for i := 0; i < 6; i++ {
			sensor++
			floor.Spots = append(floor.Spots, SpotConfig{
				SpotID:     section + string(rune('1'+i)),
				SensorID:   sensor,
				Position:   Position{X: firstX + float64(i)*spotPitch, Y: y},
				Dimensions: Dimensions{Width: spotWidth, Height: spotHeight},
				Rotation:   Rotation0,
			})
		}
	}

	floor.Waypoints = []NavigationWaypoint{
		{ID: "entrance", Position: floor.EntrancePoint},
		{ID: "lane-west", Position: Position{X: firstX, Y: laneY}},
		{ID: "lane-east", Position: Position{X: firstX + 5*spotPitch, Y: laneY}},
		{ID: "row-a", Position: Position{X: firstX + 2*spotPitch, Y: rowAY + spotHeight}},
		{ID: "row-b", Position: Position{X: firstX + 2*spotPitch, Y: rowBY}},
	}

	floor.Routes = []NavigationRoute{
		{Section: "A", Waypoints: []string{"entrance", "lane-west", "row-a", DestinationMarker}},
		{Section: "B", Waypoints: []string{"entrance", "lane-west", "row-b", DestinationMarker}},
	}

	return floor
}
