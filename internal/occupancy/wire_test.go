package occupancy

import (
	"errors"
	"testing"
	"time"

	"github.com/parkpilot/parkpilot-core/internal/parking"
)

func TestDecodeEvents_SingleEvent(t *testing.T) {
	now := time.Now().UTC()
	payload := []byte(`{"sensor_id": 105, "is_occupied": 1, "distance_cm": 42.5, "timestamp": "2026-08-20T10:30:00Z"}`)

	events, err := decodeEvents(payload, now)
	if err != nil {
		t.Fatalf("decodeEvents() error = %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("decoded %d events, want 1", len(events))
	}
	event := events[0]
	if event.SensorID != 105 || !event.Occupied {
		t.Errorf("event = %+v, want sensor 105 occupied", event)
	}
	want := time.Date(2026, 8, 20, 10, 30, 0, 0, time.UTC)
	if !event.Timestamp.Equal(want) {
		t.Errorf("timestamp = %v, want %v", event.Timestamp, want)
	}
	if event.Floor != nil {
		t.Errorf("floor = %v, want nil (not sent)", *event.Floor)
	}
}

func TestDecodeEvents_Batch(t *testing.T) {
	payload := []byte(`[
		{"sensor_id": 101, "is_occupied": 0},
		{"sensor_id": 102, "is_occupied": 1, "floor": 3}
	]`)

	events, err := decodeEvents(payload, time.Now())
	if err != nil {
		t.Fatalf("decodeEvents() error = %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("decoded %d events, want 2", len(events))
	}
	if events[0].Occupied || !events[1].Occupied {
		t.Errorf("occupied flags = %v/%v, want false/true", events[0].Occupied, events[1].Occupied)
	}
	if events[1].Floor == nil || *events[1].Floor != 3 {
		t.Errorf("floor = %v, want 3", events[1].Floor)
	}
}

func TestDecodeEvents_MissingTimestampFallsBackToNow(t *testing.T) {
	now := time.Date(2026, 8, 23, 12, 0, 0, 0, time.UTC)

	for name, payload := range map[string]string{
		"absent":      `{"sensor_id": 101, "is_occupied": 1}`,
		"unparseable": `{"sensor_id": 101, "is_occupied": 1, "timestamp": "yesterday"}`,
	} {
		events, err := decodeEvents([]byte(payload), now)
		if err != nil {
			t.Fatalf("%s: decodeEvents() error = %v", name, err)
		}
		if !events[0].Timestamp.Equal(now) {
			t.Errorf("%s: timestamp = %v, want now (%v)", name, events[0].Timestamp, now)
		}
	}
}

func TestDecodeEvents_Invalid(t *testing.T) {
	cases := map[string]string{
		"empty":              ``,
		"garbage":            `not json`,
		"occupied flag of 2": `{"sensor_id": 101, "is_occupied": 2}`,
		"boolean flag":       `{"sensor_id": 101, "is_occupied": true}`,
		"zero sensor":        `{"sensor_id": 0, "is_occupied": 1}`,
		"negative sensor":    `{"sensor_id": -4, "is_occupied": 0}`,
		"bad event in batch": `[{"sensor_id": 101, "is_occupied": 1}, {"sensor_id": 0, "is_occupied": 1}]`,
	}
	for name, payload := range cases {
		if _, err := decodeEvents([]byte(payload), time.Now()); !errors.Is(err, ErrInvalidEvent) {
			t.Errorf("%s: decodeEvents() error = %v, want ErrInvalidEvent", name, err)
		}
	}
}

func TestEventFloor(t *testing.T) {
	three := 3
	cases := []struct {
		name  string
		event parking.OccupancyEvent
		want  int
	}{
		{"explicit floor wins", parking.OccupancyEvent{SensorID: 105, Floor: &three}, 3},
		{"derived from block, floor 1", parking.OccupancyEvent{SensorID: 105}, 1},
		{"derived from block, floor 2", parking.OccupancyEvent{SensorID: 217}, 2},
	}
	for _, tc := range cases {
		if got := eventFloor(tc.event); got != tc.want {
			t.Errorf("%s: eventFloor() = %d, want %d", tc.name, got, tc.want)
		}
	}
}
