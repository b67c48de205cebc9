package occupancy

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/parkpilot/parkpilot-core/internal/parking"
)

// wireEvent is the broker payload for a single sensor reading.
//
// is_occupied is an integer flag, 0 or 1. distance_cm is informational and
// currently unused beyond decoding. floor is optional; when absent the
// floor is derived from the sensor ID numbering block.
type wireEvent struct {
	SensorID   int      `json:"sensor_id"`
	IsOccupied int      `json:"is_occupied"`
	DistanceCM *float64 `json:"distance_cm,omitempty"`
	Floor      *int     `json:"floor,omitempty"`
	Timestamp  string   `json:"timestamp,omitempty"`
}

// decodeEvents parses an event payload into domain events.
//
// The payload is either a single event object or an array of them (sensor
// gateways batch snapshot responses). Timestamps are RFC 3339; a missing or
// unparseable timestamp falls back to now. A payload that cannot be decoded
// at all, or contains a malformed event, returns ErrInvalidEvent.
func decodeEvents(payload []byte, now time.Time) ([]parking.OccupancyEvent, error) {
	trimmed := bytes.TrimLeft(payload, " \t\r\n")
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("%w: empty payload", ErrInvalidEvent)
	}

	var raw []wireEvent
	if trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &raw); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidEvent, err)
		}
	} else {
		var single wireEvent
		if err := json.Unmarshal(trimmed, &single); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidEvent, err)
		}
		raw = []wireEvent{single}
	}

	events := make([]parking.OccupancyEvent, 0, len(raw))
	for _, w := range raw {
		event, err := w.toDomain(now)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	return events, nil
}

// toDomain validates and converts one wire event.
func (w wireEvent) toDomain(now time.Time) (parking.OccupancyEvent, error) {
	if w.SensorID <= 0 {
		return parking.OccupancyEvent{}, fmt.Errorf("%w: sensor_id %d", ErrInvalidEvent, w.SensorID)
	}
	if w.IsOccupied != 0 && w.IsOccupied != 1 {
		return parking.OccupancyEvent{}, fmt.Errorf("%w: is_occupied %d (want 0 or 1)", ErrInvalidEvent, w.IsOccupied)
	}

	timestamp := now
	if w.Timestamp != "" {
		if parsed, err := time.Parse(time.RFC3339, w.Timestamp); err == nil {
			timestamp = parsed
		}
	}

	return parking.OccupancyEvent{
		SensorID:  w.SensorID,
		Occupied:  w.IsOccupied == 1,
		Floor:     w.Floor,
		Timestamp: timestamp,
	}, nil
}

// eventFloor resolves the floor an event belongs to. An explicit floor
// field wins; otherwise the floor is encoded in the sensor numbering
// (sensors 101-199 are floor 1, 201-299 floor 2, and so on).
func eventFloor(event parking.OccupancyEvent) int {
	if event.Floor != nil {
		return *event.Floor
	}
	return event.SensorID / parking.SensorFloorBlock
}

// refreshRequest is the payload published to the refresh topic by
// ForceUpdate.
type refreshRequest struct {
	LocationID  string `json:"location_id"`
	RequestedAt string `json:"requested_at"`
}

func encodeRefreshRequest(locationID string, now time.Time) []byte {
	payload, _ := json.Marshal(refreshRequest{ //nolint:errcheck // struct of strings cannot fail to marshal
		LocationID:  locationID,
		RequestedAt: now.UTC().Format(time.RFC3339),
	})
	return payload
}
