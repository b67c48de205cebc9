package parking

import (
	"fmt"
	"strings"
)

// ValidateLocationConfig checks a location config against the layout
// invariants:
//   - floor numbers unique within the location
//   - spot IDs unique within each floor
//   - sensor IDs unique across the whole location
//   - rotations restricted to the four cardinal values
//
// All violations are collected into a single ErrInvalidConfig-wrapped error
// so a bad remote payload can be diagnosed in one pass.
func ValidateLocationConfig(cfg *LocationConfig) error {
	var errs []string

	if cfg.LocationID == "" {
		errs = append(errs, "location_id is required")
	}

	floors := make(map[int]bool)
	sensors := make(map[int]string)
	for i := range cfg.Floors {
		floor := &cfg.Floors[i]
		if floors[floor.FloorNumber] {
			errs = append(errs, fmt.Sprintf("duplicate floor number %d", floor.FloorNumber))
		}
		floors[floor.FloorNumber] = true

		spots := make(map[string]bool)
		for _, spot := range floor.Spots {
			if spot.SpotID == "" {
				errs = append(errs, fmt.Sprintf("floor %d: spot with empty spot_id", floor.FloorNumber))
				continue
			}
			if spots[spot.SpotID] {
				errs = append(errs, fmt.Sprintf("floor %d: duplicate spot_id %s", floor.FloorNumber, spot.SpotID))
			}
			spots[spot.SpotID] = true

			if spot.SensorID > 0 {
				if other, ok := sensors[spot.SensorID]; ok {
					errs = append(errs, fmt.Sprintf("sensor %d mapped to both %s and %s", spot.SensorID, other, spot.SpotID))
				}
				sensors[spot.SensorID] = spot.SpotID
			}

			if !spot.Rotation.IsValid() {
				errs = append(errs, fmt.Sprintf("spot %s: rotation %d not in {0, 90, 180, 270}", spot.SpotID, spot.Rotation))
			}
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(errs, "; "))
	}
	return nil
}
