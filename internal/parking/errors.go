package parking

import "errors"

var (
	// ErrFloorNotFound is returned when a location config has no floor with
	// the requested number. Recoverable: the caller shows an error state.
	ErrFloorNotFound = errors.New("floor not found")

	// ErrInvalidConfig is returned when a location config violates a layout
	// invariant (duplicate floors, spot IDs or sensor IDs, bad rotation).
	ErrInvalidConfig = errors.New("invalid location config")
)
