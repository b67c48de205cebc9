package occupancy

import "errors"

// Domain-specific errors for the occupancy channel.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrNotConnected is returned when an operation requires a live
	// broker connection and there is none.
	ErrNotConnected = errors.New("occupancy: not connected")

	// ErrConnectionFailed is returned when a connection attempt to a
	// reachable broker fails.
	ErrConnectionFailed = errors.New("occupancy: connection failed")

	// ErrSubscribeFailed is returned when the event topic subscription
	// cannot be established.
	ErrSubscribeFailed = errors.New("occupancy: subscribe failed")

	// ErrPublishFailed is returned when a publish operation fails.
	ErrPublishFailed = errors.New("occupancy: publish failed")

	// ErrForceUpdate is returned when a full state snapshot request
	// cannot be delivered.
	ErrForceUpdate = errors.New("occupancy: force update failed")

	// ErrInvalidEvent is returned when an event payload cannot be decoded
	// into a well-formed sensor event.
	ErrInvalidEvent = errors.New("occupancy: invalid event payload")
)
