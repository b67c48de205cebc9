// Package occupancy maintains the live sensor event channel.
//
// A Channel owns one broker connection for one location. It subscribes to
// that location's occupancy topic, decodes and deduplicates incoming sensor
// events, and fans them out to registered subscribers. Reconnection is
// supervised by the Channel itself, not delegated to the underlying client:
// whenever a session is wanted but absent, a background supervisor probes
// the broker on a fixed interval and establishes the session, restoring
// subscriptions. That covers both a lost connection and a Connect that
// found the broker unreachable.
//
// The channel is deliberately quiet about transport failures. Connect
// returns nil when the broker is unreachable, redials are retried
// forever, and the only operation that surfaces an error to the caller is
// ForceUpdate, which explicitly requests a full state snapshot.
//
// Status transitions follow a small state machine:
//
//	Disconnected -> Connecting -> Connected
//	Connected    -> Reconnecting (connection lost, supervisor retrying)
//	Reconnecting -> Connected    (supervisor succeeded)
//	any          -> Disconnected (Disconnect called)
//
// Disconnect holds until Connect is called again: the same channel then
// re-establishes the session, with all prior subscriptions removed.
//
// OnStatus subscribers observe the session lifecycle through a smaller
// vocabulary: connected when a session is established, disconnected when
// one ends, error when a connect attempt against a reachable broker
// fails.
package occupancy
