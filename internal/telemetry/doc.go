// Package telemetry records section availability aggregates to InfluxDB.
//
// It wraps the official influxdb-client-go v2 library with parkpilot
// patterns for connection management, batched writes, and health
// monitoring.
//
// Only aggregates leave the process: total and available slot counts per
// section, sampled after each occupancy recompute. Raw sensor events are
// never written anywhere.
//
// Writes are non-blocking and batched according to config (batch_size,
// flush_interval). Async write failures are delivered through the
// SetOnError callback.
package telemetry
