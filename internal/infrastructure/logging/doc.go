// Package logging provides structured logging for ParkPilot Core.
//
// It wraps log/slog with configuration-driven format and level selection
// and stamps every record with the service name and build version. Domain
// packages accept a minimal Logger interface instead of this concrete type
// so they can be tested without log output.
package logging
