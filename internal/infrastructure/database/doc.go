// Package database manages the SQLite connection backing the persisted
// configuration cache.
//
// It provides:
//   - Connection setup with WAL mode, busy timeout and restrictive
//     file permissions
//   - Embedded SQL migrations applied at startup, each in its own
//     transaction
//   - Health checks for the composition root
//
// The database is a pure cache, never a source of truth: deleting the file
// costs one extra remote fetch and nothing else.
package database
