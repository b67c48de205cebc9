package configcache

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/parkpilot/parkpilot-core/internal/parking"
)

// ErrCacheMiss is returned when no complete, decodable cache entry exists
// for the requested location. TTL checks are the resolver's concern; the
// store only reports presence and integrity.
var ErrCacheMiss = errors.New("config cache miss")

// Store defines the persisted config cache operations used by the resolver.
type Store interface {
	// Load returns the cached config and metadata for a location.
	// Returns ErrCacheMiss when either record is absent or undecodable.
	Load(ctx context.Context, locationID string) (*parking.LocationConfig, *parking.CacheMetadata, error)

	// Save stores the config and metadata, replacing any previous entry.
	Save(ctx context.Context, cfg *parking.LocationConfig, meta parking.CacheMetadata) error

	// Delete removes the cache entry for one location.
	Delete(ctx context.Context, locationID string) error

	// Clear removes all cache entries.
	Clear(ctx context.Context) error
}

// SQLiteStore implements Store on the cache_entries table.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a SQLite-backed config cache store.
func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// Cache entry key builders. Two records per location: the config payload
// and its metadata.
func configKey(locationID string) string { return "config:" + locationID }
func metaKey(locationID string) string   { return "meta:" + locationID }

// Load implements Store.
func (s *SQLiteStore) Load(ctx context.Context, locationID string) (*parking.LocationConfig, *parking.CacheMetadata, error) {
	configRaw, err := s.get(ctx, configKey(locationID))
	if err != nil {
		return nil, nil, err
	}
	metaRaw, err := s.get(ctx, metaKey(locationID))
	if err != nil {
		return nil, nil, err
	}

	var cfg parking.LocationConfig
	if err := json.Unmarshal([]byte(configRaw), &cfg); err != nil {
		// Corrupt payload is indistinguishable from no payload for callers.
		return nil, nil, fmt.Errorf("%w: decoding config: %w", ErrCacheMiss, err)
	}
	var meta parking.CacheMetadata
	if err := json.Unmarshal([]byte(metaRaw), &meta); err != nil {
		return nil, nil, fmt.Errorf("%w: decoding metadata: %w", ErrCacheMiss, err)
	}

	return &cfg, &meta, nil
}

// Save implements Store.
func (s *SQLiteStore) Save(ctx context.Context, cfg *parking.LocationConfig, meta parking.CacheMetadata) error {
	configRaw, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	metaRaw, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("encoding metadata: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning cache write: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // Rollback is no-op after commit

	const upsert = `INSERT INTO cache_entries (key, value, updated_at)
		VALUES (?, ?, strftime('%Y-%m-%dT%H:%M:%SZ', 'now'))
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`

	if _, err := tx.ExecContext(ctx, upsert, configKey(cfg.LocationID), string(configRaw)); err != nil {
		return fmt.Errorf("writing config entry: %w", err)
	}
	if _, err := tx.ExecContext(ctx, upsert, metaKey(cfg.LocationID), string(metaRaw)); err != nil {
		return fmt.Errorf("writing metadata entry: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing cache write: %w", err)
	}
	return nil
}

// Delete implements Store.
func (s *SQLiteStore) Delete(ctx context.Context, locationID string) error {
	_, err := s.db.ExecContext(ctx,
		"DELETE FROM cache_entries WHERE key IN (?, ?)",
		configKey(locationID), metaKey(locationID))
	if err != nil {
		return fmt.Errorf("deleting cache entry for %s: %w", locationID, err)
	}
	return nil
}

// Clear implements Store.
func (s *SQLiteStore) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM cache_entries"); err != nil {
		return fmt.Errorf("clearing cache: %w", err)
	}
	return nil
}

// get reads one cache record, mapping absence to ErrCacheMiss.
func (s *SQLiteStore) get(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx,
		"SELECT value FROM cache_entries WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrCacheMiss
	}
	if err != nil {
		return "", fmt.Errorf("reading cache entry %s: %w", key, err)
	}
	return value, nil
}
