package resolver

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/parkpilot/parkpilot-core/internal/configcache"
	"github.com/parkpilot/parkpilot-core/internal/parking"
)

// Logger defines the logging interface used by the Resolver.
// This allows different logging implementations to be used.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// RemoteClient fetches location configs from the backend.
type RemoteClient interface {
	FetchConfig(ctx context.Context, locationID string) (*parking.LocationConfig, error)
}

// loadKey is the single-flight key for resolution. It is constant by
// contract: at most one outstanding load per process, keyed globally.
// A call received while a load is pending gets the pending load's result
// even if it requested a different location ID.
const loadKey = "config-load"

// Resolver resolves, caches and falls back location configurations.
//
// All public methods are thread-safe. Configs handed out are deep copies;
// callers can safely modify them.
type Resolver struct {
	store  configcache.Store
	remote RemoteClient
	logger Logger

	// memory holds resolved configs keyed by the requested location ID.
	memory map[string]*parking.LocationConfig
	mu     sync.RWMutex

	flight singleflight.Group

	// now is replaceable in tests for TTL checks.
	now func() time.Time

	// Background refresh lifecycle. Refreshes outlive the triggering call
	// but not the resolver itself.
	bgCtx    context.Context
	bgCancel context.CancelFunc
	bgWG     sync.WaitGroup
}

// New creates a Resolver over a persisted cache store and a remote client.
func New(store configcache.Store, remote RemoteClient) *Resolver {
	bgCtx, bgCancel := context.WithCancel(context.Background())
	return &Resolver{
		store:    store,
		remote:   remote,
		logger:   noopLogger{},
		memory:   make(map[string]*parking.LocationConfig),
		now:      time.Now,
		bgCtx:    bgCtx,
		bgCancel: bgCancel,
	}
}

// SetLogger sets the logger for the resolver.
func (r *Resolver) SetLogger(logger Logger) {
	r.logger = logger
}

// Get resolves the config for a location.
//
// Get never fails: when every layer of resolution is unavailable it
// returns the hardcoded fallback layout. The returned config is a deep
// copy.
func (r *Resolver) Get(ctx context.Context, locationID string) *parking.LocationConfig {
	r.mu.RLock()
	cached, ok := r.memory[locationID]
	r.mu.RUnlock()
	if ok {
		return cached.DeepCopy()
	}

	// Join or start the process-wide load. Errors never escape load.
	v, _, _ := r.flight.Do(loadKey, func() (any, error) {
		return r.load(ctx, locationID), nil
	})
	cfg, ok := v.(*parking.LocationConfig)
	if !ok || cfg == nil {
		// Unreachable unless load is broken, but Get must stay total.
		return parking.FallbackLocationConfig()
	}
	return cfg.DeepCopy()
}

// GetFloor resolves a location config and returns the floor with the given
// number. Returns parking.ErrFloorNotFound when no floor matches.
func (r *Resolver) GetFloor(ctx context.Context, locationID string, floorNumber int) (*parking.FloorConfig, error) {
	cfg := r.Get(ctx, locationID)
	floor := cfg.Floor(floorNumber)
	if floor == nil {
		return nil, fmt.Errorf("location %s floor %d: %w", locationID, floorNumber, parking.ErrFloorNotFound)
	}
	return floor, nil
}

// Refresh drops the in-memory and persisted entries for a location and
// re-resolves it, forcing resolution past the caches.
func (r *Resolver) Refresh(ctx context.Context, locationID string) *parking.LocationConfig {
	r.mu.Lock()
	delete(r.memory, locationID)
	r.mu.Unlock()

	if err := r.store.Delete(ctx, locationID); err != nil {
		// The cache is not a source of truth; a failed invalidation only
		// risks serving the stale persisted copy for one more cycle.
		r.logger.Warn("failed to invalidate persisted config", "location_id", locationID, "error", err)
	}

	return r.Get(ctx, locationID)
}

// ClearCache drops every in-memory and persisted entry.
func (r *Resolver) ClearCache(ctx context.Context) error {
	r.mu.Lock()
	r.memory = make(map[string]*parking.LocationConfig)
	r.mu.Unlock()

	if err := r.store.Clear(ctx); err != nil {
		return fmt.Errorf("clearing persisted config cache: %w", err)
	}
	return nil
}

// Close cancels any background cache refreshes and waits for them to
// finish. In-flight foreground loads are not cancelled; their results are
// still cached even if no caller remains interested.
func (r *Resolver) Close() {
	r.bgCancel()
	r.bgWG.Wait()
}

// load walks the persisted-cache, remote and fallback layers. It never
// fails; the fallback layout is the terminal case.
func (r *Resolver) load(ctx context.Context, locationID string) *parking.LocationConfig {
	// Persisted cache: both records present, location match, TTL holds.
	cfg, meta, err := r.store.Load(ctx, locationID)
	if err == nil && meta.Valid(locationID, r.now()) {
		r.logger.Debug("config served from persisted cache",
			"location_id", locationID, "version", cfg.Version)
		r.remember(locationID, cfg)
		r.refreshInBackground(locationID)
		return cfg
	}
	if err != nil && !errors.Is(err, configcache.ErrCacheMiss) {
		r.logger.Warn("persisted config read failed", "location_id", locationID, "error", err)
	}

	// Remote fetch.
	fetched, err := r.fetchValidated(ctx, locationID)
	if err == nil {
		r.persist(ctx, fetched)
		r.remember(locationID, fetched)
		return fetched
	}
	r.logger.Warn("config resolution failed; serving fallback layout",
		"location_id", locationID, "error", err)

	// Fallback: total, no I/O. Remembered so repeated lookups stay cheap;
	// Refresh clears it and retries the full chain.
	fallback := parking.FallbackLocationConfig()
	r.remember(locationID, fallback)
	return fallback
}

// fetchValidated fetches a config from the backend and checks it against
// the layout invariants. A malformed remote payload is a load failure, not
// grounds for serving a broken layout.
func (r *Resolver) fetchValidated(ctx context.Context, locationID string) (*parking.LocationConfig, error) {
	fetched, err := r.remote.FetchConfig(ctx, locationID)
	if err != nil {
		return nil, err
	}
	if err := parking.ValidateLocationConfig(fetched); err != nil {
		return nil, err
	}
	return fetched, nil
}

// persist writes a freshly fetched config to the persisted cache with new
// 24h metadata. Failures are logged, never surfaced: the cache is a pure
// cache.
func (r *Resolver) persist(ctx context.Context, cfg *parking.LocationConfig) {
	meta := parking.NewCacheMetadata(cfg.LocationID, cfg.Version, r.now())
	if err := r.store.Save(ctx, cfg, meta); err != nil {
		r.logger.Warn("failed to persist config", "location_id", cfg.LocationID, "error", err)
	}
}

// remember stores a config in the in-memory cache under the requested
// location ID.
func (r *Resolver) remember(locationID string, cfg *parking.LocationConfig) {
	r.mu.Lock()
	r.memory[locationID] = cfg.DeepCopy()
	r.mu.Unlock()
}

// refreshInBackground starts a fire-and-forget remote refresh after a
// persisted-cache hit. Its result silently replaces the persisted entry;
// it never touches the in-memory cache, so the value already returned to
// the caller is unaffected. Cancelled by Close.
func (r *Resolver) refreshInBackground(locationID string) {
	r.bgWG.Add(1)
	go func() {
		defer r.bgWG.Done()

		fetched, err := r.fetchValidated(r.bgCtx, locationID)
		if err != nil {
			r.logger.Debug("background config refresh failed", "location_id", locationID, "error", err)
			return
		}
		r.persist(r.bgCtx, fetched)
		r.logger.Debug("background config refresh complete",
			"location_id", locationID, "version", fetched.Version)
	}()
}
