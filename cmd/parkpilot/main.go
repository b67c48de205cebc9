// parkpilot-core - Parking Guidance Client Core
//
// This is the main entry point for the parkpilot client core. It wires
// together configuration resolution, the live occupancy channel, the
// guidance state tracker, and optional availability telemetry, then runs
// until interrupted.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/parkpilot/parkpilot-core/migrations"

	"github.com/parkpilot/parkpilot-core/internal/configcache"
	"github.com/parkpilot/parkpilot-core/internal/guidance"
	"github.com/parkpilot/parkpilot-core/internal/infrastructure/config"
	"github.com/parkpilot/parkpilot-core/internal/infrastructure/database"
	"github.com/parkpilot/parkpilot-core/internal/infrastructure/logging"
	"github.com/parkpilot/parkpilot-core/internal/occupancy"
	"github.com/parkpilot/parkpilot-core/internal/resolver"
	"github.com/parkpilot/parkpilot-core/internal/telemetry"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

func main() {
	// Cancel on interrupt signals (Ctrl+C, SIGTERM) for graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for
// testability. Returning an error allows main to handle exit codes
// consistently.
func run(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting parkpilot core",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	// Open the cache database
	db, err := database.Open(database.Config{
		Path:        cfg.Database.Path,
		WALMode:     cfg.Database.WALMode,
		BusyTimeout: cfg.Database.BusyTimeout,
	})
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		log.Info("closing database")
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()
	log.Info("database connected", "path", cfg.Database.Path)

	if migrateErr := db.Migrate(ctx); migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}
	log.Info("database migrations complete")

	// Configuration resolver: persisted cache + remote fetch + fallback
	store := configcache.NewSQLiteStore(db.DB)
	remote := resolver.NewHTTPClient(cfg.Remote.BaseURL, cfg.GetRemoteTimeout())
	res := resolver.New(store, remote)
	res.SetLogger(log)
	defer res.Close()

	location := res.Get(ctx, cfg.Location.DefaultID)
	log.Info("location config resolved",
		"location_id", location.LocationID,
		"version", location.Version,
		"floors", len(location.Floors),
	)

	// Guidance tracker on the configured initial floor
	tracker := guidance.NewTracker(location.LocationID)
	tracker.SetLogger(log)

	floor := location.Floor(cfg.Location.InitialFloor)
	if floor == nil {
		if len(location.Floors) == 0 {
			return fmt.Errorf("location %s has no floors", location.LocationID)
		}
		log.Warn("configured initial floor not found, using first floor",
			"wanted", cfg.Location.InitialFloor,
			"using", location.Floors[0].FloorNumber,
		)
		floor = &location.Floors[0]
	}
	tracker.SelectFloor(floor)

	// Availability telemetry (optional)
	if cfg.Telemetry.Enabled {
		telemetryClient, telemetryErr := telemetry.Connect(cfg.Telemetry)
		if telemetryErr != nil {
			// Telemetry is best-effort; the client core runs without it.
			log.Warn("telemetry unavailable", "error", telemetryErr)
		} else {
			defer func() {
				log.Info("closing telemetry connection")
				if closeErr := telemetryClient.Close(); closeErr != nil {
					log.Error("error closing telemetry", "error", closeErr)
				}
			}()
			telemetryClient.SetOnError(func(err error) {
				log.Error("telemetry write error", "error", err)
			})
			tracker.SetRecorder(telemetryClient)
			log.Info("telemetry connected",
				"url", cfg.Telemetry.URL,
				"org", cfg.Telemetry.Org,
				"bucket", cfg.Telemetry.Bucket,
			)
		}
	} else {
		log.Info("telemetry disabled")
	}

	// Occupancy channel over MQTT with supervised reconnection
	transport := occupancy.NewPahoTransport(cfg.MQTT)
	transport.SetLogger(log)
	prober := occupancy.NewTCPProber(cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port)
	channel := occupancy.NewChannel(transport, prober, location.LocationID, cfg.GetReconnectInterval())
	channel.SetLogger(log)
	defer channel.Disconnect()

	// Seed current occupancy on every established session, including the
	// supervisor's reconnects and the first connect after a broker that
	// was unreachable at startup comes up.
	channel.OnStatus(func(status occupancy.Status) {
		log.Info("occupancy channel status changed", "status", status)
		if status != occupancy.StatusConnected {
			return
		}
		if err := channel.ForceUpdate(ctx); err != nil {
			log.Warn("occupancy snapshot request failed", "error", err)
		}
	})
	tracker.Attach(channel)

	if err := channel.Connect(ctx); err != nil {
		return fmt.Errorf("connecting occupancy channel: %w", err)
	}
	log.Info("occupancy channel started",
		"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
		"status", channel.Status(),
	)

	log.Info("initialisation complete, waiting for shutdown signal")

	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")

	// Deferred calls run in reverse order:
	// 1. Occupancy channel
	// 2. Telemetry (if enabled)
	// 3. Resolver background refreshes
	// 4. Database

	log.Info("parkpilot core stopped")
	return nil
}

// getConfigPath returns the configuration file path.
// Uses PARKPILOT_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("PARKPILOT_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}
