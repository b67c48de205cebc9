package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for ParkPilot Core.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Location  LocationConfig  `yaml:"location"`
	Remote    RemoteConfig    `yaml:"remote"`
	Database  DatabaseConfig  `yaml:"database"`
	MQTT      MQTTConfig      `yaml:"mqtt"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// LocationConfig identifies the parking location this instance serves.
type LocationConfig struct {
	// DefaultID is the location resolved at startup and used as the
	// fallback location when resolution fails entirely.
	DefaultID string `yaml:"default_id"`

	// InitialFloor is the floor selected when the application starts.
	InitialFloor int `yaml:"initial_floor"`
}

// RemoteConfig contains the parking-config backend settings.
type RemoteConfig struct {
	// BaseURL is the backend base; configs are fetched from
	// {base}/public/parking-config/{locationId}.
	BaseURL string `yaml:"base_url"`

	// Timeout is the per-request timeout in seconds.
	Timeout int `yaml:"timeout"`
}

// DatabaseConfig contains SQLite settings for the persisted config cache.
type DatabaseConfig struct {
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`
}

// MQTTConfig contains broker settings for the occupancy feed.
type MQTTConfig struct {
	Broker    MQTTBrokerConfig    `yaml:"broker"`
	Auth      MQTTAuthConfig      `yaml:"auth"`
	QoS       int                 `yaml:"qos"`
	Reconnect MQTTReconnectConfig `yaml:"reconnect"`
}

// MQTTBrokerConfig contains broker connection details.
type MQTTBrokerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	TLS      bool   `yaml:"tls"`
	ClientID string `yaml:"client_id"`
}

// MQTTAuthConfig contains broker authentication credentials.
type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// MQTTReconnectConfig contains reconnection supervisor settings.
type MQTTReconnectConfig struct {
	// Interval is the fixed delay, in seconds, between reachability checks
	// while the channel is reconnecting.
	Interval int `yaml:"interval"`
}

// TelemetryConfig contains InfluxDB settings for availability telemetry.
type TelemetryConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: PARKPILOT_SECTION_KEY
// For example: PARKPILOT_DATABASE_PATH, PARKPILOT_MQTT_HOST
//
// Parameters:
//   - path: Path to the YAML configuration file
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: If file cannot be read, parsed, or validation fails
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		Location: LocationConfig{
			DefaultID:    "riverside-plaza",
			InitialFloor: 1,
		},
		Remote: RemoteConfig{
			BaseURL: "http://localhost:3000",
			Timeout: 10,
		},
		Database: DatabaseConfig{
			Path:        "./data/parkpilot.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "parkpilot-core",
			},
			QoS: 1,
			Reconnect: MQTTReconnectConfig{
				Interval: 5,
			},
		},
		Telemetry: TelemetryConfig{
			Enabled:       false,
			BatchSize:     100,
			FlushInterval: 10,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: PARKPILOT_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("PARKPILOT_LOCATION_ID"); v != "" {
		cfg.Location.DefaultID = v
	}
	if v := os.Getenv("PARKPILOT_REMOTE_BASE_URL"); v != "" {
		cfg.Remote.BaseURL = v
	}
	if v := os.Getenv("PARKPILOT_DATABASE_PATH"); v != "" {
		cfg.Database.Path = v
	}
	if v := os.Getenv("PARKPILOT_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("PARKPILOT_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("PARKPILOT_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}
	if v := os.Getenv("PARKPILOT_TELEMETRY_TOKEN"); v != "" {
		cfg.Telemetry.Token = v
	}
}

// Validate checks the configuration for errors.
//
// Returns:
//   - error: Description of validation failure, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	if c.Location.DefaultID == "" {
		errs = append(errs, "location.default_id is required")
	}

	if c.Remote.BaseURL == "" {
		errs = append(errs, "remote.base_url is required")
	}
	if c.Remote.Timeout <= 0 {
		errs = append(errs, "remote.timeout must be positive")
	}

	if c.Database.Path == "" {
		errs = append(errs, "database.path is required")
	}

	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}
	if c.MQTT.Reconnect.Interval <= 0 {
		errs = append(errs, "mqtt.reconnect.interval must be positive")
	}

	if c.Telemetry.Enabled && c.Telemetry.URL == "" {
		errs = append(errs, "telemetry.url is required when telemetry is enabled")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// GetRemoteTimeout returns the remote fetch timeout as a Duration.
func (c *Config) GetRemoteTimeout() time.Duration {
	return time.Duration(c.Remote.Timeout) * time.Second
}

// GetReconnectInterval returns the reconnect supervisor interval as a Duration.
func (c *Config) GetReconnectInterval() time.Duration {
	return time.Duration(c.MQTT.Reconnect.Interval) * time.Second
}
