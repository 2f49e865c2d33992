package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for eclipseq.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Site      SiteConfig      `yaml:"site"`
	Database  DatabaseConfig  `yaml:"database"`
	Camera    CameraConfig    `yaml:"camera"`
	Sequencer SequencerConfig `yaml:"sequencer"`
	MQTT      MQTTConfig      `yaml:"mqtt"`
	Monitor   MonitorConfig   `yaml:"monitor"`
	WebSocket WebSocketConfig `yaml:"websocket"`
	InfluxDB  InfluxDBConfig  `yaml:"influxdb"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// SiteConfig describes the observation site, for run records and logs.
type SiteConfig struct {
	Name     string         `yaml:"name"`
	Timezone string         `yaml:"timezone"`
	Location LocationConfig `yaml:"location"`
}

// LocationConfig contains the geographic coordinates the circumstances
// table was computed for.
type LocationConfig struct {
	Latitude  float64 `yaml:"latitude"`
	Longitude float64 `yaml:"longitude"`
}

// DatabaseConfig contains SQLite run-history database settings.
type DatabaseConfig struct {
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`
}

// CameraConfig selects and configures the capture driver.
type CameraConfig struct {
	// Driver is "gphoto2" or "null" (dry run).
	Driver string `yaml:"driver"`

	// Binary is the path to the gphoto2 executable.
	Binary string `yaml:"binary"`

	// Model and Port narrow camera selection when several bodies are
	// attached. Both optional.
	Model string `yaml:"model,omitempty"`
	Port  string `yaml:"port,omitempty"`

	// Player is the sound player binary for PLAY commands ("" disables
	// playback).
	Player string `yaml:"player"`
}

// SequencerConfig contains execution settings.
type SequencerConfig struct {
	// LateToleranceMS is how many milliseconds behind schedule a
	// dispatch may run before it is counted late.
	LateToleranceMS int `yaml:"late_tolerance_ms"`
}

// MQTTConfig contains MQTT broker connection settings for progress
// publishing. Disabled unless a broker host is configured.
type MQTTConfig struct {
	Enabled   bool                `yaml:"enabled"`
	Broker    MQTTBrokerConfig    `yaml:"broker"`
	Auth      MQTTAuthConfig      `yaml:"auth"`
	QoS       int                 `yaml:"qos"`
	Reconnect MQTTReconnectConfig `yaml:"reconnect"`
}

// MQTTBrokerConfig contains MQTT broker connection details.
type MQTTBrokerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	TLS      bool   `yaml:"tls"`
	ClientID string `yaml:"client_id"`
}

// MQTTAuthConfig contains MQTT authentication credentials.
type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// MQTTReconnectConfig contains MQTT reconnection settings.
type MQTTReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
	MaxAttempts  int `yaml:"max_attempts"`
}

// MonitorConfig contains the progress monitor HTTP server settings.
type MonitorConfig struct {
	Enabled  bool                 `yaml:"enabled"`
	Host     string               `yaml:"host"`
	Port     int                  `yaml:"port"`
	Timeouts MonitorTimeoutConfig `yaml:"timeouts"`
}

// MonitorTimeoutConfig contains HTTP timeout settings in seconds.
type MonitorTimeoutConfig struct {
	Read  int `yaml:"read"`
	Write int `yaml:"write"`
	Idle  int `yaml:"idle"`
}

// WebSocketConfig contains WebSocket progress feed settings.
type WebSocketConfig struct {
	Path           string `yaml:"path"`
	MaxMessageSize int    `yaml:"max_message_size"`
	PingInterval   int    `yaml:"ping_interval"`
	PongTimeout    int    `yaml:"pong_timeout"`
}

// InfluxDBConfig contains InfluxDB connection settings for dispatch
// latency recording.
type InfluxDBConfig struct {
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
// Environment variables follow the pattern: ECLIPSEQ_SECTION_KEY
// For example: ECLIPSEQ_DATABASE_PATH, ECLIPSEQ_MQTT_HOST
//
// Parameters:
//   - path: Path to the YAML configuration file
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: If file cannot be read, parsed, or validation fails
func Load(path string) (*Config, error) {
	cfg := Default()

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

// Default returns a Config with sensible defaults. A run works with no
// config file at all: null camera aside, everything optional is off.
func Default() *Config {
	return &Config{
		Site: SiteConfig{
			Timezone: "UTC",
		},
		Database: DatabaseConfig{
			Path:        "./data/eclipseq.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
		Camera: CameraConfig{
			Driver: "gphoto2",
			Binary: "gphoto2",
			Player: "aplay",
		},
		Sequencer: SequencerConfig{
			LateToleranceMS: 500,
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "eclipseq",
			},
			QoS: 0,
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
				MaxAttempts:  0,
			},
		},
		Monitor: MonitorConfig{
			Host: "0.0.0.0",
			Port: 8080,
			Timeouts: MonitorTimeoutConfig{
				Read:  30,
				Write: 30,
				Idle:  60,
			},
		},
		WebSocket: WebSocketConfig{
			Path:           "/ws",
			MaxMessageSize: 8192,
			PingInterval:   30,
			PongTimeout:    10,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stderr",
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: ECLIPSEQ_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	// Database
	if v := os.Getenv("ECLIPSEQ_DATABASE_PATH"); v != "" {
		cfg.Database.Path = v
	}

	// Camera
	if v := os.Getenv("ECLIPSEQ_CAMERA_DRIVER"); v != "" {
		cfg.Camera.Driver = v
	}
	if v := os.Getenv("ECLIPSEQ_CAMERA_PORT"); v != "" {
		cfg.Camera.Port = v
	}

	// MQTT
	if v := os.Getenv("ECLIPSEQ_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("ECLIPSEQ_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("ECLIPSEQ_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}

	// Monitor
	if v := os.Getenv("ECLIPSEQ_MONITOR_HOST"); v != "" {
		cfg.Monitor.Host = v
	}

	// InfluxDB
	if v := os.Getenv("ECLIPSEQ_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}
}

// Validate checks the configuration for errors.
//
// Returns:
//   - error: Description of validation failure, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	if c.Database.Path == "" {
		errs = append(errs, "database.path is required")
	}

	switch c.Camera.Driver {
	case "gphoto2", "null":
	default:
		errs = append(errs, "camera.driver must be \"gphoto2\" or \"null\"")
	}

	if c.Sequencer.LateToleranceMS < 0 {
		errs = append(errs, "sequencer.late_tolerance_ms must not be negative")
	}

	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}

	if c.Monitor.Enabled && (c.Monitor.Port < 1 || c.Monitor.Port > 65535) {
		errs = append(errs, "monitor.port must be between 1 and 65535")
	}

	if c.InfluxDB.Enabled {
		if c.InfluxDB.URL == "" {
			errs = append(errs, "influxdb.url is required when influxdb is enabled")
		}
		if c.InfluxDB.Token == "" {
			errs = append(errs, "influxdb.token is required when influxdb is enabled (set ECLIPSEQ_INFLUXDB_TOKEN)")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// LateTolerance returns the sequencer late tolerance as a Duration.
func (c *Config) LateTolerance() time.Duration {
	return time.Duration(c.Sequencer.LateToleranceMS) * time.Millisecond
}

// GetReadTimeout returns the monitor read timeout as a Duration.
func (c *Config) GetReadTimeout() time.Duration {
	return time.Duration(c.Monitor.Timeouts.Read) * time.Second
}

// GetWriteTimeout returns the monitor write timeout as a Duration.
func (c *Config) GetWriteTimeout() time.Duration {
	return time.Duration(c.Monitor.Timeouts.Write) * time.Second
}

// GetIdleTimeout returns the monitor idle timeout as a Duration.
func (c *Config) GetIdleTimeout() time.Duration {
	return time.Duration(c.Monitor.Timeouts.Idle) * time.Second
}
