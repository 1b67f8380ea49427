// Package config loads and validates harvester configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	DB        DBConfig        `mapstructure:"db"`
	Harvest   HarvestConfig   `mapstructure:"harvest"`
	Vendor    VendorConfig    `mapstructure:"vendor"`
	Archive   ArchiveConfig   `mapstructure:"archive"`
	Events    EventsConfig    `mapstructure:"events"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	DataFiles DataFilesConfig `mapstructure:"data_files"`
}

// ServerConfig controls the read API server.
type ServerConfig struct {
	Port int `mapstructure:"port"`
}

// DBConfig controls access to Postgres.
type DBConfig struct {
	DSN string `mapstructure:"dsn"`
}

// HarvestConfig governs generation and the run loop.
type HarvestConfig struct {
	BatchSize       int    `mapstructure:"batch_size"`
	EmployeeRanges  string `mapstructure:"employee_ranges"`
	PaceMinSeconds  int    `mapstructure:"pace_min_seconds"`
	PaceMaxSeconds  int    `mapstructure:"pace_max_seconds"`
	StaleLeaseHours int    `mapstructure:"stale_lease_hours"`
}

// VendorConfig configures the vendor API client.
type VendorConfig struct {
	BaseURL           string  `mapstructure:"base_url"`
	TimeoutSeconds    int     `mapstructure:"timeout_seconds"`
	MaxRetries        int     `mapstructure:"max_retries"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	CookiesFile       string  `mapstructure:"cookies_file"`
	HeadersFile       string  `mapstructure:"headers_file"`
}

// ArchiveConfig selects where raw vendor payloads are kept.
type ArchiveConfig struct {
	// Provider is gcs, local, or noop.
	Provider  string `mapstructure:"provider"`
	GCSBucket string `mapstructure:"gcs_bucket"`
	Prefix    string `mapstructure:"prefix"`
	LocalDir  string `mapstructure:"local_dir"`
}

// EventsConfig selects the completion-event publisher.
type EventsConfig struct {
	// Provider is pubsub, memory, or none.
	Provider  string `mapstructure:"provider"`
	ProjectID string `mapstructure:"project_id"`
	TopicID   string `mapstructure:"topic_id"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// DataFilesConfig points at the enumeration inputs.
type DataFilesConfig struct {
	Locations  string `mapstructure:"locations"`
	Industries string `mapstructure:"industries"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("ORGHARVEST")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("harvest.batch_size", 5000)
	v.SetDefault("harvest.employee_ranges", "1-10, 10-20, 20-50, 50-100, 100-200")
	v.SetDefault("harvest.pace_min_seconds", 15)
	v.SetDefault("harvest.pace_max_seconds", 20)
	v.SetDefault("harvest.stale_lease_hours", 6)
	v.SetDefault("vendor.timeout_seconds", 30)
	v.SetDefault("vendor.max_retries", 2)
	v.SetDefault("vendor.requests_per_second", 0.5)
	v.SetDefault("vendor.cookies_file", "data/cookies.json")
	v.SetDefault("vendor.headers_file", "data/headers.json")
	v.SetDefault("archive.provider", "noop")
	v.SetDefault("archive.prefix", "payloads")
	v.SetDefault("archive.local_dir", "data/payloads")
	v.SetDefault("events.provider", "none")
	v.SetDefault("logging.development", true)
	v.SetDefault("data_files.locations", "data/all_cities.csv")
	v.SetDefault("data_files.industries", "data/industry_tags.json")
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	if c.Harvest.BatchSize <= 0 {
		return fmt.Errorf("harvest.batch_size must be > 0")
	}
	if c.Harvest.PaceMinSeconds < 0 || c.Harvest.PaceMaxSeconds < c.Harvest.PaceMinSeconds {
		return fmt.Errorf("harvest pacing window is invalid")
	}
	if c.Vendor.TimeoutSeconds <= 0 {
		return fmt.Errorf("vendor.timeout_seconds must be > 0")
	}
	switch c.Archive.Provider {
	case "gcs":
		if c.Archive.GCSBucket == "" {
			return fmt.Errorf("archive.gcs_bucket must be set when archive.provider is gcs")
		}
	case "local", "noop":
	default:
		return fmt.Errorf("unknown archive provider %q", c.Archive.Provider)
	}
	switch c.Events.Provider {
	case "pubsub":
		if c.Events.ProjectID == "" || c.Events.TopicID == "" {
			return fmt.Errorf("events.project_id and events.topic_id must be set when events.provider is pubsub")
		}
	case "memory", "none":
	default:
		return fmt.Errorf("unknown events provider %q", c.Events.Provider)
	}
	return nil
}

// PaceWindow converts the pacing seconds into durations.
func (c Config) PaceWindow() (time.Duration, time.Duration) {
	return time.Duration(c.Harvest.PaceMinSeconds) * time.Second,
		time.Duration(c.Harvest.PaceMaxSeconds) * time.Second
}

// StaleLease converts the stale-lease threshold into a duration.
func (c Config) StaleLease() time.Duration {
	return time.Duration(c.Harvest.StaleLeaseHours) * time.Hour
}

// VendorTimeout converts the vendor timeout into a duration.
func (c Config) VendorTimeout() time.Duration {
	return time.Duration(c.Vendor.TimeoutSeconds) * time.Second
}
