package config

import (
	"log"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the overall application configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Ingest    IngestConfig    `yaml:"ingest"`
	LocalTime LocalTimeConfig `yaml:"local_time"`
	Database  DatabaseConfig  `yaml:"database"`
}

// ServerConfig holds the HTTP server-related configuration.
type ServerConfig struct {
	Port            int     `yaml:"port"`
	RateLimitPerSec float64 `yaml:"rate_limit_per_sec"`
	RateLimitBurst  int     `yaml:"rate_limit_burst"`
	CacheTTLSeconds int     `yaml:"cache_ttl_seconds"`
}

// IngestConfig holds the TCP telemetry listener configuration.
type IngestConfig struct {
	Port int `yaml:"port"`
	// Machines report every UploadFreqSeconds; DeviationSeconds is the
	// tolerated jitter on top of that. Their sum is the staleness
	// threshold before a run of samples is no longer trusted as
	// continuous operation.
	UploadFreqSeconds int `yaml:"upload_freq_seconds"`
	DeviationSeconds  int `yaml:"deviation_seconds"`
	// MaxLineBytes bounds how many bytes a connection may accumulate
	// without sending a newline. Exceeding it is a protocol violation.
	MaxLineBytes int `yaml:"max_line_bytes"`
}

// LocalTimeConfig fixes the local calendar offset used for day windows
// and HH:MM schedule interpretation.
type LocalTimeConfig struct {
	UTCOffsetMinutes int `yaml:"utc_offset_minutes"`
}

// DatabaseConfig holds the database connection configuration.
type DatabaseConfig struct {
	DSN                    string `yaml:"dsn"`
	MaxOpenConns           int    `yaml:"max_open_conns"`
	MaxIdleConns           int    `yaml:"max_idle_conns"`
	ConnMaxLifetimeMinutes int    `yaml:"conn_max_lifetime_minutes"`
}

// StalenessThreshold returns the maximum tolerated gap between
// consecutive readings of one machine.
func (c *IngestConfig) StalenessThreshold() time.Duration {
	return time.Duration(c.UploadFreqSeconds+c.DeviationSeconds) * time.Second
}

// Load reads the configuration from the given path.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cfg Config
	decoder := yaml.NewDecoder(f)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, err
	}

	if cfg.Server.Port <= 0 {
		cfg.Server.Port = 3000
	}
	if cfg.Server.RateLimitPerSec <= 0 {
		cfg.Server.RateLimitPerSec = 10
	}
	if cfg.Server.RateLimitBurst <= 0 {
		cfg.Server.RateLimitBurst = 5
	}
	if cfg.Server.CacheTTLSeconds <= 0 {
		cfg.Server.CacheTTLSeconds = 60
	}

	if cfg.Ingest.Port <= 0 {
		cfg.Ingest.Port = 5000
	}
	if cfg.Ingest.UploadFreqSeconds <= 0 {
		cfg.Ingest.UploadFreqSeconds = 5
	}
	if cfg.Ingest.DeviationSeconds <= 0 {
		cfg.Ingest.DeviationSeconds = 5
	}
	if cfg.Ingest.MaxLineBytes <= 0 {
		cfg.Ingest.MaxLineBytes = 64 * 1024
	}

	if cfg.LocalTime.UTCOffsetMinutes == 0 {
		log.Printf("local_time.utc_offset_minutes is not set; defaulting to UTC+5:30")
		cfg.LocalTime.UTCOffsetMinutes = 330
	}

	return &cfg, nil
}
