// Package config defines the top-level configuration for the arbscope
// engine and provides validation helpers.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config is the root configuration structure. Fields are populated from a
// TOML file and then optionally overridden by ARBSCOPE_* environment
// variables.
type Config struct {
	Postgres PostgresConfig `toml:"postgres"`
	Redis    RedisConfig    `toml:"redis"`
	S3       S3Config       `toml:"s3"`
	Grouping GroupingConfig `toml:"grouping"`
	Analysis AnalysisConfig `toml:"analysis"`
	Alerts   AlertsConfig   `toml:"alerts"`
	Archive  ArchiveConfig  `toml:"archive"`
	Notify   NotifyConfig   `toml:"notify"`
	Mode     string         `toml:"mode"`
	LogLevel string         `toml:"log_level"`
}

// PostgresConfig holds PostgreSQL connection parameters.
type PostgresConfig struct {
	DSN           string `toml:"dsn"`
	Host          string `toml:"host"`
	Port          int    `toml:"port"`
	Database      string `toml:"database"`
	User          string `toml:"user"`
	Password      string `toml:"password"`
	SSLMode       string `toml:"ssl_mode"`
	PoolMaxConns  int    `toml:"pool_max_conns"`
	PoolMinConns  int    `toml:"pool_min_conns"`
	RunMigrations bool   `toml:"run_migrations"`
}

// RedisConfig holds Redis connection parameters.
type RedisConfig struct {
	Addr        string   `toml:"addr"`
	Password    string   `toml:"password"`
	DB          int      `toml:"db"`
	PoolSize    int      `toml:"pool_size"`
	MaxRetries  int      `toml:"max_retries"`
	TLSEnabled  bool     `toml:"tls_enabled"`
	SnapshotTTL duration `toml:"snapshot_ttl"`
}

// S3Config holds S3-compatible object storage parameters.
type S3Config struct {
	Endpoint       string `toml:"endpoint"`
	Region         string `toml:"region"`
	Bucket         string `toml:"bucket"`
	AccessKey      string `toml:"access_key"`
	SecretKey      string `toml:"secret_key"`
	UseSSL         bool   `toml:"use_ssl"`
	ForcePathStyle bool   `toml:"force_path_style"`
}

// GroupingConfig holds market-clustering parameters.
type GroupingConfig struct {
	Interval  duration `toml:"interval"`
	PoolLimit int      `toml:"pool_limit"`
	ShortK    int      `toml:"short_k"`
	NNLimit   int      `toml:"nn_limit"`
	MaxSeeds  int      `toml:"max_seeds"`
	LockTTL   duration `toml:"lock_ttl"`
}

// AnalysisConfig holds opportunity-scoring parameters.
type AnalysisConfig struct {
	Interval          duration `toml:"interval"`
	MaxClusters       int      `toml:"max_clusters"`
	EnableDutchBook   bool     `toml:"enable_dutch_book"`
	EnableMispricing  bool     `toml:"enable_mispricing"`
	MinEVAlertUSD     float64  `toml:"min_ev_alert_usd"`
	LockTTL           duration `toml:"lock_ttl"`
	SubscriberLimit   int      `toml:"subscriber_limit"`
	PublishOnDetected bool     `toml:"publish_on_detected"`
}

// AlertsConfig holds alert-delivery parameters.
type AlertsConfig struct {
	Interval    duration `toml:"interval"`
	BatchSize   int      `toml:"batch_size"`
	CooldownSec int      `toml:"cooldown_sec"`
	MinEVChange float64  `toml:"min_ev_change"`
}

// ArchiveConfig holds opportunity-archival parameters.
type ArchiveConfig struct {
	Enabled       bool     `toml:"enabled"`
	Interval      duration `toml:"interval"`
	RetentionDays int      `toml:"retention_days"`
}

// NotifyConfig holds notification channel credentials.
type NotifyConfig struct {
	TelegramToken     string   `toml:"telegram_token"`
	TelegramChatID    string   `toml:"telegram_chat_id"`
	DiscordWebhookURL string   `toml:"discord_webhook_url"`
	Types             []string `toml:"types"`
}

// duration wraps time.Duration so TOML can decode strings like "5m" or
// "30s".
type duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler for the TOML decoder.
func (d *duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText implements encoding.TextMarshaler for round-trip encoding.
func (d duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Defaults returns a Config populated with reasonable default values.
// These match the values in config.example.toml.
func Defaults() Config {
	return Config{
		Postgres: PostgresConfig{
			Host:          "localhost",
			Port:          5432,
			Database:      "arbscope",
			User:          "postgres",
			SSLMode:       "disable",
			PoolMaxConns:  10,
			PoolMinConns:  2,
			RunMigrations: true,
		},
		Redis: RedisConfig{
			Addr:        "localhost:6379",
			DB:          0,
			PoolSize:    20,
			MaxRetries:  3,
			TLSEnabled:  false,
			SnapshotTTL: duration{5 * time.Minute},
		},
		S3: S3Config{
			Endpoint:       "http://localhost:9000",
			Region:         "us-east-1",
			Bucket:         "arbscope-data",
			UseSSL:         false,
			ForcePathStyle: true,
		},
		Grouping: GroupingConfig{
			Interval:  duration{10 * time.Minute},
			PoolLimit: 1000,
			ShortK:    120,
			NNLimit:   100,
			MaxSeeds:  200,
			LockTTL:   duration{5 * time.Minute},
		},
		Analysis: AnalysisConfig{
			Interval:          duration{1 * time.Minute},
			MaxClusters:       100,
			EnableDutchBook:   true,
			EnableMispricing:  true,
			MinEVAlertUSD:     5.0,
			LockTTL:           duration{2 * time.Minute},
			SubscriberLimit:   500,
			PublishOnDetected: true,
		},
		Alerts: AlertsConfig{
			Interval:    duration{30 * time.Second},
			BatchSize:   100,
			CooldownSec: 300,
			MinEVChange: 1.0,
		},
		Archive: ArchiveConfig{
			Enabled:       false,
			Interval:      duration{24 * time.Hour},
			RetentionDays: 90,
		},
		Notify: NotifyConfig{
			Types: []string{"dutch_book", "cross_mispricing"},
		},
		Mode:     "full",
		LogLevel: "info",
	}
}

// validModes enumerates the accepted values for Config.Mode.
var validModes = map[string]bool{
	"group":   true,
	"analyze": true,
	"alerts":  true,
	"archive": true,
	"full":    true,
}

// validLogLevels enumerates the accepted values for Config.LogLevel.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Validate checks Config for obviously invalid or missing values and
// returns a combined error describing every problem found.
func (c *Config) Validate() error {
	var errs []string

	if !validModes[strings.ToLower(c.Mode)] {
		errs = append(errs, fmt.Sprintf("unknown mode %q (valid: group, analyze, alerts, archive, full)", c.Mode))
	}

	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Sprintf("unknown log_level %q (valid: debug, info, warn, error)", c.LogLevel))
	}

	// Postgres
	if strings.TrimSpace(c.Postgres.DSN) == "" {
		if c.Postgres.Host == "" {
			errs = append(errs, "postgres: host must not be empty (or set postgres.dsn)")
		}
		if c.Postgres.Port <= 0 || c.Postgres.Port > 65535 {
			errs = append(errs, fmt.Sprintf("postgres: port must be 1-65535, got %d", c.Postgres.Port))
		}
		if c.Postgres.Database == "" {
			errs = append(errs, "postgres: database must not be empty")
		}
	}
	if c.Postgres.PoolMaxConns < 1 {
		errs = append(errs, "postgres: pool_max_conns must be >= 1")
	}
	if c.Postgres.PoolMinConns < 0 {
		errs = append(errs, "postgres: pool_min_conns must be >= 0")
	}
	if c.Postgres.PoolMinConns > c.Postgres.PoolMaxConns {
		errs = append(errs, "postgres: pool_min_conns must not exceed pool_max_conns")
	}

	// Redis
	if c.Redis.Addr == "" {
		errs = append(errs, "redis: addr must not be empty")
	}
	if c.Redis.PoolSize < 1 {
		errs = append(errs, "redis: pool_size must be >= 1")
	}

	// S3 is only required when archival is enabled.
	if c.Archive.Enabled || c.Mode == "archive" {
		if c.S3.Endpoint == "" {
			errs = append(errs, "s3: endpoint must not be empty when archival is enabled")
		}
		if c.S3.Bucket == "" {
			errs = append(errs, "s3: bucket must not be empty when archival is enabled")
		}
		if c.Archive.RetentionDays < 1 {
			errs = append(errs, "archive: retention_days must be >= 1")
		}
	}

	// Grouping
	if c.Grouping.PoolLimit < 1 {
		errs = append(errs, "grouping: pool_limit must be >= 1")
	}
	if c.Grouping.ShortK < 1 {
		errs = append(errs, "grouping: short_k must be >= 1")
	}
	if c.Grouping.NNLimit < 1 {
		errs = append(errs, "grouping: nn_limit must be >= 1")
	}
	if c.Grouping.MaxSeeds < 1 {
		errs = append(errs, "grouping: max_seeds must be >= 1")
	}
	if c.Grouping.Interval.Duration <= 0 {
		errs = append(errs, "grouping: interval must be > 0")
	}

	// Analysis
	if c.Analysis.MaxClusters < 1 {
		errs = append(errs, "analysis: max_clusters must be >= 1")
	}
	if c.Analysis.MinEVAlertUSD < 0 {
		errs = append(errs, "analysis: min_ev_alert_usd must be >= 0")
	}
	if c.Analysis.Interval.Duration <= 0 {
		errs = append(errs, "analysis: interval must be > 0")
	}

	// Alerts
	if c.Alerts.BatchSize < 1 {
		errs = append(errs, "alerts: batch_size must be >= 1")
	}
	if c.Alerts.CooldownSec < 0 {
		errs = append(errs, "alerts: cooldown_sec must be >= 0")
	}
	if c.Alerts.MinEVChange < 0 {
		errs = append(errs, "alerts: min_ev_change must be >= 0")
	}

	// Notify is required when the alert loop can run.
	if c.Mode == "alerts" || c.Mode == "full" {
		if c.Notify.TelegramToken == "" {
			errs = append(errs, "notify: telegram_token is required for mode "+c.Mode)
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
