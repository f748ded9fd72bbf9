package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies ARBSCOPE_* environment variable overrides,
// and returns the final Config. The returned Config has NOT been
// validated; the caller should invoke Config.Validate() after Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, err
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known ARBSCOPE_* environment variables and
// overwrites the corresponding Config fields when a variable is set. This
// lets operators inject secrets at deploy time without touching the TOML
// file.
func applyEnvOverrides(cfg *Config) {
	// ── Postgres ──
	setStr(&cfg.Postgres.DSN, "ARBSCOPE_POSTGRES_DSN")
	setStr(&cfg.Postgres.Host, "ARBSCOPE_POSTGRES_HOST")
	setInt(&cfg.Postgres.Port, "ARBSCOPE_POSTGRES_PORT")
	setStr(&cfg.Postgres.Database, "ARBSCOPE_POSTGRES_DATABASE")
	setStr(&cfg.Postgres.User, "ARBSCOPE_POSTGRES_USER")
	setStr(&cfg.Postgres.Password, "ARBSCOPE_POSTGRES_PASSWORD")
	setStr(&cfg.Postgres.SSLMode, "ARBSCOPE_POSTGRES_SSLMODE")
	setInt(&cfg.Postgres.PoolMaxConns, "ARBSCOPE_POSTGRES_POOL_MAX_CONNS")
	setInt(&cfg.Postgres.PoolMinConns, "ARBSCOPE_POSTGRES_POOL_MIN_CONNS")
	setBool(&cfg.Postgres.RunMigrations, "ARBSCOPE_POSTGRES_RUN_MIGRATIONS")

	// ── Redis ──
	setStr(&cfg.Redis.Addr, "ARBSCOPE_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "ARBSCOPE_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "ARBSCOPE_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "ARBSCOPE_REDIS_POOL_SIZE")
	setInt(&cfg.Redis.MaxRetries, "ARBSCOPE_REDIS_MAX_RETRIES")
	setBool(&cfg.Redis.TLSEnabled, "ARBSCOPE_REDIS_TLS_ENABLED")
	setDuration(&cfg.Redis.SnapshotTTL, "ARBSCOPE_REDIS_SNAPSHOT_TTL")

	// ── S3 ──
	setStr(&cfg.S3.Endpoint, "ARBSCOPE_S3_ENDPOINT")
	setStr(&cfg.S3.Region, "ARBSCOPE_S3_REGION")
	setStr(&cfg.S3.Bucket, "ARBSCOPE_S3_BUCKET")
	setStr(&cfg.S3.AccessKey, "ARBSCOPE_S3_ACCESS_KEY")
	setStr(&cfg.S3.SecretKey, "ARBSCOPE_S3_SECRET_KEY")
	setBool(&cfg.S3.UseSSL, "ARBSCOPE_S3_USE_SSL")
	setBool(&cfg.S3.ForcePathStyle, "ARBSCOPE_S3_FORCE_PATH_STYLE")

	// ── Grouping ──
	setDuration(&cfg.Grouping.Interval, "ARBSCOPE_GROUPING_INTERVAL")
	setInt(&cfg.Grouping.PoolLimit, "ARBSCOPE_GROUPING_POOL_LIMIT")
	setInt(&cfg.Grouping.ShortK, "ARBSCOPE_GROUPING_SHORT_K")
	setInt(&cfg.Grouping.NNLimit, "ARBSCOPE_GROUPING_NN_LIMIT")
	setInt(&cfg.Grouping.MaxSeeds, "ARBSCOPE_GROUPING_MAX_SEEDS")
	setDuration(&cfg.Grouping.LockTTL, "ARBSCOPE_GROUPING_LOCK_TTL")

	// ── Analysis ──
	setDuration(&cfg.Analysis.Interval, "ARBSCOPE_ANALYSIS_INTERVAL")
	setInt(&cfg.Analysis.MaxClusters, "ARBSCOPE_ANALYSIS_MAX_CLUSTERS")
	setBool(&cfg.Analysis.EnableDutchBook, "ARBSCOPE_ANALYSIS_ENABLE_DUTCH_BOOK")
	setBool(&cfg.Analysis.EnableMispricing, "ARBSCOPE_ANALYSIS_ENABLE_MISPRICING")
	setFloat64(&cfg.Analysis.MinEVAlertUSD, "ARBSCOPE_ANALYSIS_MIN_EV_ALERT_USD")
	setDuration(&cfg.Analysis.LockTTL, "ARBSCOPE_ANALYSIS_LOCK_TTL")
	setInt(&cfg.Analysis.SubscriberLimit, "ARBSCOPE_ANALYSIS_SUBSCRIBER_LIMIT")
	setBool(&cfg.Analysis.PublishOnDetected, "ARBSCOPE_ANALYSIS_PUBLISH_ON_DETECTED")

	// ── Alerts ──
	setDuration(&cfg.Alerts.Interval, "ARBSCOPE_ALERTS_INTERVAL")
	setInt(&cfg.Alerts.BatchSize, "ARBSCOPE_ALERTS_BATCH_SIZE")
	setInt(&cfg.Alerts.CooldownSec, "ARBSCOPE_ALERTS_COOLDOWN_SEC")
	setFloat64(&cfg.Alerts.MinEVChange, "ARBSCOPE_ALERTS_MIN_EV_CHANGE")

	// ── Archive ──
	setBool(&cfg.Archive.Enabled, "ARBSCOPE_ARCHIVE_ENABLED")
	setDuration(&cfg.Archive.Interval, "ARBSCOPE_ARCHIVE_INTERVAL")
	setInt(&cfg.Archive.RetentionDays, "ARBSCOPE_ARCHIVE_RETENTION_DAYS")

	// ── Notify ──
	setStr(&cfg.Notify.TelegramToken, "ARBSCOPE_NOTIFY_TELEGRAM_TOKEN")
	setStr(&cfg.Notify.TelegramChatID, "ARBSCOPE_NOTIFY_TELEGRAM_CHAT_ID")
	setStr(&cfg.Notify.DiscordWebhookURL, "ARBSCOPE_NOTIFY_DISCORD_WEBHOOK_URL")
	setStringSlice(&cfg.Notify.Types, "ARBSCOPE_NOTIFY_TYPES")

	// ── Top-level ──
	setStr(&cfg.Mode, "ARBSCOPE_MODE")
	setStr(&cfg.LogLevel, "ARBSCOPE_LOG_LEVEL")
}

// ---------------------------------------------------------------------------
// Typed env-var helpers. Each only mutates the target when the environment
// variable is present and non-empty.
// ---------------------------------------------------------------------------

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setFloat64(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			dst.Duration = d
		}
	}
}

func setStringSlice(dst *[]string, key string) {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		cleaned := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				cleaned = append(cleaned, p)
			}
		}
		if len(cleaned) > 0 {
			*dst = cleaned
		}
	}
}
