package app

import (
	"context"
	"fmt"
	"log/slog"

	s3blob "github.com/quantfold/arbscope/internal/blob/s3"
	"github.com/quantfold/arbscope/internal/cache/redis"
	"github.com/quantfold/arbscope/internal/config"
	"github.com/quantfold/arbscope/internal/domain"
	"github.com/quantfold/arbscope/internal/notify"
	"github.com/quantfold/arbscope/internal/store/postgres"
)

// Dependencies bundles every domain-level dependency the application modes
// need. It is constructed by Wire and torn down by the returned cleanup
// function.
type Dependencies struct {
	// Stores
	MarketStore      domain.MarketStore
	SnapshotStore    domain.SnapshotStore
	GroupStore       domain.GroupStore
	OverrideStore    domain.OverrideStore
	OpportunityStore domain.OpportunityStore
	FeeStore         domain.FeeStore
	EmbeddingStore   domain.EmbeddingStore
	AlertStore       domain.AlertStore
	UserStore        domain.UserStore

	// Caches
	SnapshotCache domain.SnapshotCache
	LockManager   domain.LockManager
	SignalBus     domain.SignalBus

	// Blob storage
	Archiver domain.Archiver

	// Notifications
	Notifier   *notify.Notifier
	UserSender notify.UserSender
}

// needsS3 returns true for modes that require object storage.
func needsS3(cfg *config.Config) bool {
	return cfg.Mode == "archive" || (cfg.Mode == "full" && cfg.Archive.Enabled)
}

// Wire constructs all concrete dependency implementations from the given
// configuration and returns them together with a cleanup function that
// should be called on shutdown to release resources.
func Wire(ctx context.Context, cfg *config.Config) (*Dependencies, func(), error) {
	logger := slog.Default()

	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	deps := &Dependencies{}

	// --- PostgreSQL ---
	pgClient, err := postgres.New(ctx, postgres.ClientConfig{
		DSN:      cfg.Postgres.DSN,
		Host:     cfg.Postgres.Host,
		Port:     cfg.Postgres.Port,
		Database: cfg.Postgres.Database,
		User:     cfg.Postgres.User,
		Password: cfg.Postgres.Password,
		SSLMode:  cfg.Postgres.SSLMode,
		MaxConns: cfg.Postgres.PoolMaxConns,
		MinConns: cfg.Postgres.PoolMinConns,
	})
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("wire: postgres: %w", err)
	}
	closers = append(closers, pgClient.Close)

	if cfg.Postgres.RunMigrations {
		if err := pgClient.RunMigrations(ctx); err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: postgres migrations: %w", err)
		}
	}

	pool := pgClient.Pool()
	deps.MarketStore = postgres.NewMarketStore(pool)
	deps.SnapshotStore = postgres.NewSnapshotStore(pool)
	deps.GroupStore = postgres.NewGroupStore(pool)
	deps.OverrideStore = postgres.NewOverrideStore(pool)
	deps.OpportunityStore = postgres.NewOpportunityStore(pool)
	deps.FeeStore = postgres.NewFeeStore(pool)
	deps.EmbeddingStore = postgres.NewEmbeddingStore(pool)
	deps.AlertStore = postgres.NewAlertStore(pool)
	deps.UserStore = postgres.NewUserStore(pool)

	// --- Redis ---
	redisClient, err := redis.New(ctx, redis.ClientConfig{
		Addr:       cfg.Redis.Addr,
		Password:   cfg.Redis.Password,
		DB:         cfg.Redis.DB,
		PoolSize:   cfg.Redis.PoolSize,
		MaxRetries: cfg.Redis.MaxRetries,
		TLSEnabled: cfg.Redis.TLSEnabled,
	})
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("wire: redis: %w", err)
	}
	closers = append(closers, func() { _ = redisClient.Close() })

	deps.SnapshotCache = redis.NewSnapshotCache(redisClient, cfg.Redis.SnapshotTTL.Duration)
	deps.LockManager = redis.NewLockManager(redisClient)
	deps.SignalBus = redis.NewSignalBus(redisClient)

	// --- S3 blob storage (only for modes that archive) ---
	if needsS3(cfg) {
		s3Client, err := s3blob.New(ctx, s3blob.ClientConfig{
			Endpoint:       cfg.S3.Endpoint,
			Region:         cfg.S3.Region,
			Bucket:         cfg.S3.Bucket,
			AccessKey:      cfg.S3.AccessKey,
			SecretKey:      cfg.S3.SecretKey,
			UseSSL:         cfg.S3.UseSSL,
			ForcePathStyle: cfg.S3.ForcePathStyle,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: s3: %w", err)
		}
		closers = append(closers, func() { _ = s3Client.Close() })

		bucket := s3blob.NewBucket(s3Client)
		deps.Archiver = s3blob.NewArchiver(bucket, bucket, deps.OpportunityStore, logger)
	}

	// --- Notifications ---
	var senders []notify.Sender
	if cfg.Notify.TelegramToken != "" {
		tg := notify.NewTelegramSender(cfg.Notify.TelegramToken, cfg.Notify.TelegramChatID)
		deps.UserSender = tg
		if cfg.Notify.TelegramChatID != "" {
			senders = append(senders, tg)
		}
	}
	if cfg.Notify.DiscordWebhookURL != "" {
		senders = append(senders, notify.NewDiscordSender(cfg.Notify.DiscordWebhookURL))
	}
	deps.Notifier = notify.NewNotifier(senders, cfg.Notify.Types, logger)

	return deps, cleanup, nil
}
