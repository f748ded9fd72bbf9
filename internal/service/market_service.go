package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/quantfold/arbscope/internal/domain"
)

// MarketService handles the write side of ingestion: market listings,
// append-only snapshots and embedding vectors.
type MarketService struct {
	markets    domain.MarketStore
	snapshots  domain.SnapshotStore
	cache      domain.SnapshotCache
	embeddings domain.EmbeddingStore
	logger     *slog.Logger
}

// NewMarketService creates a MarketService. cache may be nil.
func NewMarketService(
	markets domain.MarketStore,
	snapshots domain.SnapshotStore,
	cache domain.SnapshotCache,
	embeddings domain.EmbeddingStore,
	logger *slog.Logger,
) *MarketService {
	return &MarketService{
		markets:    markets,
		snapshots:  snapshots,
		cache:      cache,
		embeddings: embeddings,
		logger:     logger.With(slog.String("component", "market_service")),
	}
}

// UpsertMarket inserts or refreshes a market listing keyed by
// (platform, event_id) and returns the row ID.
func (s *MarketService) UpsertMarket(ctx context.Context, m domain.Market) (string, error) {
	id, err := s.markets.Upsert(ctx, m)
	if err != nil {
		return "", fmt.Errorf("market_service: upsert market %s/%s: %w", m.Platform, m.EventID, err)
	}
	return id, nil
}

// RecordSnapshot appends a snapshot and refreshes the latest-snapshot
// cache. A cache failure is logged, not returned: the store row is the
// source of truth.
func (s *MarketService) RecordSnapshot(ctx context.Context, snap domain.Snapshot) error {
	if err := s.snapshots.Insert(ctx, snap); err != nil {
		return fmt.Errorf("market_service: insert snapshot %s: %w", snap.MarketID, err)
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, snap); err != nil {
			s.logger.WarnContext(ctx, "snapshot cache refresh failed",
				slog.String("market_id", snap.MarketID),
				slog.String("error", err.Error()),
			)
		}
	}
	return nil
}

// UpsertEmbedding stores or replaces a market's embedding vector. Markets
// without a vector cluster as singletons until one lands here.
func (s *MarketService) UpsertEmbedding(ctx context.Context, marketID string, vector []float32) error {
	if len(vector) == 0 {
		return fmt.Errorf("market_service: empty embedding for %s", marketID)
	}
	if err := s.embeddings.Upsert(ctx, marketID, vector); err != nil {
		return fmt.Errorf("market_service: upsert embedding %s: %w", marketID, err)
	}
	return nil
}
