// Package service composes the grouping and scoring engines with the
// storage, cache and notification layers into the operations the scheduler
// runs: market ingestion, group recomputation, opportunity analysis and
// alert delivery.
package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/quantfold/arbscope/internal/domain"
)

// SnapshotSource is a read-through latest-snapshot reader: Redis first,
// Postgres on a miss, with the result written back to the cache on a
// best-effort basis. A broken cache degrades to store reads instead of
// failing the caller.
type SnapshotSource struct {
	cache  domain.SnapshotCache
	store  domain.SnapshotStore
	logger *slog.Logger
}

// NewSnapshotSource creates a SnapshotSource. cache may be nil, in which
// case every read goes to the store.
func NewSnapshotSource(cache domain.SnapshotCache, store domain.SnapshotStore, logger *slog.Logger) *SnapshotSource {
	return &SnapshotSource{
		cache:  cache,
		store:  store,
		logger: logger.With(slog.String("component", "snapshot_source")),
	}
}

// Latest returns the most recent snapshot for a market, or
// domain.ErrNotFound when none exists.
func (s *SnapshotSource) Latest(ctx context.Context, marketID string) (domain.Snapshot, error) {
	if s.cache != nil {
		snap, err := s.cache.Latest(ctx, marketID)
		if err == nil {
			return snap, nil
		}
		if !errors.Is(err, domain.ErrNotFound) {
			s.logger.WarnContext(ctx, "snapshot cache read failed, falling back to store",
				slog.String("market_id", marketID),
				slog.String("error", err.Error()),
			)
		}
	}

	snap, err := s.store.Latest(ctx, marketID)
	if err != nil {
		return domain.Snapshot{}, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, snap); err != nil {
			s.logger.WarnContext(ctx, "snapshot cache write failed",
				slog.String("market_id", marketID),
				slog.String("error", err.Error()),
			)
		}
	}
	return snap, nil
}

var _ domain.SnapshotReader = (*SnapshotSource)(nil)
