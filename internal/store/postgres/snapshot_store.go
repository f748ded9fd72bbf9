package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/quantfold/arbscope/internal/domain"
)

// SnapshotStore implements domain.SnapshotStore using PostgreSQL. Snapshot
// rows are append-only.
type SnapshotStore struct {
	pool *pgxpool.Pool
}

// NewSnapshotStore creates a SnapshotStore.
func NewSnapshotStore(pool *pgxpool.Pool) *SnapshotStore {
	return &SnapshotStore{pool: pool}
}

// Insert appends one snapshot row.
func (s *SnapshotStore) Insert(ctx context.Context, snap domain.Snapshot) error {
	const query = `
		INSERT INTO market_snapshots (
			market_id, ts, outcomes, price_source, liquidity_usd, fees, stale_seconds
		) VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := s.pool.Exec(ctx, query,
		snap.MarketID, snap.TS, snap.Outcomes, snap.PriceSource,
		snap.LiquidityUSD, snap.Fees, snap.StaleSeconds,
	)
	if err != nil {
		return fmt.Errorf("postgres: insert snapshot %s: %w", snap.MarketID, err)
	}
	return nil
}

// Latest returns the most recent snapshot for a market.
func (s *SnapshotStore) Latest(ctx context.Context, marketID string) (domain.Snapshot, error) {
	const query = `
		SELECT market_id, ts, outcomes, price_source, liquidity_usd, fees, stale_seconds
		FROM market_snapshots
		WHERE market_id = $1
		ORDER BY ts DESC
		LIMIT 1`

	var snap domain.Snapshot
	err := s.pool.QueryRow(ctx, query, marketID).Scan(
		&snap.MarketID, &snap.TS, &snap.Outcomes, &snap.PriceSource,
		&snap.LiquidityUSD, &snap.Fees, &snap.StaleSeconds,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Snapshot{}, domain.ErrNotFound
		}
		return domain.Snapshot{}, fmt.Errorf("postgres: latest snapshot %s: %w", marketID, err)
	}
	return snap, nil
}

var _ domain.SnapshotStore = (*SnapshotStore)(nil)
