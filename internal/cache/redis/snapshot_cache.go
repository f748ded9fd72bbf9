package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/quantfold/arbscope/internal/domain"
)

const defaultSnapshotTTL = 5 * time.Minute

// SnapshotCache implements domain.SnapshotCache, keeping the latest
// JSON-serialized snapshot per market under a short TTL so consensus and
// scoring passes over the same group members do not re-query the store.
//
// Key schema:
//
//	snapshot:latest:{marketID} - JSON-encoded domain.Snapshot
type SnapshotCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewSnapshotCache creates a SnapshotCache backed by the given Client. A
// non-positive ttl falls back to the 5-minute default.
func NewSnapshotCache(c *Client, ttl time.Duration) *SnapshotCache {
	if ttl <= 0 {
		ttl = defaultSnapshotTTL
	}
	return &SnapshotCache{rdb: c.Underlying(), ttl: ttl}
}

func snapshotKey(marketID string) string { return "snapshot:latest:" + marketID }

// Set stores the latest snapshot of a market.
func (sc *SnapshotCache) Set(ctx context.Context, s domain.Snapshot) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("redis: marshal snapshot %s: %w", s.MarketID, err)
	}
	if err := sc.rdb.Set(ctx, snapshotKey(s.MarketID), data, sc.ttl).Err(); err != nil {
		return fmt.Errorf("redis: set snapshot %s: %w", s.MarketID, err)
	}
	return nil
}

// Latest returns the cached latest snapshot for a market, or
// domain.ErrNotFound on a miss.
func (sc *SnapshotCache) Latest(ctx context.Context, marketID string) (domain.Snapshot, error) {
	data, err := sc.rdb.Get(ctx, snapshotKey(marketID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.Snapshot{}, domain.ErrNotFound
		}
		return domain.Snapshot{}, fmt.Errorf("redis: get snapshot %s: %w", marketID, err)
	}

	var snap domain.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return domain.Snapshot{}, fmt.Errorf("redis: unmarshal snapshot %s: %w", marketID, err)
	}
	return snap, nil
}

var _ domain.SnapshotCache = (*SnapshotCache)(nil)
