package domain

import (
	"context"
	"time"
)

// SnapshotReader is the read side shared by SnapshotStore, SnapshotCache and
// read-through combinations of the two.
type SnapshotReader interface {
	Latest(ctx context.Context, marketID string) (Snapshot, error)
}

// SnapshotCache caches the latest snapshot per market so scoring passes do
// not hammer the store. Implementations return ErrNotFound on miss.
type SnapshotCache interface {
	Set(ctx context.Context, s Snapshot) error
	Latest(ctx context.Context, marketID string) (Snapshot, error)
}

// LockManager provides best-effort distributed locks so concurrent recompute
// runs on the same seed do not duplicate work. Correctness never depends on
// the lock; the store's uniqueness constraints reconcile racing writers.
type LockManager interface {
	// Acquire returns a release func, or ErrLockHeld.
	Acquire(ctx context.Context, key string, ttl time.Duration) (func(), error)
}

// SignalBus publishes detected-opportunity events for downstream consumers
// (alert workers, dashboards).
type SignalBus interface {
	Publish(ctx context.Context, opp Opportunity) error
}
