package domain

import (
	"context"
	"time"
)

// MarketStore reads market listings maintained by the ingestion side.
type MarketStore interface {
	GetByID(ctx context.Context, id string) (Market, error)
	// ListRecent returns up to limit markets ordered by updated_at descending.
	ListRecent(ctx context.Context, limit int) ([]Market, error)
	ListByIDs(ctx context.Context, ids []string) ([]Market, error)
	Upsert(ctx context.Context, m Market) (string, error)
}

// SnapshotStore persists append-only market snapshots.
type SnapshotStore interface {
	Insert(ctx context.Context, s Snapshot) error
	// Latest returns the most recent snapshot for a market, or ErrNotFound.
	Latest(ctx context.Context, marketID string) (Snapshot, error)
}

// GroupStore persists market groups. Every recompute inserts a new row;
// history is preserved and readers take the most recent rows.
type GroupStore interface {
	Insert(ctx context.Context, g Group) (string, error)
	ListRecent(ctx context.Context, limit int) ([]Group, error)
}

// OverrideStore reads grouping overrides. Rows are operator-managed; the
// engine only consumes them.
type OverrideStore interface {
	ListActive(ctx context.Context) ([]Override, error)
}

// OpportunityStore persists scored opportunities keyed by content hash.
type OpportunityStore interface {
	// InsertIfNew inserts the opportunity unless a row with the same hash
	// already exists. A duplicate is success-no-op, reported as false.
	InsertIfNew(ctx context.Context, opp Opportunity) (bool, string, error)
	GetByID(ctx context.Context, id string) (Opportunity, error)
	// ListBefore returns opportunities detected before the cutoff, oldest
	// first, for archival.
	ListBefore(ctx context.Context, cutoff time.Time, limit int) ([]Opportunity, error)
	DeleteByIDs(ctx context.Context, ids []string) (int64, error)
}

// FeeStore reads per-venue fee parameters.
type FeeStore interface {
	All(ctx context.Context) (FeeTable, error)
}

// Neighbor is one nearest-neighbor result from the similarity oracle.
// Distance is cosine distance: lower is closer.
type Neighbor struct {
	MarketID string
	Distance float64
}

// EmbeddingStore persists embedding vectors and answers nearest-neighbor
// queries. Get returns ErrNoEmbedding when no vector exists yet; callers
// must treat that as "similarity unknown", not "similarity zero".
type EmbeddingStore interface {
	Get(ctx context.Context, marketID string) ([]float32, error)
	Upsert(ctx context.Context, marketID string, vector []float32) error
	NearestByCosine(ctx context.Context, vector []float32, limit int) ([]Neighbor, error)
}

// AlertStore persists the per-user alert fanout queue.
type AlertStore interface {
	Enqueue(ctx context.Context, userID, opportunityID string) error
	ListPending(ctx context.Context, limit int) ([]Alert, error)
	MarkSent(ctx context.Context, id int64, at time.Time, value float64) error
}

// UserStore reads alert subscribers.
type UserStore interface {
	ListSubscribed(ctx context.Context, limit int) ([]User, error)
}
