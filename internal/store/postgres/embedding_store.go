package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/quantfold/arbscope/internal/domain"
)

// EmbeddingStore implements domain.EmbeddingStore on top of pgvector. It is
// both the vector storage and the nearest-neighbor oracle: cosine distance
// queries run against the ivfflat index on the embeddings table.
type EmbeddingStore struct {
	pool *pgxpool.Pool
}

// NewEmbeddingStore creates an EmbeddingStore.
func NewEmbeddingStore(pool *pgxpool.Pool) *EmbeddingStore {
	return &EmbeddingStore{pool: pool}
}

// Get returns the embedding vector for a market, or ErrNoEmbedding when
// none has been computed yet.
func (s *EmbeddingStore) Get(ctx context.Context, marketID string) ([]float32, error) {
	var vec pgvector.Vector
	err := s.pool.QueryRow(ctx,
		`SELECT vector FROM embeddings WHERE market_id = $1`, marketID,
	).Scan(&vec)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNoEmbedding
		}
		return nil, fmt.Errorf("postgres: get embedding %s: %w", marketID, err)
	}
	return vec.Slice(), nil
}

// Upsert stores or replaces the embedding vector of a market.
func (s *EmbeddingStore) Upsert(ctx context.Context, marketID string, vector []float32) error {
	const query = `
		INSERT INTO embeddings (market_id, vector, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (market_id) DO UPDATE SET
			vector     = EXCLUDED.vector,
			updated_at = NOW()`
	_, err := s.pool.Exec(ctx, query, marketID, pgvector.NewVector(vector))
	if err != nil {
		return fmt.Errorf("postgres: upsert embedding %s: %w", marketID, err)
	}
	return nil
}

// NearestByCosine returns up to limit markets ordered by ascending cosine
// distance from the query vector.
func (s *EmbeddingStore) NearestByCosine(ctx context.Context, vector []float32, limit int) ([]domain.Neighbor, error) {
	const query = `
		SELECT market_id, vector <=> $1 AS cos_dist
		FROM embeddings
		ORDER BY cos_dist ASC
		LIMIT $2`

	rows, err := s.pool.Query(ctx, query, pgvector.NewVector(vector), limit)
	if err != nil {
		return nil, fmt.Errorf("postgres: nearest by cosine: %w", err)
	}
	defer rows.Close()

	var out []domain.Neighbor
	for rows.Next() {
		var n domain.Neighbor
		if err := rows.Scan(&n.MarketID, &n.Distance); err != nil {
			return nil, fmt.Errorf("postgres: scan neighbor: %w", err)
		}
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: neighbor rows: %w", err)
	}
	return out, nil
}

var _ domain.EmbeddingStore = (*EmbeddingStore)(nil)
