package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/quantfold/arbscope/internal/domain"
)

// GroupStore implements domain.GroupStore using PostgreSQL. Every recompute
// inserts a fresh row so grouping history survives; readers take the most
// recently updated rows.
type GroupStore struct {
	pool *pgxpool.Pool
}

// NewGroupStore creates a GroupStore.
func NewGroupStore(pool *pgxpool.Pool) *GroupStore {
	return &GroupStore{pool: pool}
}

// Insert writes a new group row and returns its id.
func (s *GroupStore) Insert(ctx context.Context, g domain.Group) (string, error) {
	const query = `
		INSERT INTO groups (title, market_ids, avg_prob, created_at, updated_at)
		VALUES ($1, $2, $3, NOW(), NOW())
		RETURNING id`

	var id string
	err := s.pool.QueryRow(ctx, query, g.Title, g.MarketIDs, g.Consensus).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("postgres: insert group %q: %w", g.Title, err)
	}
	return id, nil
}

// ListRecent returns up to limit groups, most recently updated first.
func (s *GroupStore) ListRecent(ctx context.Context, limit int) ([]domain.Group, error) {
	const query = `
		SELECT id, title, market_ids, avg_prob, created_at, updated_at
		FROM groups ORDER BY updated_at DESC LIMIT $1`

	rows, err := s.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("postgres: list recent groups: %w", err)
	}
	defer rows.Close()

	var groups []domain.Group
	for rows.Next() {
		var g domain.Group
		if err := rows.Scan(&g.ID, &g.Title, &g.MarketIDs, &g.Consensus, &g.CreatedAt, &g.UpdatedAt); err != nil {
			return nil, fmt.Errorf("postgres: scan group: %w", err)
		}
		groups = append(groups, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: group rows: %w", err)
	}
	return groups, nil
}

var _ domain.GroupStore = (*GroupStore)(nil)
