package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/quantfold/arbscope/internal/domain"
)

// OverrideStore implements domain.OverrideStore using PostgreSQL.
type OverrideStore struct {
	pool *pgxpool.Pool
}

// NewOverrideStore creates an OverrideStore.
func NewOverrideStore(pool *pgxpool.Pool) *OverrideStore {
	return &OverrideStore{pool: pool}
}

// ListActive returns all currently active overrides.
func (s *OverrideStore) ListActive(ctx context.Context) ([]domain.Override, error) {
	const query = `
		SELECT id, market_id, action, group_id, note, active, created_at
		FROM group_overrides
		WHERE active
		ORDER BY id`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("postgres: list active overrides: %w", err)
	}
	defer rows.Close()

	var out []domain.Override
	for rows.Next() {
		var o domain.Override
		var action string
		if err := rows.Scan(&o.ID, &o.MarketID, &action, &o.GroupID, &o.Note, &o.Active, &o.CreatedAt); err != nil {
			return nil, fmt.Errorf("postgres: scan override: %w", err)
		}
		o.Action = domain.OverrideAction(action)
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: override rows: %w", err)
	}
	return out, nil
}

var _ domain.OverrideStore = (*OverrideStore)(nil)
