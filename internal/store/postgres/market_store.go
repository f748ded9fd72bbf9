package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/quantfold/arbscope/internal/domain"
)

// MarketStore implements domain.MarketStore using PostgreSQL.
type MarketStore struct {
	pool *pgxpool.Pool
}

// NewMarketStore creates a MarketStore backed by the given connection pool.
func NewMarketStore(pool *pgxpool.Pool) *MarketStore {
	return &MarketStore{pool: pool}
}

const marketCols = `id, platform, event_id, title, description, end_date,
	status, volume_usd, liquidity_usd, outcomes, metadata, created_at, updated_at`

func scanMarket(row pgx.Row) (domain.Market, error) {
	var m domain.Market
	var status string
	err := row.Scan(
		&m.ID, &m.Platform, &m.EventID, &m.Title, &m.Description, &m.EndDate,
		&status, &m.VolumeUSD, &m.LiquidityUSD, &m.Outcomes, &m.Metadata,
		&m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		return domain.Market{}, err
	}
	m.Status = domain.MarketStatus(status)
	return m, nil
}

// GetByID retrieves a market by its primary key.
func (s *MarketStore) GetByID(ctx context.Context, id string) (domain.Market, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+marketCols+` FROM markets WHERE id = $1`, id)
	m, err := scanMarket(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Market{}, domain.ErrNotFound
		}
		return domain.Market{}, fmt.Errorf("postgres: get market %s: %w", id, err)
	}
	return m, nil
}

// ListRecent returns up to limit markets ordered by most recent update.
func (s *MarketStore) ListRecent(ctx context.Context, limit int) ([]domain.Market, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+marketCols+` FROM markets ORDER BY updated_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("postgres: list recent markets: %w", err)
	}
	defer rows.Close()
	return collectMarkets(rows)
}

// ListByIDs returns the markets matching the given ids; missing ids are
// silently absent from the result.
func (s *MarketStore) ListByIDs(ctx context.Context, ids []string) ([]domain.Market, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := s.pool.Query(ctx,
		`SELECT `+marketCols+` FROM markets WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, fmt.Errorf("postgres: list markets by ids: %w", err)
	}
	defer rows.Close()
	return collectMarkets(rows)
}

// Upsert inserts or updates a market keyed by (platform, event_id) and
// returns the row id.
func (s *MarketStore) Upsert(ctx context.Context, m domain.Market) (string, error) {
	const query = `
		INSERT INTO markets (
			platform, event_id, title, description, end_date,
			status, volume_usd, liquidity_usd, outcomes, metadata,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW(), NOW())
		ON CONFLICT (platform, event_id) DO UPDATE SET
			title         = EXCLUDED.title,
			description   = EXCLUDED.description,
			end_date      = EXCLUDED.end_date,
			status        = EXCLUDED.status,
			volume_usd    = EXCLUDED.volume_usd,
			liquidity_usd = EXCLUDED.liquidity_usd,
			outcomes      = EXCLUDED.outcomes,
			metadata      = EXCLUDED.metadata,
			updated_at    = NOW()
		RETURNING id`

	var id string
	err := s.pool.QueryRow(ctx, query,
		m.Platform, m.EventID, m.Title, m.Description, m.EndDate,
		string(m.Status), m.VolumeUSD, m.LiquidityUSD, m.Outcomes, m.Metadata,
	).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("postgres: upsert market %s/%s: %w", m.Platform, m.EventID, err)
	}
	return id, nil
}

func collectMarkets(rows pgx.Rows) ([]domain.Market, error) {
	var markets []domain.Market
	for rows.Next() {
		m, err := scanMarket(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan market: %w", err)
		}
		markets = append(markets, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: market rows: %w", err)
	}
	return markets, nil
}

var _ domain.MarketStore = (*MarketStore)(nil)
