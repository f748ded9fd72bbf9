package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/quantfold/arbscope/internal/domain"
)

// FeeStore implements domain.FeeStore using PostgreSQL.
type FeeStore struct {
	pool *pgxpool.Pool
}

// NewFeeStore creates a FeeStore.
func NewFeeStore(pool *pgxpool.Pool) *FeeStore {
	return &FeeStore{pool: pool}
}

// All returns the fee parameters of every known platform.
func (s *FeeStore) All(ctx context.Context) (domain.FeeTable, error) {
	const query = `
		SELECT platform, taker_bps, withdrawal_fee_usd, gas_estimate_usd
		FROM platform_fees`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("postgres: list platform fees: %w", err)
	}
	defer rows.Close()

	out := make(domain.FeeTable)
	for rows.Next() {
		var f domain.PlatformFee
		if err := rows.Scan(&f.Platform, &f.TakerBps, &f.WithdrawalFeeUSD, &f.GasEstimateUSD); err != nil {
			return nil, fmt.Errorf("postgres: scan platform fee: %w", err)
		}
		out[f.Platform] = f
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: platform fee rows: %w", err)
	}
	return out, nil
}

var _ domain.FeeStore = (*FeeStore)(nil)
