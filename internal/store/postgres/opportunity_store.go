package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/quantfold/arbscope/internal/domain"
)

// OpportunityStore implements domain.OpportunityStore using PostgreSQL.
// Rows are keyed by a unique content hash, which is what makes repeated
// analysis passes idempotent.
type OpportunityStore struct {
	pool *pgxpool.Pool
}

// NewOpportunityStore creates an OpportunityStore.
func NewOpportunityStore(pool *pgxpool.Pool) *OpportunityStore {
	return &OpportunityStore{pool: pool}
}

// InsertIfNew inserts the opportunity unless its hash is already recorded.
// A hash conflict is success-no-op: it returns (false, "", nil), never an
// error, so duplicate detections cannot fail a batch.
func (s *OpportunityStore) InsertIfNew(ctx context.Context, opp domain.Opportunity) (bool, string, error) {
	const query = `
		INSERT INTO arb_opportunities (opp_hash, opp_type, group_id, legs, params, metrics, detected_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (opp_hash) DO NOTHING
		RETURNING id`

	var id string
	err := s.pool.QueryRow(ctx, query,
		opp.Hash, string(opp.Type), opp.GroupID, opp.Legs, opp.Params,
		opp.Metrics, opp.DetectedAt,
	).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Already recorded.
			return false, "", nil
		}
		return false, "", fmt.Errorf("postgres: insert opportunity %s: %w", opp.Hash, err)
	}
	return true, id, nil
}

const oppCols = `id, opp_hash, opp_type, group_id, legs, params, metrics, detected_at`

func scanOpportunity(row pgx.Row) (domain.Opportunity, error) {
	var opp domain.Opportunity
	var typ string
	err := row.Scan(
		&opp.ID, &opp.Hash, &typ, &opp.GroupID, &opp.Legs, &opp.Params,
		&opp.Metrics, &opp.DetectedAt,
	)
	if err != nil {
		return domain.Opportunity{}, err
	}
	opp.Type = domain.OpportunityType(typ)
	return opp, nil
}

// GetByID returns one opportunity row.
func (s *OpportunityStore) GetByID(ctx context.Context, id string) (domain.Opportunity, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+oppCols+` FROM arb_opportunities WHERE id = $1`, id)
	opp, err := scanOpportunity(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Opportunity{}, domain.ErrNotFound
		}
		return domain.Opportunity{}, fmt.Errorf("postgres: get opportunity %s: %w", id, err)
	}
	return opp, nil
}

// ListBefore returns opportunities detected before the cutoff, oldest
// first, for archival.
func (s *OpportunityStore) ListBefore(ctx context.Context, cutoff time.Time, limit int) ([]domain.Opportunity, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+oppCols+` FROM arb_opportunities
		 WHERE detected_at < $1 ORDER BY detected_at ASC LIMIT $2`,
		cutoff, limit)
	if err != nil {
		return nil, fmt.Errorf("postgres: list opportunities before %s: %w", cutoff, err)
	}
	defer rows.Close()
	return collectOpportunities(rows)
}

// DeleteByIDs removes the given rows and reports how many were deleted.
func (s *OpportunityStore) DeleteByIDs(ctx context.Context, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM arb_opportunities WHERE id = ANY($1)`, ids)
	if err != nil {
		return 0, fmt.Errorf("postgres: delete opportunities: %w", err)
	}
	return tag.RowsAffected(), nil
}

func collectOpportunities(rows pgx.Rows) ([]domain.Opportunity, error) {
	var opps []domain.Opportunity
	for rows.Next() {
		opp, err := scanOpportunity(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan opportunity: %w", err)
		}
		opps = append(opps, opp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: opportunity rows: %w", err)
	}
	return opps, nil
}

var _ domain.OpportunityStore = (*OpportunityStore)(nil)
