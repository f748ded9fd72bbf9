package grouping

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/quantfold/arbscope/internal/domain"
)

// Consensus computes the liquidity-weighted average probability per outcome
// label across a set of markets, from each market's latest snapshot.
type Consensus struct {
	markets   domain.MarketStore
	snapshots domain.SnapshotReader
	logger    *slog.Logger
}

// NewConsensus creates a Consensus aggregator.
func NewConsensus(markets domain.MarketStore, snapshots domain.SnapshotReader, logger *slog.Logger) *Consensus {
	return &Consensus{
		markets:   markets,
		snapshots: snapshots,
		logger:    logger.With(slog.String("component", "consensus")),
	}
}

// Compute returns one entry per observed outcome label. The weight of each
// market is its liquidity in USD, defaulting to 1.0 when absent or
// non-positive so an unreported liquidity never zeroes out a venue's vote.
// Probability comes from the outcome's prob field, falling back to mid;
// outcomes with neither are skipped. Labels that accumulated no weight are
// omitted. Entries are sorted by label.
func (c *Consensus) Compute(ctx context.Context, marketIDs []string) ([]domain.ConsensusEntry, error) {
	if len(marketIDs) == 0 {
		return nil, nil
	}

	rows, err := c.markets.ListByIDs(ctx, marketIDs)
	if err != nil {
		return nil, fmt.Errorf("consensus: load markets: %w", err)
	}
	weightByID := make(map[string]float64, len(rows))
	for _, m := range rows {
		w := m.LiquidityUSD
		if w <= 0 {
			w = 1.0
		}
		weightByID[m.ID] = w
	}

	type acc struct{ w, wp float64 }
	byLabel := make(map[string]*acc)

	for _, mid := range marketIDs {
		snap, err := c.snapshots.Latest(ctx, mid)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				continue
			}
			return nil, fmt.Errorf("consensus: latest snapshot %s: %w", mid, err)
		}
		w, ok := weightByID[mid]
		if !ok {
			// Market row vanished between grouping and aggregation; its
			// snapshot still votes with the neutral weight.
			w = 1.0
		}
		for _, o := range snap.Outcomes {
			p := o.Prob
			if p == nil {
				p = o.Mid
			}
			if p == nil {
				continue
			}
			a := byLabel[o.Label]
			if a == nil {
				a = &acc{}
				byLabel[o.Label] = a
			}
			a.w += w
			a.wp += w * (*p)
		}
	}

	out := make([]domain.ConsensusEntry, 0, len(byLabel))
	for label, a := range byLabel {
		if a.w <= 0 {
			continue
		}
		out = append(out, domain.ConsensusEntry{Label: label, Prob: a.wp / a.w})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Label < out[j].Label })
	return out, nil
}
