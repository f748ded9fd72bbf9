package scoring

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/quantfold/arbscope/internal/domain"
)

// MispricingSizeUSD is the fixed notional used to express mispricing EV.
const MispricingSizeUSD = 500.0

// consensusReference tags mispricing rows with the benchmark they were
// scored against.
const consensusReference = "group_vwap"

// Mispricing flags venue quotes that deviate from the group's
// liquidity-weighted consensus. Only the buy-the-underpriced-label
// direction is emitted: these venues generally lack short mechanics, so the
// sell side is not a tradeable leg.
type Mispricing struct {
	snapshots domain.SnapshotReader
	logger    *slog.Logger
	now       func() time.Time
}

// NewMispricing creates a Mispricing scorer.
func NewMispricing(snapshots domain.SnapshotReader, logger *slog.Logger) *Mispricing {
	return &Mispricing{
		snapshots: snapshots,
		logger:    logger.With(slog.String("component", "cross_mispricing")),
		now:       time.Now,
	}
}

// consensusFor looks up the consensus probability for a label,
// case-insensitively.
func consensusFor(entries []domain.ConsensusEntry, label string) (float64, bool) {
	want := strings.ToLower(strings.TrimSpace(label))
	for _, e := range entries {
		if strings.ToLower(strings.TrimSpace(e.Label)) == want {
			return e.Prob, true
		}
	}
	return 0, false
}

// Score compares every member's quoted outcome prices against the group
// consensus and emits one opportunity per positively-edged label. The edge
// is consensus minus venue price; ev_usd = edge x the fixed size bucket.
func (m *Mispricing) Score(ctx context.Context, g domain.Group) ([]domain.Opportunity, error) {
	if len(g.Consensus) == 0 {
		return nil, nil
	}
	detected := m.now().UTC()

	var opps []domain.Opportunity
	for _, mid := range g.MarketIDs {
		snap, err := m.snapshots.Latest(ctx, mid)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				continue
			}
			return nil, fmt.Errorf("cross_mispricing: latest snapshot %s: %w", mid, err)
		}
		platform := snap.Platform()

		for _, o := range snap.Outcomes {
			p := quotePrice(o)
			if p == nil {
				continue
			}
			avg, ok := consensusFor(g.Consensus, o.Label)
			if !ok {
				continue
			}
			edge := avg - *p
			evUSD := edge * MispricingSizeUSD
			if evUSD <= 0 {
				continue
			}

			opp := domain.Opportunity{
				Type:    domain.OpportunityCrossMispricing,
				GroupID: g.ID,
				Legs: []domain.Leg{{
					Platform: platform,
					MarketID: mid,
					Side:     "BUY_" + strings.ToUpper(o.Label),
					PriceMid: *p,
				}},
				Params: map[string]any{"reference": consensusReference},
				Metrics: domain.Metrics{
					SizeUSD: MispricingSizeUSD,
					EVUSD:   evUSD,
					EdgeBps: int(math.Round(edge * 10_000.0)),
				},
				DetectedAt: detected,
			}
			hash, err := ContentHash(opp)
			if err != nil {
				return nil, err
			}
			opp.Hash = hash
			opps = append(opps, opp)
		}
	}
	return opps, nil
}
