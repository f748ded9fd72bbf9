package scoring

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/quantfold/arbscope/internal/domain"
)

// ModelVersion tags dutch-book opportunities with the cost-model revision
// that priced them.
const ModelVersion = "default_v1"

// SizeBucketsUSD are the candidate trade sizes evaluated per venue pair.
// One opportunity row is emitted per viable bucket so downstream consumers
// can pick their size tier.
var SizeBucketsUSD = []float64{100, 500, 1000}

// DutchBookEV returns the worst-case guaranteed profit of buying YES at
// yesEff on one venue and NO at noEff on another, in USD and in basis
// points of traded size.
func DutchBookEV(yesEff, noEff, sizeUSD float64) (evUSD, edgeBps float64) {
	profitYes := sizeUSD*(1.0-yesEff) - sizeUSD*noEff
	profitNo := sizeUSD*(1.0-noEff) - sizeUSD*yesEff
	evUSD = math.Min(profitYes, profitNo)
	if sizeUSD > 0 {
		edgeBps = evUSD / sizeUSD * 10_000.0
	}
	return evUSD, edgeBps
}

// DutchBook scans groups for cross-venue YES/NO pairs that net a guaranteed
// profit after slippage, fees and staleness.
type DutchBook struct {
	snapshots domain.SnapshotReader
	logger    *slog.Logger
	now       func() time.Time
}

// NewDutchBook creates a DutchBook scorer.
func NewDutchBook(snapshots domain.SnapshotReader, logger *slog.Logger) *DutchBook {
	return &DutchBook{
		snapshots: snapshots,
		logger:    logger.With(slog.String("component", "dutch_book")),
		now:       time.Now,
	}
}

// marketQuote is one group member's latest normalized quote.
type marketQuote struct {
	marketID string
	platform string
	yesMid   *float64
	noMid    *float64
	snap     domain.Snapshot
}

// Score evaluates every ordered cross-platform pair (A yes-side, B no-side)
// in the group at each size bucket, clamped to the joint fillable notional,
// and returns the opportunities whose worst-case profit stays positive
// after costs. Markets without a latest snapshot or a recognizable yes/no
// pair simply contribute no legs.
func (d *DutchBook) Score(ctx context.Context, g domain.Group, fees domain.FeeTable) ([]domain.Opportunity, error) {
	quotes := make([]marketQuote, 0, len(g.MarketIDs))
	for _, mid := range g.MarketIDs {
		snap, err := d.snapshots.Latest(ctx, mid)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				continue
			}
			return nil, fmt.Errorf("dutch_book: latest snapshot %s: %w", mid, err)
		}
		yes, no := YesNoMids(snap)
		quotes = append(quotes, marketQuote{
			marketID: mid,
			platform: snap.Platform(),
			yesMid:   yes,
			noMid:    no,
			snap:     snap,
		})
	}

	now := d.now().UTC()
	detected := now

	var opps []domain.Opportunity
	for _, a := range quotes {
		if a.yesMid == nil {
			continue
		}
		for _, b := range quotes {
			if a.marketID == b.marketID || a.platform == b.platform {
				continue
			}
			if b.noMid == nil {
				continue
			}

			fillUSD := math.Min(FillableUSD(a.snap), FillableUSD(b.snap))
			if fillUSD <= 0 {
				continue
			}

			takerA := fees.TakerBps(a.platform)
			takerB := fees.TakerBps(b.platform)
			ageA := now.Sub(a.snap.TS).Seconds()
			ageB := now.Sub(b.snap.TS).Seconds()

			for _, bucket := range SizeBucketsUSD {
				size := math.Min(bucket, fillUSD)
				yesEff := EffectivePrice(*a.yesMid, size, takerA, ageA)
				noEff := EffectivePrice(*b.noMid, size, takerB, ageB)
				evUSD, edgeBps := DutchBookEV(yesEff, noEff, size)
				if evUSD <= 0 {
					continue
				}

				tsA, tsB := a.snap.TS, b.snap.TS
				opp := domain.Opportunity{
					Type:    domain.OpportunityDutchBook,
					GroupID: g.ID,
					Legs: []domain.Leg{
						{Platform: a.platform, MarketID: a.marketID, Side: domain.SideBuyYes, PriceMid: *a.yesMid, EffectivePrice: yesEff, SnapshotTS: &tsA},
						{Platform: b.platform, MarketID: b.marketID, Side: domain.SideBuyNo, PriceMid: *b.noMid, EffectivePrice: noEff, SnapshotTS: &tsB},
					},
					Params: map[string]any{"model": ModelVersion},
					Metrics: domain.Metrics{
						SizeUSD: size,
						EVUSD:   evUSD,
						EdgeBps: int(math.Round(edgeBps)),
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
	}
	return opps, nil
}
