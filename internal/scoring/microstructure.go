package scoring

import (
	"math"

	"github.com/quantfold/arbscope/internal/domain"
)

// Effective prices are clamped into the open probability interval so a
// degenerate quote can never price at exactly 0 or 1.
const (
	minEffective = 0.0001
	maxEffective = 0.9999
)

const (
	slippageFreeUSD   = 100.0 // first $100 fills at mid
	slippageBpsPer100 = 5.0
	slippageCapBps    = 50.0

	staleFreeSec    = 60.0 // snapshots younger than a minute cost nothing
	staleBpsPerStep = 5.0
	staleCapBps     = 50.0

	defaultFillUSD = 250.0
	minFillUSD     = 100.0
	maxFillUSD     = 5000.0
)

func bpsToFrac(bps float64) float64 {
	if bps < 0 {
		return 0
	}
	return bps / 10_000.0
}

func clampPrice(p float64) float64 {
	return math.Min(maxEffective, math.Max(minEffective, p))
}

// slipMidToFill bumps a mid price for size: nothing up to $100, then 5 bps
// per additional $100, capped at 50 bps.
func slipMidToFill(priceMid, sizeUSD float64) float64 {
	var bumpBps float64
	if sizeUSD > slippageFreeUSD {
		bumpBps = math.Min(slippageCapBps,
			math.Floor((sizeUSD-slippageFreeUSD)/100.0)*slippageBpsPer100)
	}
	return clampPrice(priceMid * (1.0 + bpsToFrac(bumpBps)))
}

// stalePenaltyBps charges for quote age: free up to 60s, then 5 bps per
// additional 60-second step rounded up, capped at 50 bps.
func stalePenaltyBps(ageSec float64) float64 {
	if ageSec <= staleFreeSec {
		return 0
	}
	steps := math.Min(10, math.Ceil((ageSec-staleFreeSec)/60.0))
	return staleBpsPerStep * steps
}

// EffectivePrice converts a mid price plus intended size into a realistic
// fill cost: slippage on the mid, then taker fee and staleness applied
// multiplicatively, clamped throughout.
func EffectivePrice(priceMid, sizeUSD, takerBps, ageSec float64) float64 {
	p := slipMidToFill(priceMid, sizeUSD)
	eff := p * (1.0 + bpsToFrac(takerBps) + bpsToFrac(stalePenaltyBps(ageSec)))
	return clampPrice(eff)
}

// FillableUSD estimates how much notional a snapshot can absorb: declared
// per-outcome depth when present, else a coarse bound proportional to the
// market's liquidity, else a fixed default.
func FillableUSD(snap domain.Snapshot) float64 {
	for _, o := range snap.Outcomes {
		if o.DepthUSD != nil && *o.DepthUSD > 0 {
			return *o.DepthUSD
		}
	}
	if snap.LiquidityUSD > 0 {
		return math.Max(minFillUSD, math.Min(snap.LiquidityUSD/10.0, maxFillUSD))
	}
	return defaultFillUSD
}
