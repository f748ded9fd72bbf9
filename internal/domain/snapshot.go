package domain

import "time"

// PlatformHintKey is the fee-metadata key carrying the venue name on a
// snapshot. Normalizers set it so scoring can attribute legs to a platform
// without an extra market lookup.
const PlatformHintKey = "_platform_hint"

// OutcomeQuote is one outcome's quote inside a snapshot. Optional fields are
// pointers; a quote with neither Prob nor Mid is malformed and skipped by
// consumers.
type OutcomeQuote struct {
	OutcomeID string   `json:"outcome_id"`
	Label     string   `json:"label"`
	Bid       *float64 `json:"bid,omitempty"`
	Ask       *float64 `json:"ask,omitempty"`
	Mid       *float64 `json:"mid,omitempty"`
	Prob      *float64 `json:"prob,omitempty"`
	MaxFill   *float64 `json:"max_fill,omitempty"`
	DepthUSD  *float64 `json:"depth_usd,omitempty"`
}

// Snapshot is an immutable point-in-time quote set for one market.
// Snapshots are append-only; the engine always consumes the latest row per
// market.
type Snapshot struct {
	MarketID     string
	TS           time.Time
	Outcomes     []OutcomeQuote
	PriceSource  string
	LiquidityUSD float64
	Fees         map[string]any
	StaleSeconds int
}

// Platform returns the venue hint recorded in the snapshot's fee metadata,
// or "unknown" when the normalizer did not set one.
func (s Snapshot) Platform() string {
	if s.Fees != nil {
		if v, ok := s.Fees[PlatformHintKey].(string); ok && v != "" {
			return v
		}
	}
	return "unknown"
}
