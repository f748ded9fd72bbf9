package domain

import "time"

// OpportunityType classifies a scored opportunity.
type OpportunityType string

const (
	// OpportunityDutchBook is a cross-venue buy-YES/buy-NO pair whose
	// combined cost guarantees profit regardless of resolution.
	OpportunityDutchBook OpportunityType = "dutch_book"
	// OpportunityCrossMispricing is a single venue quote deviating from the
	// group consensus; directional, not riskless.
	OpportunityCrossMispricing OpportunityType = "cross_mispricing"
)

// Leg sides. Dutch-book legs are always BUY_YES / BUY_NO; mispricing legs
// use BUY_<LABEL> for the underpriced outcome.
const (
	SideBuyYes = "BUY_YES"
	SideBuyNo  = "BUY_NO"
)

// Leg is one executable side of an opportunity.
type Leg struct {
	Platform       string     `json:"platform"`
	MarketID       string     `json:"market_id"`
	Side           string     `json:"side"`
	PriceMid       float64    `json:"price_mid"`
	EffectivePrice float64    `json:"effective,omitempty"`
	SnapshotTS     *time.Time `json:"snapshot_ts,omitempty"`
}

// Metrics summarizes the economics of an opportunity at its chosen size.
type Metrics struct {
	SizeUSD float64 `json:"size_usd"`
	EVUSD   float64 `json:"ev_usd"`
	EdgeBps int     `json:"edge_bps"`
}

// Opportunity is a scored, content-hashed, immutable record. The hash is a
// pure function of {Type, GroupID, Legs, Params, Metrics}, so re-running
// analysis over unchanged inputs produces the same hash and the insert
// becomes a no-op.
type Opportunity struct {
	ID         string
	Hash       string
	Type       OpportunityType
	GroupID    string
	Legs       []Leg
	Params     map[string]any
	Metrics    Metrics
	DetectedAt time.Time
}
