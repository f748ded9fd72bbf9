package domain

import "time"

// MarketStatus represents the lifecycle state of a market listing.
type MarketStatus string

const (
	MarketStatusActive   MarketStatus = "active"
	MarketStatusClosed   MarketStatus = "closed"
	MarketStatusResolved MarketStatus = "resolved"
)

// Outcome is one tradeable outcome of a market.
type Outcome struct {
	OutcomeID string `json:"outcome_id"`
	Label     string `json:"label"`
}

// Market is a normalized prediction-market listing from one venue.
// Identity is (Platform, EventID); rows are written by the ingestion side
// and read-only to the clustering and scoring engine.
type Market struct {
	ID           string
	Platform     string
	EventID      string
	Title        string
	Description  string
	EndDate      *time.Time
	Status       MarketStatus
	VolumeUSD    float64
	LiquidityUSD float64
	Outcomes     []Outcome
	Metadata     map[string]any
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
