package domain

import "time"

// ConsensusEntry is the liquidity-weighted consensus probability for one
// outcome label across a group.
type ConsensusEntry struct {
	Label string  `json:"label"`
	Prob  float64 `json:"prob"`
}

// Group is a set of markets from different venues believed to represent the
// same real-world event, together with its computed consensus. Groups are
// recomputed rather than mutated: every recompute inserts a fresh row, so
// grouping history is preserved.
type Group struct {
	ID        string
	Title     string
	MarketIDs []string
	Consensus []ConsensusEntry
	CreatedAt time.Time
	UpdatedAt time.Time
}
