package domain

import "time"

// OverrideAction is the directive kind of a grouping override.
type OverrideAction string

const (
	OverrideInclude OverrideAction = "include"
	OverrideExclude OverrideAction = "exclude"
)

// Override is an explicit human directive that pins a market into or out of
// a group regardless of what the heuristics decide. An exclude always beats
// the heuristics, an include always beats a heuristic rejection, and when
// both actions exist for the same market the exclude wins.
type Override struct {
	ID        int64
	MarketID  string
	Action    OverrideAction
	GroupID   string
	Note      string
	Active    bool
	CreatedAt time.Time
}
