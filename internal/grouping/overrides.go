package grouping

import "github.com/quantfold/arbscope/internal/domain"

// ApplyOverrides enforces explicit include/exclude directives on a candidate
// member list. Excluded markets are dropped even when the heuristics scored
// them highly; included markets are appended even when they were never in
// the candidate pool. A market carrying both directives is contradictory
// input and the exclude wins.
//
// Output order is deterministic: surviving members keep their input order,
// forced includes follow in override order.
func ApplyOverrides(members []string, overrides []domain.Override) []string {
	forced := make([]string, 0)
	removed := make(map[string]bool)
	forcedSeen := make(map[string]bool)

	for _, o := range overrides {
		if !o.Active {
			continue
		}
		switch o.Action {
		case domain.OverrideExclude:
			removed[o.MarketID] = true
		case domain.OverrideInclude:
			if !forcedSeen[o.MarketID] {
				forcedSeen[o.MarketID] = true
				forced = append(forced, o.MarketID)
			}
		}
	}

	present := make(map[string]bool, len(members))
	out := make([]string, 0, len(members)+len(forced))
	for _, m := range members {
		if removed[m] || present[m] {
			continue
		}
		present[m] = true
		out = append(out, m)
	}
	for _, m := range forced {
		// Exclude beats include on the same market.
		if removed[m] || present[m] {
			continue
		}
		present[m] = true
		out = append(out, m)
	}
	return out
}
