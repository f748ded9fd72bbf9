package grouping

import (
	"sort"
	"strings"

	fuzzy "github.com/paul-mannino/go-fuzzywuzzy"

	"github.com/quantfold/arbscope/internal/domain"
)

const (
	// minFuzzScore is the 0-100 title-similarity floor for shortlisting.
	minFuzzScore = 70
	// endDateWindowDays is the maximum end-date gap between two markets
	// that can still describe the same event.
	endDateWindowDays = 60
)

// Candidate is a shortlisted market with its lexical similarity score.
type Candidate struct {
	Market domain.Market
	Score  float64
}

// endDateCompatible reports whether two markets' end dates are within the
// grouping window. Missing dates on either side are compatible: absence of
// a date is not evidence of a mismatch. The gap is truncated to whole days
// before comparing, so a sub-day remainder on top of the window still
// passes.
func endDateCompatible(a, b *domain.Market) bool {
	if a.EndDate == nil || b.EndDate == nil {
		return true
	}
	d := a.EndDate.Sub(*b.EndDate)
	if d < 0 {
		d = -d
	}
	return int(d.Hours()/24) <= endDateWindowDays
}

// Shortlist scores every candidate title against the target with the better
// of token-sort and partial fuzzy ratios, prunes obviously incompatible
// candidates, and returns at most k results sorted by descending score.
// Ties keep the input order, so identical inputs always shortlist
// identically.
func Shortlist(target domain.Market, pool []domain.Market, k int) []Candidate {
	tTitle := strings.ToLower(target.Title)
	tEnts := ExtractEntities(target.Title + " " + target.Description)

	scored := make([]Candidate, 0, k)
	for _, c := range pool {
		if c.ID == target.ID {
			continue
		}
		if !endDateCompatible(&target, &c) {
			continue
		}

		// Fast negative: both sides extracted entities but share none.
		// Never applied when either side extracted nothing.
		cEnts := ExtractEntities(c.Title + " " + c.Description)
		if len(tEnts) > 0 && len(cEnts) > 0 && !entitiesOverlap(tEnts, cEnts) {
			continue
		}

		cTitle := strings.ToLower(c.Title)
		score := fuzzy.TokenSortRatio(tTitle, cTitle)
		if p := fuzzy.PartialRatio(tTitle, cTitle); p > score {
			score = p
		}
		if score >= minFuzzScore {
			scored = append(scored, Candidate{Market: c, Score: float64(score)})
		}
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})
	if len(scored) > k {
		scored = scored[:k]
	}
	return scored
}
