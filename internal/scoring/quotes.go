// Package scoring turns clustered market quotes into scored opportunities:
// risk-free cross-venue dutch books and directional mispricings against the
// group consensus, both priced through a microstructure-aware effective-fill
// model.
package scoring

import (
	"strings"

	"github.com/quantfold/arbscope/internal/domain"
)

var (
	yesAliases = map[string]bool{
		"YES": true, "Y": true, "TRUE": true, "WIN": true, "UP": true, "OVER": true,
	}
	noAliases = map[string]bool{
		"NO": true, "N": true, "FALSE": true, "LOSE": true, "DOWN": true, "UNDER": true,
	}
)

// quotePrice resolves the usable price of an outcome quote. The order is
// fixed: mid first, prob second. Tests pin this preference.
func quotePrice(o domain.OutcomeQuote) *float64 {
	if o.Mid != nil {
		return o.Mid
	}
	return o.Prob
}

// YesNoMids extracts a binary YES/NO mid-price pair from a snapshot by
// case-insensitive alias matching. Either side may be nil when the snapshot
// carries no recognizable outcome for it; such markets contribute no
// dutch-book legs but may still produce per-label mispricing rows.
func YesNoMids(snap domain.Snapshot) (yes, no *float64) {
	for _, o := range snap.Outcomes {
		p := quotePrice(o)
		if p == nil {
			continue
		}
		label := strings.ToUpper(strings.TrimSpace(o.Label))
		switch {
		case yesAliases[label]:
			v := *p
			yes = &v
		case noAliases[label]:
			v := *p
			no = &v
		}
	}
	return yes, no
}
