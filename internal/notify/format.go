package notify

import (
	"fmt"
	"strings"

	"github.com/quantfold/arbscope/internal/domain"
)

// FormatOpportunity renders an opportunity as an alert title and body.
func FormatOpportunity(opp domain.Opportunity) (title, body string) {
	switch opp.Type {
	case domain.OpportunityDutchBook:
		title = fmt.Sprintf("Dutch book: $%.2f EV (%d bps)", opp.Metrics.EVUSD, opp.Metrics.EdgeBps)
	case domain.OpportunityCrossMispricing:
		title = fmt.Sprintf("Mispricing: $%.2f EV (%d bps)", opp.Metrics.EVUSD, opp.Metrics.EdgeBps)
	default:
		title = fmt.Sprintf("Opportunity: $%.2f EV", opp.Metrics.EVUSD)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Size: $%.0f\n", opp.Metrics.SizeUSD)
	for _, leg := range opp.Legs {
		fmt.Fprintf(&b, "%s %s on %s @ %.4f", leg.Side, leg.MarketID, leg.Platform, leg.PriceMid)
		if leg.EffectivePrice != 0 {
			fmt.Fprintf(&b, " (eff %.4f)", leg.EffectivePrice)
		}
		b.WriteByte('\n')
	}
	if opp.GroupID != "" {
		fmt.Fprintf(&b, "Group: %s\n", opp.GroupID)
	}
	body = strings.TrimRight(b.String(), "\n")
	return title, body
}
