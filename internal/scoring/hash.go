package scoring

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/quantfold/arbscope/internal/domain"
)

// ContentHash canonicalizes the identity-bearing fields of an opportunity
// into compact JSON with sorted keys and returns the hex SHA-256. The hash
// is a pure function of {type, group_id, legs, params, metrics}: re-scoring
// unchanged inputs reproduces the same hash, which is what makes the
// hash-keyed insert idempotent.
func ContentHash(opp domain.Opportunity) (string, error) {
	legs := make([]map[string]any, 0, len(opp.Legs))
	for _, l := range opp.Legs {
		leg := map[string]any{
			"platform":  l.Platform,
			"market_id": l.MarketID,
			"side":      l.Side,
			"price_mid": l.PriceMid,
		}
		if l.EffectivePrice > 0 {
			leg["effective"] = l.EffectivePrice
		}
		if l.SnapshotTS != nil {
			leg["snapshot_ts"] = l.SnapshotTS.UTC().Format("2006-01-02T15:04:05.999999999Z07:00")
		}
		legs = append(legs, leg)
	}

	payload := map[string]any{
		"type":     string(opp.Type),
		"group_id": opp.GroupID,
		"legs":     legs,
		"params":   opp.Params,
		"metrics": map[string]any{
			"size_usd": opp.Metrics.SizeUSD,
			"ev_usd":   opp.Metrics.EVUSD,
			"edge_bps": opp.Metrics.EdgeBps,
		},
	}

	// encoding/json emits map keys in sorted order, giving a stable
	// canonical form.
	blob, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("scoring: canonicalize opportunity: %w", err)
	}
	sum := sha256.Sum256(blob)
	return hex.EncodeToString(sum[:]), nil
}
