package scoring

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantfold/arbscope/internal/domain"
)

func sampleOpp() domain.Opportunity {
	ts := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	return domain.Opportunity{
		Type:    domain.OpportunityDutchBook,
		GroupID: "g1",
		Legs: []domain.Leg{
			{Platform: "polymarket", MarketID: "pm", Side: domain.SideBuyYes, PriceMid: 0.40, EffectivePrice: 0.4008, SnapshotTS: &ts},
			{Platform: "kalshi", MarketID: "ks", Side: domain.SideBuyNo, PriceMid: 0.45, EffectivePrice: 0.4509, SnapshotTS: &ts},
		},
		Params:  map[string]any{"model": ModelVersion},
		Metrics: domain.Metrics{SizeUSD: 100, EVUSD: 14.83, EdgeBps: 1483},
	}
}

func TestContentHashDeterministic(t *testing.T) {
	a, err := ContentHash(sampleOpp())
	require.NoError(t, err)
	b, err := ContentHash(sampleOpp())
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.Len(t, a, 64) // hex sha-256
}

func TestContentHashIgnoresRowIdentity(t *testing.T) {
	base, err := ContentHash(sampleOpp())
	require.NoError(t, err)

	// ID, stored hash and detection time are not identity-bearing: the
	// same economics re-detected later must collide.
	other := sampleOpp()
	other.ID = "row-42"
	other.Hash = "precomputed"
	other.DetectedAt = time.Now()
	got, err := ContentHash(other)
	require.NoError(t, err)

	assert.Equal(t, base, got)
}

func TestContentHashSensitiveToContent(t *testing.T) {
	base, err := ContentHash(sampleOpp())
	require.NoError(t, err)

	byGroup := sampleOpp()
	byGroup.GroupID = "g2"
	gotGroup, err := ContentHash(byGroup)
	require.NoError(t, err)
	assert.NotEqual(t, base, gotGroup)

	byMetrics := sampleOpp()
	byMetrics.Metrics.EVUSD = 1.0
	gotMetrics, err := ContentHash(byMetrics)
	require.NoError(t, err)
	assert.NotEqual(t, base, gotMetrics)

	byLeg := sampleOpp()
	byLeg.Legs[0].PriceMid = 0.41
	gotLeg, err := ContentHash(byLeg)
	require.NoError(t, err)
	assert.NotEqual(t, base, gotLeg)
}

func TestContentHashLegOrderMatters(t *testing.T) {
	base, err := ContentHash(sampleOpp())
	require.NoError(t, err)

	swapped := sampleOpp()
	swapped.Legs[0], swapped.Legs[1] = swapped.Legs[1], swapped.Legs[0]
	got, err := ContentHash(swapped)
	require.NoError(t, err)

	assert.NotEqual(t, base, got)
}
