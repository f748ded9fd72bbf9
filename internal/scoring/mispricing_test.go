package scoring

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantfold/arbscope/internal/domain"
)

func newMispricing(snaps *fakeSnapshotReader, now time.Time) *Mispricing {
	m := NewMispricing(snaps, testLogger())
	m.now = func() time.Time { return now }
	return m
}

func TestMispricingEmitsUnderpricedOnly(t *testing.T) {
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	snaps := &fakeSnapshotReader{byMarket: map[string]domain.Snapshot{
		"cheap": {
			MarketID: "cheap",
			TS:       now,
			Outcomes: []domain.OutcomeQuote{{OutcomeID: "c-yes", Label: "Yes", Mid: fp(0.50)}},
			Fees:     map[string]any{domain.PlatformHintKey: "kalshi"},
		},
		"rich": {
			MarketID: "rich",
			TS:       now,
			Outcomes: []domain.OutcomeQuote{{OutcomeID: "r-yes", Label: "Yes", Mid: fp(0.70)}},
			Fees:     map[string]any{domain.PlatformHintKey: "polymarket"},
		},
	}}
	g := domain.Group{
		ID:        "g1",
		MarketIDs: []string{"cheap", "rich"},
		Consensus: []domain.ConsensusEntry{{Label: "Yes", Prob: 0.60}},
	}

	opps, err := newMispricing(snaps, now).Score(context.Background(), g)

	require.NoError(t, err)
	require.Len(t, opps, 1)
	opp := opps[0]
	assert.Equal(t, domain.OpportunityCrossMispricing, opp.Type)
	require.Len(t, opp.Legs, 1)
	assert.Equal(t, "cheap", opp.Legs[0].MarketID)
	assert.Equal(t, "BUY_YES", opp.Legs[0].Side)
	assert.Equal(t, "kalshi", opp.Legs[0].Platform)
	// edge 0.10 at the fixed $500 size.
	assert.InDelta(t, 50.0, opp.Metrics.EVUSD, 1e-9)
	assert.Equal(t, 1000, opp.Metrics.EdgeBps)
	assert.InDelta(t, MispricingSizeUSD, opp.Metrics.SizeUSD, 1e-9)
	assert.NotEmpty(t, opp.Hash)
}

func TestMispricingNoConsensusNoRows(t *testing.T) {
	snaps := &fakeSnapshotReader{byMarket: map[string]domain.Snapshot{}}
	g := domain.Group{ID: "g1", MarketIDs: []string{"a"}}

	opps, err := newMispricing(snaps, time.Now()).Score(context.Background(), g)

	require.NoError(t, err)
	assert.Empty(t, opps)
}

func TestMispricingCaseInsensitiveLabels(t *testing.T) {
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	snaps := &fakeSnapshotReader{byMarket: map[string]domain.Snapshot{
		"a": {
			MarketID: "a",
			TS:       now,
			Outcomes: []domain.OutcomeQuote{{OutcomeID: "o", Label: "YES", Mid: fp(0.40)}},
		},
	}}
	g := domain.Group{
		ID:        "g1",
		MarketIDs: []string{"a"},
		Consensus: []domain.ConsensusEntry{{Label: "yes", Prob: 0.55}},
	}

	opps, err := newMispricing(snaps, now).Score(context.Background(), g)

	require.NoError(t, err)
	require.Len(t, opps, 1)
	assert.Equal(t, "BUY_YES", opps[0].Legs[0].Side)
}

func TestMispricingPrefersMidOverProb(t *testing.T) {
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	snaps := &fakeSnapshotReader{byMarket: map[string]domain.Snapshot{
		"a": {
			MarketID: "a",
			TS:       now,
			// Mid says underpriced, prob says fair; mid must win here.
			Outcomes: []domain.OutcomeQuote{{OutcomeID: "o", Label: "Yes", Mid: fp(0.50), Prob: fp(0.60)}},
		},
	}}
	g := domain.Group{
		ID:        "g1",
		MarketIDs: []string{"a"},
		Consensus: []domain.ConsensusEntry{{Label: "Yes", Prob: 0.60}},
	}

	opps, err := newMispricing(snaps, now).Score(context.Background(), g)

	require.NoError(t, err)
	require.Len(t, opps, 1)
	assert.InDelta(t, 0.50, opps[0].Legs[0].PriceMid, 1e-9)
	assert.InDelta(t, 50.0, opps[0].Metrics.EVUSD, 1e-9)
}

func TestMispricingSkipsUnknownLabelsAndMalformedQuotes(t *testing.T) {
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	snaps := &fakeSnapshotReader{byMarket: map[string]domain.Snapshot{
		"a": {
			MarketID: "a",
			TS:       now,
			Outcomes: []domain.OutcomeQuote{
				{OutcomeID: "o1", Label: "Maybe", Mid: fp(0.10)}, // no consensus entry
				{OutcomeID: "o2", Label: "Yes"},                  // no price at all
			},
		},
	}}
	g := domain.Group{
		ID:        "g1",
		MarketIDs: []string{"a"},
		Consensus: []domain.ConsensusEntry{{Label: "Yes", Prob: 0.60}},
	}

	opps, err := newMispricing(snaps, now).Score(context.Background(), g)

	require.NoError(t, err)
	assert.Empty(t, opps)
}
