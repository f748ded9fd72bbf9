package grouping

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantfold/arbscope/internal/domain"
)

func datePtr(t time.Time) *time.Time { return &t }

func mkMarket(id, platform, title string, end *time.Time) domain.Market {
	return domain.Market{
		ID:       id,
		Platform: platform,
		EventID:  "ev-" + id,
		Title:    title,
		Status:   domain.MarketStatusActive,
		EndDate:  end,
	}
}

func TestShortlistKeepsSimilarTitlesAcrossVenues(t *testing.T) {
	end := datePtr(time.Date(2026, 11, 3, 0, 0, 0, 0, time.UTC))
	target := mkMarket("m1", "polymarket", "Will Donald Trump win the 2028 presidential election?", end)
	pool := []domain.Market{
		mkMarket("m2", "kalshi", "Donald Trump wins 2028 presidential election", end),
		mkMarket("m3", "kalshi", "Will it rain in London tomorrow?", end),
	}

	got := Shortlist(target, pool, 10)

	require.Len(t, got, 1)
	assert.Equal(t, "m2", got[0].Market.ID)
	assert.GreaterOrEqual(t, got[0].Score, float64(minFuzzScore))
}

func TestShortlistPrunesDisjointEntities(t *testing.T) {
	// Near-identical phrasing, different underlying asset. The lexical
	// score alone would pass; the entity check must prune it.
	target := mkMarket("m1", "polymarket", "Will BTC close above $100k on December 31?", nil)
	pool := []domain.Market{
		mkMarket("m2", "kalshi", "Will ETH close above $100k on December 31?", nil),
	}

	got := Shortlist(target, pool, 10)

	assert.Empty(t, got)
}

func TestShortlistEntityCheckNeedsBothSides(t *testing.T) {
	// Candidate extracts no entity at all, so the fast-negative must not
	// apply and the lexical score decides.
	target := mkMarket("m1", "polymarket", "Will Biden attend the summit next week?", nil)
	pool := []domain.Market{
		mkMarket("m2", "kalshi", "Will the president attend the summit next week?", nil),
	}

	got := Shortlist(target, pool, 10)

	require.Len(t, got, 1)
	assert.Equal(t, "m2", got[0].Market.ID)
}

func TestShortlistEndDateWindow(t *testing.T) {
	base := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	target := mkMarket("m1", "polymarket", "Will Donald Trump win the 2028 presidential election?", datePtr(base))
	pool := []domain.Market{
		mkMarket("near", "kalshi", "Will Donald Trump win the 2028 presidential election?", datePtr(base.AddDate(0, 0, 59))),
		// 60 days plus a few hours: the sub-day remainder is truncated, so
		// this still sits on the window boundary.
		mkMarket("edge", "kalshi", "Will Donald Trump win the 2028 presidential election?", datePtr(base.AddDate(0, 0, 60).Add(5*time.Hour))),
		mkMarket("far", "kalshi", "Will Donald Trump win the 2028 presidential election?", datePtr(base.AddDate(0, 0, 90))),
		mkMarket("undated", "kalshi", "Will Donald Trump win the 2028 presidential election?", nil),
	}

	got := Shortlist(target, pool, 10)

	require.Len(t, got, 3)
	ids := make([]string, 0, len(got))
	for _, c := range got {
		ids = append(ids, c.Market.ID)
	}
	assert.Contains(t, ids, "near")
	assert.Contains(t, ids, "edge")
	assert.Contains(t, ids, "undated")
}

func TestShortlistExcludesSelfAndTruncates(t *testing.T) {
	target := mkMarket("m1", "polymarket", "Will Donald Trump win the 2028 presidential election?", nil)
	pool := []domain.Market{target}
	for _, id := range []string{"a", "b", "c"} {
		pool = append(pool, mkMarket(id, "kalshi", "Will Donald Trump win the 2028 presidential election?", nil))
	}

	got := Shortlist(target, pool, 2)

	require.Len(t, got, 2)
	for _, c := range got {
		assert.NotEqual(t, "m1", c.Market.ID)
	}
}

func TestShortlistDeterministicOrder(t *testing.T) {
	target := mkMarket("m1", "polymarket", "Will Donald Trump win the 2028 presidential election?", nil)
	pool := []domain.Market{
		mkMarket("a", "kalshi", "Will Donald Trump win the 2028 presidential election?", nil),
		mkMarket("b", "kalshi", "Will Donald Trump win the 2028 presidential election?", nil),
	}

	first := Shortlist(target, pool, 10)
	second := Shortlist(target, pool, 10)

	require.Equal(t, len(first), len(second))
	for i := range first {
		assert.Equal(t, first[i].Market.ID, second[i].Market.ID)
	}
	// Equal scores keep input order.
	assert.Equal(t, "a", first[0].Market.ID)
	assert.Equal(t, "b", first[1].Market.ID)
}

func TestExtractEntities(t *testing.T) {
	ents := ExtractEntities("Will Donald Trump win if BTC stays above $90k?")
	assert.Contains(t, ents, "donald trump")
	assert.Contains(t, ents, "btc")

	// Plain prose with no curated names or tickers yields nothing.
	assert.Empty(t, ExtractEntities("will it rain in london tomorrow"))
}
