package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantfold/arbscope/internal/domain"
	"github.com/quantfold/arbscope/internal/grouping"
)

type fakeEmbeddingStore struct {
	vectors   map[string][]float32
	neighbors []domain.Neighbor
}

func (f *fakeEmbeddingStore) Get(_ context.Context, marketID string) ([]float32, error) {
	v, ok := f.vectors[marketID]
	if !ok {
		return nil, domain.ErrNoEmbedding
	}
	return v, nil
}

func (f *fakeEmbeddingStore) Upsert(_ context.Context, marketID string, vector []float32) error {
	if f.vectors == nil {
		f.vectors = make(map[string][]float32)
	}
	f.vectors[marketID] = vector
	return nil
}

func (f *fakeEmbeddingStore) NearestByCosine(_ context.Context, _ []float32, limit int) ([]domain.Neighbor, error) {
	if len(f.neighbors) > limit {
		return f.neighbors[:limit], nil
	}
	return f.neighbors, nil
}

type fakeOverrideStore struct {
	overrides []domain.Override
}

func (f *fakeOverrideStore) ListActive(_ context.Context) ([]domain.Override, error) {
	return f.overrides, nil
}

func newGroupFixture(markets *fakeMarketStore, embeddings *fakeEmbeddingStore, snaps *fakeSnapshotStore, groups *fakeGroupStore) *GroupService {
	builder := grouping.NewBuilder(markets, embeddings, &fakeOverrideStore{}, grouping.BuilderConfig{}, testLogger())
	consensus := grouping.NewConsensus(markets, NewSnapshotSource(nil, snaps, testLogger()), testLogger())
	return NewGroupService(builder, consensus, markets, groups, nil, GroupServiceConfig{MaxSeeds: 10}, testLogger())
}

func TestRecomputeForSeedInsertsFreshRow(t *testing.T) {
	title := "Will Donald Trump win the 2028 presidential election?"
	seed := domain.Market{ID: "seed", Platform: "polymarket", Title: title, LiquidityUSD: 100}
	twin := domain.Market{ID: "twin", Platform: "kalshi", Title: title, LiquidityUSD: 300}

	markets := &fakeMarketStore{
		byID:   map[string]domain.Market{"seed": seed, "twin": twin},
		recent: []domain.Market{seed, twin},
	}
	embeddings := &fakeEmbeddingStore{
		vectors:   map[string][]float32{"seed": {0.1}},
		neighbors: []domain.Neighbor{{MarketID: "twin", Distance: 0.01}},
	}
	snaps := &fakeSnapshotStore{latest: map[string]domain.Snapshot{
		"seed": {MarketID: "seed", Outcomes: []domain.OutcomeQuote{{OutcomeID: "s", Label: "Yes", Prob: fp(0.8)}}},
		"twin": {MarketID: "twin", Outcomes: []domain.OutcomeQuote{{OutcomeID: "t", Label: "Yes", Prob: fp(0.4)}}},
	}}
	groups := &fakeGroupStore{}

	svc := newGroupFixture(markets, embeddings, snaps, groups)
	g, err := svc.RecomputeForSeed(context.Background(), "seed")

	require.NoError(t, err)
	assert.Equal(t, []string{"seed", "twin"}, g.MarketIDs)
	assert.Equal(t, title, g.Title)
	require.Len(t, g.Consensus, 1)
	// (100*0.8 + 300*0.4) / 400
	assert.InDelta(t, 0.5, g.Consensus[0].Prob, 1e-9)
	require.Len(t, groups.groups, 1)

	// Recompute inserts another history row rather than updating in place.
	_, err = svc.RecomputeForSeed(context.Background(), "seed")
	require.NoError(t, err)
	assert.Len(t, groups.groups, 2)
}

func TestRecomputeAllSkipsCoveredSeedsAndCountsFailures(t *testing.T) {
	title := "Will Donald Trump win the 2028 presidential election?"
	seed := domain.Market{ID: "seed", Platform: "polymarket", Title: title}
	twin := domain.Market{ID: "twin", Platform: "kalshi", Title: title}

	markets := &fakeMarketStore{
		byID:   map[string]domain.Market{"seed": seed, "twin": twin},
		recent: []domain.Market{seed, twin},
	}
	embeddings := &fakeEmbeddingStore{
		vectors:   map[string][]float32{"seed": {0.1}, "twin": {0.1}},
		neighbors: []domain.Neighbor{{MarketID: "seed"}, {MarketID: "twin"}},
	}
	groups := &fakeGroupStore{}

	svc := newGroupFixture(markets, embeddings, &fakeSnapshotStore{}, groups)
	res, err := svc.RecomputeAll(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 2, res.Seeds)
	assert.Zero(t, res.Failed)
	assert.False(t, res.Skipped)
	// The pass groups seed and twin together once; the covered twin does
	// not seed a second group. (Worker scheduling may occasionally let the
	// twin seed first, but the total never exceeds the seed count.)
	assert.GreaterOrEqual(t, res.Groups, 1)
	assert.LessOrEqual(t, res.Groups, 2)
}

func TestRecomputeAllSingletonWithoutEmbeddings(t *testing.T) {
	seed := domain.Market{ID: "solo", Platform: "polymarket", Title: "Standalone market"}
	markets := &fakeMarketStore{
		byID:   map[string]domain.Market{"solo": seed},
		recent: []domain.Market{seed},
	}
	groups := &fakeGroupStore{}

	svc := newGroupFixture(markets, &fakeEmbeddingStore{}, &fakeSnapshotStore{}, groups)
	res, err := svc.RecomputeAll(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, res.Groups)
	assert.Equal(t, 1, res.Singleton)
	require.Len(t, groups.groups, 1)
	assert.Equal(t, []string{"solo"}, groups.groups[0].MarketIDs)
}
