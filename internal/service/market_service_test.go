package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantfold/arbscope/internal/domain"
)

func TestUpsertMarketReturnsRowID(t *testing.T) {
	markets := &fakeMarketStore{}
	svc := NewMarketService(markets, &fakeSnapshotStore{}, nil, &fakeEmbeddingStore{}, testLogger())

	id, err := svc.UpsertMarket(context.Background(), domain.Market{
		ID:       "m1",
		Platform: "polymarket",
		EventID:  "ev-1",
		Title:    "Will Donald Trump win the 2028 presidential election?",
	})

	require.NoError(t, err)
	assert.Equal(t, "m1", id)
	assert.Contains(t, markets.byID, "m1")
}

func TestRecordSnapshotRefreshesCache(t *testing.T) {
	store := &fakeSnapshotStore{}
	cache := &fakeSnapshotCache{}
	svc := NewMarketService(&fakeMarketStore{}, store, cache, &fakeEmbeddingStore{}, testLogger())

	snap := testSnap("m1")
	require.NoError(t, svc.RecordSnapshot(context.Background(), snap))

	assert.Contains(t, store.latest, "m1")
	assert.Equal(t, 1, cache.sets)
}

func TestRecordSnapshotToleratesCacheFailure(t *testing.T) {
	store := &fakeSnapshotStore{}
	cache := &fakeSnapshotCache{err: errors.New("connection refused")}
	svc := NewMarketService(&fakeMarketStore{}, store, cache, &fakeEmbeddingStore{}, testLogger())

	// The store row is the source of truth; a broken cache must not fail
	// the write.
	require.NoError(t, svc.RecordSnapshot(context.Background(), testSnap("m1")))
	assert.Contains(t, store.latest, "m1")
}

func TestRecordSnapshotWithoutCache(t *testing.T) {
	store := &fakeSnapshotStore{}
	svc := NewMarketService(&fakeMarketStore{}, store, nil, &fakeEmbeddingStore{}, testLogger())

	require.NoError(t, svc.RecordSnapshot(context.Background(), testSnap("m1")))
	assert.Contains(t, store.latest, "m1")
}

func TestUpsertEmbeddingRejectsEmptyVector(t *testing.T) {
	embeddings := &fakeEmbeddingStore{}
	svc := NewMarketService(&fakeMarketStore{}, &fakeSnapshotStore{}, nil, embeddings, testLogger())

	err := svc.UpsertEmbedding(context.Background(), "m1", nil)

	require.Error(t, err)
	assert.Empty(t, embeddings.vectors)
}

func TestUpsertEmbeddingStoresVector(t *testing.T) {
	embeddings := &fakeEmbeddingStore{}
	svc := NewMarketService(&fakeMarketStore{}, &fakeSnapshotStore{}, nil, embeddings, testLogger())

	require.NoError(t, svc.UpsertEmbedding(context.Background(), "m1", []float32{0.1, 0.2}))
	assert.Equal(t, []float32{0.1, 0.2}, embeddings.vectors["m1"])
}

func TestBuildEmbedText(t *testing.T) {
	end := time.Date(2028, 11, 7, 0, 0, 0, 0, time.UTC)
	m := domain.Market{
		Title:       "  Will Donald Trump win the 2028 presidential election?  ",
		Description: "Resolves YES if Trump wins the electoral college. ",
		EndDate:     &end,
		Outcomes: []domain.Outcome{
			{OutcomeID: "o1", Label: "Yes"},
			{OutcomeID: "o2", Label: "No"},
		},
	}

	want := "query: Will Donald Trump win the 2028 presidential election?\n" +
		"end:2028-11-07T00:00:00Z\n" +
		"outcomes:Yes, No\n" +
		"desc:Resolves YES if Trump wins the electoral college."
	assert.Equal(t, want, BuildEmbedText(m))
}

func TestBuildEmbedTextSparseMarket(t *testing.T) {
	got := BuildEmbedText(domain.Market{Title: "Standalone market"})
	assert.Equal(t, "query: Standalone market\nend:\noutcomes:\ndesc:", got)
}
