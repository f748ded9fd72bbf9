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

func testSnap(marketID string) domain.Snapshot {
	return domain.Snapshot{
		MarketID: marketID,
		TS:       time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC),
		Outcomes: []domain.OutcomeQuote{{OutcomeID: marketID + "-yes", Label: "Yes", Mid: fp(0.5)}},
	}
}

func TestSnapshotSourceCacheHitSkipsStore(t *testing.T) {
	cache := &fakeSnapshotCache{byMarket: map[string]domain.Snapshot{"m1": testSnap("m1")}}
	store := &fakeSnapshotStore{}

	src := NewSnapshotSource(cache, store, testLogger())
	got, err := src.Latest(context.Background(), "m1")

	require.NoError(t, err)
	assert.Equal(t, "m1", got.MarketID)
	assert.Zero(t, store.reads)
}

func TestSnapshotSourceMissFallsThroughAndBackfills(t *testing.T) {
	cache := &fakeSnapshotCache{}
	store := &fakeSnapshotStore{latest: map[string]domain.Snapshot{"m1": testSnap("m1")}}

	src := NewSnapshotSource(cache, store, testLogger())
	got, err := src.Latest(context.Background(), "m1")

	require.NoError(t, err)
	assert.Equal(t, "m1", got.MarketID)
	assert.Equal(t, 1, store.reads)
	assert.Equal(t, 1, cache.sets)

	// Second read is served from the backfilled cache.
	_, err = src.Latest(context.Background(), "m1")
	require.NoError(t, err)
	assert.Equal(t, 1, store.reads)
}

func TestSnapshotSourceBrokenCacheDegradesToStore(t *testing.T) {
	cache := &fakeSnapshotCache{err: errors.New("connection refused")}
	store := &fakeSnapshotStore{latest: map[string]domain.Snapshot{"m1": testSnap("m1")}}

	src := NewSnapshotSource(cache, store, testLogger())
	got, err := src.Latest(context.Background(), "m1")

	require.NoError(t, err)
	assert.Equal(t, "m1", got.MarketID)
}

func TestSnapshotSourceNotFound(t *testing.T) {
	src := NewSnapshotSource(nil, &fakeSnapshotStore{}, testLogger())
	_, err := src.Latest(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
