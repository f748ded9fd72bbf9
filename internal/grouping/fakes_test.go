package grouping

import (
	"context"
	"io"
	"log/slog"

	"github.com/quantfold/arbscope/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeMarketStore struct {
	byID   map[string]domain.Market
	recent []domain.Market
}

func (f *fakeMarketStore) GetByID(_ context.Context, id string) (domain.Market, error) {
	m, ok := f.byID[id]
	if !ok {
		return domain.Market{}, domain.ErrNotFound
	}
	return m, nil
}

func (f *fakeMarketStore) ListRecent(_ context.Context, limit int) ([]domain.Market, error) {
	if len(f.recent) > limit {
		return f.recent[:limit], nil
	}
	return f.recent, nil
}

func (f *fakeMarketStore) ListByIDs(_ context.Context, ids []string) ([]domain.Market, error) {
	var out []domain.Market
	for _, id := range ids {
		if m, ok := f.byID[id]; ok {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakeMarketStore) Upsert(_ context.Context, m domain.Market) (string, error) {
	if f.byID == nil {
		f.byID = make(map[string]domain.Market)
	}
	f.byID[m.ID] = m
	return m.ID, nil
}

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
	err       error
}

func (f *fakeOverrideStore) ListActive(_ context.Context) ([]domain.Override, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.overrides, nil
}

type fakeSnapshotReader struct {
	byMarket map[string]domain.Snapshot
}

func (f *fakeSnapshotReader) Latest(_ context.Context, marketID string) (domain.Snapshot, error) {
	s, ok := f.byMarket[marketID]
	if !ok {
		return domain.Snapshot{}, domain.ErrNotFound
	}
	return s, nil
}
