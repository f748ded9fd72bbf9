package grouping

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/quantfold/arbscope/internal/domain"
)

const (
	defaultPoolLimit = 1000
	defaultShortK    = 120
	defaultNNLimit   = 100
)

// BuilderConfig tunes the candidate funnel of the group builder.
type BuilderConfig struct {
	PoolLimit int // recent-market candidate pool size
	ShortK    int // lexical shortlist cap
	NNLimit   int // nearest-neighbor result cap
}

func (c BuilderConfig) withDefaults() BuilderConfig {
	if c.PoolLimit <= 0 {
		c.PoolLimit = defaultPoolLimit
	}
	if c.ShortK <= 0 {
		c.ShortK = defaultShortK
	}
	if c.NNLimit <= 0 {
		c.NNLimit = defaultNNLimit
	}
	return c
}

// Builder assembles, for a seed market, the set of markets across venues
// believed to represent the same event. Given an identical market pool,
// override set and embeddings, the result is identical on every run.
type Builder struct {
	markets    domain.MarketStore
	embeddings domain.EmbeddingStore
	overrides  domain.OverrideStore
	cfg        BuilderConfig
	logger     *slog.Logger
}

// NewBuilder creates a Builder with all collaborators injected.
func NewBuilder(
	markets domain.MarketStore,
	embeddings domain.EmbeddingStore,
	overrides domain.OverrideStore,
	cfg BuilderConfig,
	logger *slog.Logger,
) *Builder {
	return &Builder{
		markets:    markets,
		embeddings: embeddings,
		overrides:  overrides,
		cfg:        cfg.withDefaults(),
		logger:     logger.With(slog.String("component", "group_builder")),
	}
}

// ComputeForSeed builds the member list for one seed market:
//
//  1. load the seed and a bounded pool of recently-updated markets
//  2. lexical shortlist
//  3. no embedding yet -> {seed} alone; grouping re-runs once a vector lands
//  4. intersect the shortlist with the embedding nearest-neighbor set,
//     re-checking end-date proximity against the seed
//  5. union with the seed, then apply overrides
//
// The seed is always the first element of the returned list (unless an
// exclude override removes it).
func (b *Builder) ComputeForSeed(ctx context.Context, seedID string) ([]string, error) {
	seed, err := b.markets.GetByID(ctx, seedID)
	if err != nil {
		return nil, fmt.Errorf("grouping: load seed %s: %w", seedID, err)
	}

	pool, err := b.markets.ListRecent(ctx, b.cfg.PoolLimit)
	if err != nil {
		return nil, fmt.Errorf("grouping: load candidate pool: %w", err)
	}

	short := Shortlist(seed, pool, b.cfg.ShortK)

	vec, err := b.embeddings.Get(ctx, seedID)
	if err != nil {
		if errors.Is(err, domain.ErrNoEmbedding) || errors.Is(err, domain.ErrNotFound) {
			// Similarity unknown, not zero. Degrade to a singleton group
			// rather than guessing from the lexical score alone.
			b.logger.DebugContext(ctx, "seed has no embedding, singleton group",
				slog.String("seed", seedID),
			)
			return b.applyActiveOverrides(ctx, []string{seedID})
		}
		return nil, fmt.Errorf("grouping: load embedding for %s: %w", seedID, err)
	}

	neighbors, err := b.embeddings.NearestByCosine(ctx, vec, b.cfg.NNLimit)
	if err != nil {
		return nil, fmt.Errorf("grouping: nearest neighbors for %s: %w", seedID, err)
	}
	nearIDs := make(map[string]bool, len(neighbors))
	for _, n := range neighbors {
		nearIDs[n.MarketID] = true
	}

	members := []string{seedID}
	for _, cand := range short {
		// The pool the oracle indexed may differ from the shortlist pool,
		// so the end-date window is checked again here.
		if nearIDs[cand.Market.ID] && endDateCompatible(&seed, &cand.Market) {
			members = append(members, cand.Market.ID)
		}
	}

	return b.applyActiveOverrides(ctx, members)
}

// applyActiveOverrides loads the current override set and enforces it. An
// unreachable override store fails the unit: emitting a group that might
// violate an explicit exclude is worse than skipping this pass.
func (b *Builder) applyActiveOverrides(ctx context.Context, members []string) ([]string, error) {
	ovs, err := b.overrides.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("grouping: list overrides: %w", err)
	}
	return ApplyOverrides(members, ovs), nil
}
