package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/quantfold/arbscope/internal/domain"
	"github.com/quantfold/arbscope/internal/grouping"
)

// recomputeLockName guards the full recompute pass so only one process
// rebuilds groups at a time.
const recomputeLockName = "grouping:recompute"

// groupWorkers bounds concurrent per-seed recomputations inside one pass.
const groupWorkers = 8

// GroupServiceConfig tunes the recompute pass.
type GroupServiceConfig struct {
	MaxSeeds int
	LockTTL  time.Duration
}

// GroupResult summarizes one recompute pass.
type GroupResult struct {
	Seeds     int
	Groups    int
	Singleton int
	Failed    int
	Skipped   bool // lock held elsewhere
}

// GroupService drives group recomputation: it picks seed markets, runs the
// builder and consensus for each, and persists a fresh group row per
// result. Earlier rows are history; readers take the most recent.
type GroupService struct {
	builder   *grouping.Builder
	consensus *grouping.Consensus
	markets   domain.MarketStore
	groups    domain.GroupStore
	locks     domain.LockManager
	cfg       GroupServiceConfig
	logger    *slog.Logger
}

// NewGroupService creates a GroupService. locks may be nil for single
// process deployments and tests.
func NewGroupService(
	builder *grouping.Builder,
	consensus *grouping.Consensus,
	markets domain.MarketStore,
	groups domain.GroupStore,
	locks domain.LockManager,
	cfg GroupServiceConfig,
	logger *slog.Logger,
) *GroupService {
	if cfg.MaxSeeds <= 0 {
		cfg.MaxSeeds = 200
	}
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = 5 * time.Minute
	}
	return &GroupService{
		builder:   builder,
		consensus: consensus,
		markets:   markets,
		groups:    groups,
		locks:     locks,
		cfg:       cfg,
		logger:    logger.With(slog.String("component", "group_service")),
	}
}

// RecomputeForSeed rebuilds the group around one seed market and inserts a
// fresh row.
func (s *GroupService) RecomputeForSeed(ctx context.Context, seedID string) (domain.Group, error) {
	members, err := s.builder.ComputeForSeed(ctx, seedID)
	if err != nil {
		return domain.Group{}, err
	}
	if len(members) == 0 {
		// The seed itself was excluded by an override.
		return domain.Group{}, domain.ErrNotFound
	}

	consensus, err := s.consensus.Compute(ctx, members)
	if err != nil {
		return domain.Group{}, err
	}

	seed, err := s.markets.GetByID(ctx, seedID)
	if err != nil {
		return domain.Group{}, fmt.Errorf("group_service: load seed %s: %w", seedID, err)
	}

	g := domain.Group{
		Title:     seed.Title,
		MarketIDs: members,
		Consensus: consensus,
	}
	id, err := s.groups.Insert(ctx, g)
	if err != nil {
		return domain.Group{}, fmt.Errorf("group_service: insert group for %s: %w", seedID, err)
	}
	g.ID = id

	s.logger.DebugContext(ctx, "group recomputed",
		slog.String("seed", seedID),
		slog.String("group_id", id),
		slog.Int("members", len(members)),
	)
	return g, nil
}

// RecomputeAll runs one full pass: up to MaxSeeds recently-updated markets
// are used as seeds, each seed not already covered by a group built earlier
// in the same pass gets its own recompute. A failed seed is counted and the
// pass continues; the pass itself only fails when no seeds can be listed.
func (s *GroupService) RecomputeAll(ctx context.Context) (GroupResult, error) {
	var res GroupResult

	if s.locks != nil {
		release, err := s.locks.Acquire(ctx, recomputeLockName, s.cfg.LockTTL)
		if err != nil {
			if errors.Is(err, domain.ErrLockHeld) {
				s.logger.InfoContext(ctx, "recompute pass already running elsewhere, skipping")
				res.Skipped = true
				return res, nil
			}
			return res, fmt.Errorf("group_service: acquire lock: %w", err)
		}
		defer release()
	}

	seeds, err := s.markets.ListRecent(ctx, s.cfg.MaxSeeds)
	if err != nil {
		return res, fmt.Errorf("group_service: list seeds: %w", err)
	}
	res.Seeds = len(seeds)

	var (
		mu      sync.Mutex
		covered = make(map[string]bool, len(seeds))
	)

	eg, gctx := errgroup.WithContext(ctx)
	eg.SetLimit(groupWorkers)

	for _, seed := range seeds {
		seed := seed
		eg.Go(func() error {
			mu.Lock()
			if covered[seed.ID] {
				mu.Unlock()
				return nil
			}
			mu.Unlock()

			g, err := s.RecomputeForSeed(gctx, seed.ID)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if errors.Is(err, domain.ErrNotFound) {
					covered[seed.ID] = true
					return nil
				}
				res.Failed++
				s.logger.WarnContext(gctx, "seed recompute failed",
					slog.String("seed", seed.ID),
					slog.String("error", err.Error()),
				)
				return nil
			}
			res.Groups++
			if len(g.MarketIDs) == 1 {
				res.Singleton++
			}
			for _, mid := range g.MarketIDs {
				covered[mid] = true
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return res, err
	}

	s.logger.InfoContext(ctx, "recompute pass finished",
		slog.Int("seeds", res.Seeds),
		slog.Int("groups", res.Groups),
		slog.Int("singletons", res.Singleton),
		slog.Int("failed", res.Failed),
	)
	return res, nil
}
