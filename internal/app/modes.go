package app

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/quantfold/arbscope/internal/grouping"
	"github.com/quantfold/arbscope/internal/scoring"
	"github.com/quantfold/arbscope/internal/service"
)

// buildGroupService assembles the grouping stack.
func (a *App) buildGroupService(deps *Dependencies) *service.GroupService {
	builder := grouping.NewBuilder(
		deps.MarketStore,
		deps.EmbeddingStore,
		deps.OverrideStore,
		grouping.BuilderConfig{
			PoolLimit: a.cfg.Grouping.PoolLimit,
			ShortK:    a.cfg.Grouping.ShortK,
			NNLimit:   a.cfg.Grouping.NNLimit,
		},
		a.logger,
	)
	snapshots := service.NewSnapshotSource(deps.SnapshotCache, deps.SnapshotStore, a.logger)
	consensus := grouping.NewConsensus(deps.MarketStore, snapshots, a.logger)

	return service.NewGroupService(
		builder,
		consensus,
		deps.MarketStore,
		deps.GroupStore,
		deps.LockManager,
		service.GroupServiceConfig{
			MaxSeeds: a.cfg.Grouping.MaxSeeds,
			LockTTL:  a.cfg.Grouping.LockTTL.Duration,
		},
		a.logger,
	)
}

// buildAnalysisService assembles the scoring stack.
func (a *App) buildAnalysisService(deps *Dependencies) *service.AnalysisService {
	snapshots := service.NewSnapshotSource(deps.SnapshotCache, deps.SnapshotStore, a.logger)
	dutch := scoring.NewDutchBook(snapshots, a.logger)
	mispricing := scoring.NewMispricing(snapshots, a.logger)

	return service.NewAnalysisService(
		deps.GroupStore,
		deps.FeeStore,
		deps.OpportunityStore,
		deps.UserStore,
		deps.AlertStore,
		deps.SignalBus,
		deps.Notifier,
		deps.LockManager,
		dutch,
		mispricing,
		service.AnalysisServiceConfig{
			MaxClusters:      a.cfg.Analysis.MaxClusters,
			EnableDutchBook:  a.cfg.Analysis.EnableDutchBook,
			EnableMispricing: a.cfg.Analysis.EnableMispricing,
			MinEVAlertUSD:    a.cfg.Analysis.MinEVAlertUSD,
			SubscriberLimit:  a.cfg.Analysis.SubscriberLimit,
			Publish:          a.cfg.Analysis.PublishOnDetected,
			LockTTL:          a.cfg.Analysis.LockTTL.Duration,
		},
		a.logger,
	)
}

// buildAlertService assembles the alert-delivery stack. Returns nil when
// no Telegram sender is configured.
func (a *App) buildAlertService(deps *Dependencies) *service.AlertService {
	if deps.UserSender == nil {
		return nil
	}
	return service.NewAlertService(
		deps.AlertStore,
		deps.OpportunityStore,
		deps.UserSender,
		service.AlertServiceConfig{
			BatchSize:   a.cfg.Alerts.BatchSize,
			Cooldown:    time.Duration(a.cfg.Alerts.CooldownSec) * time.Second,
			MinEVChange: a.cfg.Alerts.MinEVChange,
		},
		a.logger,
	)
}

// runEvery runs fn immediately and then on every tick until the context is
// cancelled. Errors from fn are logged; the loop keeps running.
func (a *App) runEvery(ctx context.Context, name string, interval time.Duration, fn func(context.Context) error) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if err := fn(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			a.logger.ErrorContext(ctx, "pass failed",
				slog.String("loop", name),
				slog.String("error", err.Error()),
			)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// GroupMode runs the group-recompute loop.
func (a *App) GroupMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting group mode")
	groupSvc := a.buildGroupService(deps)
	return a.runEvery(ctx, "grouping", a.cfg.Grouping.Interval.Duration, func(ctx context.Context) error {
		_, err := groupSvc.RecomputeAll(ctx)
		return err
	})
}

// AnalyzeMode runs the opportunity-scoring loop.
func (a *App) AnalyzeMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting analyze mode")
	analysisSvc := a.buildAnalysisService(deps)
	return a.runEvery(ctx, "analysis", a.cfg.Analysis.Interval.Duration, func(ctx context.Context) error {
		_, err := analysisSvc.ComputeOpportunities(ctx)
		return err
	})
}

// AlertsMode runs the alert-delivery loop.
func (a *App) AlertsMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting alerts mode")
	alertSvc := a.buildAlertService(deps)
	if alertSvc == nil {
		a.logger.WarnContext(ctx, "no telegram sender configured, alert loop idle")
		<-ctx.Done()
		return ctx.Err()
	}
	return a.runEvery(ctx, "alerts", a.cfg.Alerts.Interval.Duration, func(ctx context.Context) error {
		_, err := alertSvc.ProcessPending(ctx)
		return err
	})
}

// ArchiveMode runs the opportunity-archival loop.
func (a *App) ArchiveMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting archive mode")
	retention := time.Duration(a.cfg.Archive.RetentionDays) * 24 * time.Hour
	return a.runEvery(ctx, "archive", a.cfg.Archive.Interval.Duration, func(ctx context.Context) error {
		cutoff := time.Now().UTC().Add(-retention)
		_, err := deps.Archiver.ArchiveOpportunities(ctx, cutoff)
		return err
	})
}

// FullMode runs every loop concurrently: grouping, analysis, alert
// delivery, and archival when enabled.
func (a *App) FullMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting full mode")

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error { return a.GroupMode(ctx, deps) })
	g.Go(func() error { return a.AnalyzeMode(ctx, deps) })
	g.Go(func() error { return a.AlertsMode(ctx, deps) })
	if a.cfg.Archive.Enabled && deps.Archiver != nil {
		g.Go(func() error { return a.ArchiveMode(ctx, deps) })
	}

	return g.Wait()
}
