package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/quantfold/arbscope/internal/domain"
	"github.com/quantfold/arbscope/internal/notify"
	"github.com/quantfold/arbscope/internal/scoring"
)

// analysisLockName guards the analysis pass.
const analysisLockName = "analysis:compute"

// AnalysisServiceConfig tunes the opportunity-scoring pass.
type AnalysisServiceConfig struct {
	MaxClusters      int
	EnableDutchBook  bool
	EnableMispricing bool
	MinEVAlertUSD    float64
	SubscriberLimit  int
	Publish          bool
	LockTTL          time.Duration
}

// AnalysisResult summarizes one scoring pass.
type AnalysisResult struct {
	ScannedClusters int
	Detected        int
	Inserted        int
	Duplicates      int
	AlertsEnqueued  int
	Failed          int
	Skipped         bool
}

// AnalysisService runs the scoring pass: it walks recent groups, scores
// each with the enabled detectors, persists new opportunities by content
// hash, publishes them on the signal bus, and fans out alert rows to
// subscribed users when the EV clears the threshold.
type AnalysisService struct {
	groups     domain.GroupStore
	fees       domain.FeeStore
	opps       domain.OpportunityStore
	users      domain.UserStore
	alerts     domain.AlertStore
	bus        domain.SignalBus
	notifier   *notify.Notifier
	locks      domain.LockManager
	dutchBook  *scoring.DutchBook
	mispricing *scoring.Mispricing
	cfg        AnalysisServiceConfig
	logger     *slog.Logger
}

// NewAnalysisService creates an AnalysisService. bus, notifier, locks,
// users and alerts may be nil; the corresponding side effects are skipped.
func NewAnalysisService(
	groups domain.GroupStore,
	fees domain.FeeStore,
	opps domain.OpportunityStore,
	users domain.UserStore,
	alerts domain.AlertStore,
	bus domain.SignalBus,
	notifier *notify.Notifier,
	locks domain.LockManager,
	dutchBook *scoring.DutchBook,
	mispricing *scoring.Mispricing,
	cfg AnalysisServiceConfig,
	logger *slog.Logger,
) *AnalysisService {
	if cfg.MaxClusters <= 0 {
		cfg.MaxClusters = 100
	}
	if cfg.SubscriberLimit <= 0 {
		cfg.SubscriberLimit = 500
	}
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = 2 * time.Minute
	}
	return &AnalysisService{
		groups:     groups,
		fees:       fees,
		opps:       opps,
		users:      users,
		alerts:     alerts,
		bus:        bus,
		notifier:   notifier,
		locks:      locks,
		dutchBook:  dutchBook,
		mispricing: mispricing,
		cfg:        cfg,
		logger:     logger.With(slog.String("component", "analysis_service")),
	}
}

// ComputeOpportunities runs one scoring pass over the most recent groups.
// A group that fails to score is counted and skipped; the pass continues
// with the rest.
func (s *AnalysisService) ComputeOpportunities(ctx context.Context) (AnalysisResult, error) {
	var res AnalysisResult

	if s.locks != nil {
		release, err := s.locks.Acquire(ctx, analysisLockName, s.cfg.LockTTL)
		if err != nil {
			if errors.Is(err, domain.ErrLockHeld) {
				s.logger.InfoContext(ctx, "analysis pass already running elsewhere, skipping")
				res.Skipped = true
				return res, nil
			}
			return res, fmt.Errorf("analysis_service: acquire lock: %w", err)
		}
		defer release()
	}

	groups, err := s.groups.ListRecent(ctx, s.cfg.MaxClusters)
	if err != nil {
		return res, fmt.Errorf("analysis_service: list groups: %w", err)
	}

	fees, err := s.fees.All(ctx)
	if err != nil {
		return res, fmt.Errorf("analysis_service: load fee table: %w", err)
	}

	for _, g := range groups {
		res.ScannedClusters++

		opps, err := s.scoreGroup(ctx, g, fees)
		if err != nil {
			res.Failed++
			s.logger.WarnContext(ctx, "group scoring failed",
				slog.String("group_id", g.ID),
				slog.String("error", err.Error()),
			)
			continue
		}
		res.Detected += len(opps)

		for _, opp := range opps {
			inserted, id, err := s.opps.InsertIfNew(ctx, opp)
			if err != nil {
				res.Failed++
				s.logger.WarnContext(ctx, "opportunity insert failed",
					slog.String("group_id", g.ID),
					slog.String("hash", opp.Hash),
					slog.String("error", err.Error()),
				)
				continue
			}
			if !inserted {
				res.Duplicates++
				continue
			}
			opp.ID = id
			res.Inserted++

			s.announce(ctx, opp)

			if opp.Metrics.EVUSD >= s.cfg.MinEVAlertUSD {
				res.AlertsEnqueued += s.fanOut(ctx, opp)
			}
		}
	}

	s.logger.InfoContext(ctx, "analysis pass finished",
		slog.Int("clusters", res.ScannedClusters),
		slog.Int("detected", res.Detected),
		slog.Int("inserted", res.Inserted),
		slog.Int("duplicates", res.Duplicates),
		slog.Int("alerts_enqueued", res.AlertsEnqueued),
		slog.Int("failed", res.Failed),
	)
	return res, nil
}

// scoreGroup runs every enabled detector over one group.
func (s *AnalysisService) scoreGroup(ctx context.Context, g domain.Group, fees domain.FeeTable) ([]domain.Opportunity, error) {
	var out []domain.Opportunity

	if s.cfg.EnableDutchBook && s.dutchBook != nil {
		opps, err := s.dutchBook.Score(ctx, g, fees)
		if err != nil {
			return nil, err
		}
		out = append(out, opps...)
	}

	if s.cfg.EnableMispricing && s.mispricing != nil {
		opps, err := s.mispricing.Score(ctx, g)
		if err != nil {
			return nil, err
		}
		out = append(out, opps...)
	}

	return out, nil
}

// announce publishes a freshly-inserted opportunity to the signal bus and
// the broadcast channels. Both are best-effort: the row is already durable.
func (s *AnalysisService) announce(ctx context.Context, opp domain.Opportunity) {
	if s.cfg.Publish && s.bus != nil {
		if err := s.bus.Publish(ctx, opp); err != nil {
			s.logger.WarnContext(ctx, "signal publish failed",
				slog.String("opportunity_id", opp.ID),
				slog.String("error", err.Error()),
			)
		}
	}
	if s.notifier != nil && opp.Metrics.EVUSD >= s.cfg.MinEVAlertUSD {
		title, body := notify.FormatOpportunity(opp)
		if err := s.notifier.Notify(ctx, string(opp.Type), title, body); err != nil {
			s.logger.WarnContext(ctx, "broadcast notify failed",
				slog.String("opportunity_id", opp.ID),
				slog.String("error", err.Error()),
			)
		}
	}
}

// fanOut enqueues one alert row per subscribed user and returns the number
// enqueued. Individual enqueue failures are logged and skipped.
func (s *AnalysisService) fanOut(ctx context.Context, opp domain.Opportunity) int {
	if s.users == nil || s.alerts == nil {
		return 0
	}

	users, err := s.users.ListSubscribed(ctx, s.cfg.SubscriberLimit)
	if err != nil {
		s.logger.WarnContext(ctx, "list subscribers failed",
			slog.String("opportunity_id", opp.ID),
			slog.String("error", err.Error()),
		)
		return 0
	}

	enqueued := 0
	for _, u := range users {
		uid := u.TelegramID
		if err := s.alerts.Enqueue(ctx, uid, opp.ID); err != nil {
			s.logger.WarnContext(ctx, "alert enqueue failed",
				slog.String("user_id", uid),
				slog.String("opportunity_id", opp.ID),
				slog.String("error", err.Error()),
			)
			continue
		}
		enqueued++
	}
	return enqueued
}
