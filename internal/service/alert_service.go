package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"sync"
	"time"

	"github.com/quantfold/arbscope/internal/domain"
	"github.com/quantfold/arbscope/internal/notify"
)

// AlertServiceConfig tunes alert delivery.
type AlertServiceConfig struct {
	BatchSize   int
	Cooldown    time.Duration
	MinEVChange float64
}

// AlertResult summarizes one delivery pass.
type AlertResult struct {
	Sent       int
	Suppressed int
	Dangling   int
	Failed     int
}

// lastDelivery records the most recent send per (user, group, type) so
// near-identical re-detections inside the cooldown window stay quiet.
type lastDelivery struct {
	at time.Time
	ev float64
}

// AlertService drains the pending alert queue and delivers Telegram
// messages to subscribers. Duplicate noise is suppressed: an alert for the
// same user, group and opportunity type inside the cooldown window is
// dropped unless its EV moved by at least MinEVChange dollars.
type AlertService struct {
	alerts domain.AlertStore
	opps   domain.OpportunityStore
	sender notify.UserSender
	cfg    AlertServiceConfig
	logger *slog.Logger
	now    func() time.Time

	mu   sync.Mutex
	seen map[string]lastDelivery
}

// NewAlertService creates an AlertService.
func NewAlertService(
	alerts domain.AlertStore,
	opps domain.OpportunityStore,
	sender notify.UserSender,
	cfg AlertServiceConfig,
	logger *slog.Logger,
) *AlertService {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = 5 * time.Minute
	}
	if cfg.MinEVChange <= 0 {
		cfg.MinEVChange = 1.0
	}
	return &AlertService{
		alerts: alerts,
		opps:   opps,
		sender: sender,
		cfg:    cfg,
		logger: logger.With(slog.String("component", "alert_service")),
		now:    time.Now,
		seen:   make(map[string]lastDelivery),
	}
}

// ProcessPending delivers one batch of pending alerts, oldest first. A
// failing delivery leaves its row pending for the next pass; dangling rows
// (opportunity archived or pruned meanwhile) are resolved without a send.
func (s *AlertService) ProcessPending(ctx context.Context) (AlertResult, error) {
	var res AlertResult

	pending, err := s.alerts.ListPending(ctx, s.cfg.BatchSize)
	if err != nil {
		return res, fmt.Errorf("alert_service: list pending: %w", err)
	}

	for _, alert := range pending {
		switch outcome, err := s.deliver(ctx, alert); {
		case err != nil:
			res.Failed++
			s.logger.WarnContext(ctx, "alert delivery failed",
				slog.Int64("alert_id", alert.ID),
				slog.String("user_id", alert.UserID),
				slog.String("error", err.Error()),
			)
		case outcome == outcomeSent:
			res.Sent++
		case outcome == outcomeSuppressed:
			res.Suppressed++
		case outcome == outcomeDangling:
			res.Dangling++
		}
	}

	if len(pending) > 0 {
		s.logger.InfoContext(ctx, "alert pass finished",
			slog.Int("pending", len(pending)),
			slog.Int("sent", res.Sent),
			slog.Int("suppressed", res.Suppressed),
			slog.Int("dangling", res.Dangling),
			slog.Int("failed", res.Failed),
		)
	}
	return res, nil
}

type deliveryOutcome int

const (
	outcomeSent deliveryOutcome = iota
	outcomeSuppressed
	outcomeDangling
)

func (s *AlertService) deliver(ctx context.Context, alert domain.Alert) (deliveryOutcome, error) {
	opp, err := s.opps.GetByID(ctx, alert.OpportunityID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			// Opportunity vanished; resolve the row so it stops requeueing.
			if markErr := s.alerts.MarkSent(ctx, alert.ID, s.now().UTC(), 0); markErr != nil {
				return 0, markErr
			}
			return outcomeDangling, nil
		}
		return 0, fmt.Errorf("load opportunity %s: %w", alert.OpportunityID, err)
	}

	now := s.now().UTC()
	key := alert.UserID + "|" + opp.GroupID + "|" + string(opp.Type)

	s.mu.Lock()
	last, dup := s.seen[key]
	s.mu.Unlock()

	if dup && now.Sub(last.at) < s.cfg.Cooldown && math.Abs(opp.Metrics.EVUSD-last.ev) < s.cfg.MinEVChange {
		if err := s.alerts.MarkSent(ctx, alert.ID, now, opp.Metrics.EVUSD); err != nil {
			return 0, err
		}
		return outcomeSuppressed, nil
	}

	chatID, err := strconv.ParseInt(alert.UserID, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse user id %q: %w", alert.UserID, err)
	}

	title, body := notify.FormatOpportunity(opp)
	if err := s.sender.SendTo(ctx, chatID, title, body); err != nil {
		return 0, fmt.Errorf("send to %d: %w", chatID, err)
	}

	if err := s.alerts.MarkSent(ctx, alert.ID, now, opp.Metrics.EVUSD); err != nil {
		return 0, err
	}

	s.mu.Lock()
	s.seen[key] = lastDelivery{at: now, ev: opp.Metrics.EVUSD}
	s.mu.Unlock()

	return outcomeSent, nil
}
