// Package notify delivers arbitrage alerts. Broadcast channels (a Discord
// webhook, an ops Telegram chat) receive every alert; subscribed users get
// per-chat Telegram messages driven by the alert queue.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// Sender is a broadcast notification channel.
type Sender interface {
	// Send delivers a notification with the given title and message body.
	Send(ctx context.Context, title, message string) error
	// Name returns a human-readable identifier for the sender (e.g. "telegram").
	Name() string
}

// UserSender delivers a message to one specific Telegram chat.
type UserSender interface {
	SendTo(ctx context.Context, chatID int64, title, message string) error
}

// Notifier fans an alert out to all registered broadcast senders. It keeps
// a set of allowed opportunity types; Notify forwards only alerts whose
// type is in the set, while NotifyAll bypasses the filter.
type Notifier struct {
	senders []Sender
	types   map[string]bool
	logger  *slog.Logger
}

// NewNotifier creates a Notifier delivering to the given senders. Only
// alerts whose opportunity type appears in types are forwarded by Notify.
// An empty types slice allows everything.
func NewNotifier(senders []Sender, types []string, logger *slog.Logger) *Notifier {
	allowed := make(map[string]bool, len(types))
	for _, t := range types {
		allowed[strings.TrimSpace(t)] = true
	}
	return &Notifier{
		senders: senders,
		types:   allowed,
		logger:  logger.With(slog.String("component", "notifier")),
	}
}

// Notify sends an alert to all senders if its opportunity type is allowed.
func (n *Notifier) Notify(ctx context.Context, oppType, title, message string) error {
	if len(n.types) > 0 && !n.types[oppType] {
		n.logger.DebugContext(ctx, "alert type filtered out",
			slog.String("type", oppType),
		)
		return nil
	}
	return n.dispatch(ctx, title, message)
}

// NotifyAll sends an alert to all senders regardless of opportunity type.
func (n *Notifier) NotifyAll(ctx context.Context, title, message string) error {
	return n.dispatch(ctx, title, message)
}

// dispatch iterates over all senders. Errors are collected and returned as
// one combined error; a single sender failure does not prevent delivery to
// the remaining senders.
func (n *Notifier) dispatch(ctx context.Context, title, message string) error {
	if len(n.senders) == 0 {
		return nil
	}

	var errs []string
	for _, s := range n.senders {
		if err := s.Send(ctx, title, message); err != nil {
			n.logger.ErrorContext(ctx, "sender failed",
				slog.String("sender", s.Name()),
				slog.String("error", err.Error()),
			)
			errs = append(errs, fmt.Sprintf("%s: %v", s.Name(), err))
		} else {
			n.logger.DebugContext(ctx, "alert sent",
				slog.String("sender", s.Name()),
				slog.String("title", title),
			)
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("notify: %d sender(s) failed: %s", len(errs), strings.Join(errs, "; "))
	}
	return nil
}
