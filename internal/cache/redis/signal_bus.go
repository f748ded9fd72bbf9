package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/quantfold/arbscope/internal/domain"
)

const (
	opportunityStream    = "opportunities:detected"
	opportunityStreamCap = 10000
)

// SignalBus implements domain.SignalBus by appending detected opportunities
// to a capped Redis stream. Downstream consumers (dashboards, bots) read
// the stream at their own pace.
type SignalBus struct {
	rdb *redis.Client
}

// NewSignalBus creates a SignalBus backed by the given Client.
func NewSignalBus(c *Client) *SignalBus {
	return &SignalBus{rdb: c.Underlying()}
}

// Publish appends one opportunity to the stream. The stream is trimmed
// approximately to keep memory bounded.
func (b *SignalBus) Publish(ctx context.Context, opp domain.Opportunity) error {
	payload, err := json.Marshal(opp)
	if err != nil {
		return fmt.Errorf("redis: marshal opportunity %s: %w", opp.ID, err)
	}

	err = b.rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: opportunityStream,
		MaxLen: opportunityStreamCap,
		Approx: true,
		Values: map[string]any{
			"id":   opp.ID,
			"type": string(opp.Type),
			"data": payload,
		},
	}).Err()
	if err != nil {
		return fmt.Errorf("redis: publish opportunity %s: %w", opp.ID, err)
	}
	return nil
}

var _ domain.SignalBus = (*SignalBus)(nil)
