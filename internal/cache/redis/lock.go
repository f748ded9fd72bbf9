package redis

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/quantfold/arbscope/internal/domain"
)

// unlockScript deletes the lock key only when it still holds our token, so
// a release that fires after expiry cannot clobber another holder's lock.
var unlockScript = redis.NewScript(`
	if redis.call("GET", KEYS[1]) == ARGV[1] then
		return redis.call("DEL", KEYS[1])
	end
	return 0
`)

// LockManager implements domain.LockManager with plain SET NX locks. Locks
// carry a random token and expire on their own, so a crashed holder never
// wedges the next recompute pass.
type LockManager struct {
	rdb *redis.Client
}

// NewLockManager creates a LockManager backed by the given Client.
func NewLockManager(c *Client) *LockManager {
	return &LockManager{rdb: c.Underlying()}
}

func lockKey(name string) string { return "lock:" + name }

// Acquire takes the named lock for at most ttl and returns a release
// function. It returns domain.ErrLockHeld when another holder owns the
// lock. The release function is safe to call more than once.
func (lm *LockManager) Acquire(ctx context.Context, name string, ttl time.Duration) (func(), error) {
	token := uuid.NewString()
	key := lockKey(name)

	ok, err := lm.rdb.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("redis: acquire lock %s: %w", name, err)
	}
	if !ok {
		return nil, domain.ErrLockHeld
	}

	var once sync.Once
	release := func() {
		once.Do(func() {
			// Release with a fresh context so a canceled caller can
			// still give the lock back.
			rctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = unlockScript.Run(rctx, lm.rdb, []string{key}, token).Err()
		})
	}
	return release, nil
}

var _ domain.LockManager = (*LockManager)(nil)
