package lock

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"

	"investledger-backend/internal/domain"
	"investledger-backend/internal/logger"
)

// RedisLocker keeps leases as redis keys with a ttl. The key expiring is the
// stale-lease takeover.
type RedisLocker struct {
	client *redislock.Client
	prefix string

	mu   sync.Mutex
	held map[string]*redislock.Lock
}

func NewRedisLocker(rdb redis.UniversalClient) *RedisLocker {
	return &RedisLocker{
		client: redislock.New(rdb),
		prefix: "lock:",
		held:   make(map[string]*redislock.Lock),
	}
}

func (l *RedisLocker) Acquire(ctx context.Context, name string, ttl time.Duration) (bool, error) {
	lk, err := l.client.Obtain(ctx, l.prefix+name, ttl, nil)
	if errors.Is(err, redislock.ErrNotObtained) {
		logger.Info("Lock held elsewhere", "name", name)
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("%w: acquire %s: %v", domain.ErrTransientStore, name, err)
	}

	l.mu.Lock()
	l.held[name] = lk
	l.mu.Unlock()
	return true, nil
}

func (l *RedisLocker) Release(ctx context.Context, name string) error {
	l.mu.Lock()
	lk, ok := l.held[name]
	delete(l.held, name)
	l.mu.Unlock()
	if !ok {
		return nil
	}

	err := lk.Release(ctx)
	if errors.Is(err, redislock.ErrLockNotHeld) {
		logger.Warn("Lock expired before release", "name", name)
		return nil
	}
	if err != nil {
		return fmt.Errorf("%w: release %s: %v", domain.ErrTransientStore, name, err)
	}
	return nil
}
