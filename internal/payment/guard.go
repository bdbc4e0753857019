package payment

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// CheckGuard is a renter-scoped mutual exclusion for invoice status checks.
// A duplicate check for the same renter is rejected, not queued.
type CheckGuard interface {
	TryAcquire(ctx context.Context, renterID string) (bool, error)
	Release(ctx context.Context, renterID string)
}

type memoryGuard struct {
	mu       sync.Mutex
	checking map[string]struct{}
}

// NewMemoryGuard builds a process-local check guard. It does not survive
// restarts, which is acceptable since checks are user-re-triggerable.
func NewMemoryGuard() CheckGuard {
	return &memoryGuard{checking: make(map[string]struct{})}
}

func (g *memoryGuard) TryAcquire(_ context.Context, renterID string) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, busy := g.checking[renterID]; busy {
		return false, nil
	}
	g.checking[renterID] = struct{}{}
	return true, nil
}

func (g *memoryGuard) Release(_ context.Context, renterID string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.checking, renterID)
}

const (
	guardPrefix = "railA:check:"
	guardTTL    = 2 * time.Minute
)

type redisGuard struct {
	cache *redis.Client
}

// NewRedisGuard builds a redis-backed check guard. The TTL bounds how long a
// crashed check can hold the slot.
func NewRedisGuard(cache *redis.Client) CheckGuard {
	return &redisGuard{cache: cache}
}

func (g *redisGuard) TryAcquire(ctx context.Context, renterID string) (bool, error) {
	ok, err := g.cache.SetNX(ctx, guardPrefix+renterID, "1", guardTTL).Result()
	if err != nil {
		return false, err
	}
	return ok, nil
}

func (g *redisGuard) Release(ctx context.Context, renterID string) {
	g.cache.Del(ctx, guardPrefix+renterID) // best effort
}
