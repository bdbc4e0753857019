package payment

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestMemoryGuardExclusion(t *testing.T) {
	guard := NewMemoryGuard()
	ctx := context.Background()

	ok, err := guard.TryAcquire(ctx, "alice")
	if err != nil || !ok {
		t.Fatalf("first acquire: %v %v", ok, err)
	}
	if ok, _ := guard.TryAcquire(ctx, "alice"); ok {
		t.Fatal("duplicate acquire must be rejected")
	}
	if ok, _ := guard.TryAcquire(ctx, "bob"); !ok {
		t.Fatal("other renters must not be blocked")
	}

	guard.Release(ctx, "alice")
	if ok, _ := guard.TryAcquire(ctx, "alice"); !ok {
		t.Fatal("acquire after release should succeed")
	}
}

func TestMemoryGuardConcurrentSingleWinner(t *testing.T) {
	guard := NewMemoryGuard()
	ctx := context.Background()

	var wg sync.WaitGroup
	var mu sync.Mutex
	winners := 0
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if ok, _ := guard.TryAcquire(ctx, "alice"); ok {
				mu.Lock()
				winners++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if winners != 1 {
		t.Fatalf("expected exactly one winner, got %d", winners)
	}
}

func TestRedisGuardExclusionAndTTL(t *testing.T) {
	mr := miniredis.RunT(t)
	cache := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer cache.Close()

	guard := NewRedisGuard(cache)
	ctx := context.Background()

	ok, err := guard.TryAcquire(ctx, "alice")
	if err != nil || !ok {
		t.Fatalf("first acquire: %v %v", ok, err)
	}
	if ok, _ := guard.TryAcquire(ctx, "alice"); ok {
		t.Fatal("duplicate acquire must be rejected")
	}

	// The slot frees itself if a crashed check never releases.
	mr.FastForward(2*time.Minute + time.Second)
	if ok, _ := guard.TryAcquire(ctx, "alice"); !ok {
		t.Fatal("acquire after TTL expiry should succeed")
	}

	guard.Release(ctx, "alice")
	if ok, _ := guard.TryAcquire(ctx, "alice"); !ok {
		t.Fatal("acquire after release should succeed")
	}
}
