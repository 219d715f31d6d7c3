package ratelimit

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestMemoryLimiterQuota(t *testing.T) {
	limiter := NewMemoryLimiter(Quota{MaxRequests: 3, Window: time.Hour}, nil)
	defer limiter.Close()

	ctx := context.Background()
	for i := range 3 {
		ok, err := limiter.Allow(ctx, "user-1")
		if err != nil {
			t.Fatalf("Allow() error: %v", err)
		}
		if !ok {
			t.Fatalf("request %d should be within quota", i+1)
		}
	}

	ok, err := limiter.Allow(ctx, "user-1")
	if err != nil {
		t.Fatalf("Allow() error: %v", err)
	}
	if ok {
		t.Error("request over quota should be denied")
	}

	// A different identity has its own budget
	ok, _ = limiter.Allow(ctx, "user-2")
	if !ok {
		t.Error("separate identity should not share quota")
	}
}

func TestMemoryLimiterWindowRollover(t *testing.T) {
	limiter := NewMemoryLimiter(Quota{MaxRequests: 1, Window: time.Minute}, nil)
	defer limiter.Close()

	current := time.Date(2025, 6, 1, 12, 0, 30, 0, time.UTC)
	limiter.now = func() time.Time { return current }

	ctx := context.Background()
	if ok, _ := limiter.Allow(ctx, "user-1"); !ok {
		t.Fatal("first request should pass")
	}
	if ok, _ := limiter.Allow(ctx, "user-1"); ok {
		t.Fatal("second request in window should fail")
	}

	current = current.Add(time.Minute)
	if ok, _ := limiter.Allow(ctx, "user-1"); !ok {
		t.Error("quota should reset after the window rolls over")
	}
}

func TestMemoryLimiterConcurrentUse(t *testing.T) {
	const quota = 50
	limiter := NewMemoryLimiter(Quota{MaxRequests: quota, Window: time.Hour}, nil)
	defer limiter.Close()

	ctx := context.Background()
	var wg sync.WaitGroup
	var mu sync.Mutex
	allowed := 0

	for range 200 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := limiter.Allow(ctx, "shared")
			if err != nil {
				t.Errorf("Allow() error: %v", err)
				return
			}
			if ok {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if allowed != quota {
		t.Errorf("allowed %d requests, want exactly %d", allowed, quota)
	}
}

func TestMemoryLimiterEviction(t *testing.T) {
	limiter := NewMemoryLimiter(Quota{MaxRequests: 5, Window: time.Minute}, nil)
	defer limiter.Close()

	current := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return current }

	ctx := context.Background()
	limiter.Allow(ctx, "stale")
	current = current.Add(10 * time.Minute)
	limiter.Allow(ctx, "fresh")

	limiter.evict()

	stats := limiter.Stats(ctx)
	if got := stats["active_counters"].(int); got != 1 {
		t.Errorf("active_counters = %d, want 1 after eviction", got)
	}
}

func newTestRedisLimiter(t *testing.T, quota Quota) (*RedisLimiter, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	limiter, err := NewRedisLimiter(context.Background(), client, quota, nil)
	if err != nil {
		t.Fatalf("NewRedisLimiter() failed: %v", err)
	}
	t.Cleanup(func() { limiter.Close() })
	return limiter, mr
}

func TestRedisLimiterQuota(t *testing.T) {
	limiter, _ := newTestRedisLimiter(t, Quota{MaxRequests: 2, Window: time.Hour})

	ctx := context.Background()
	for i := range 2 {
		ok, err := limiter.Allow(ctx, "user-1")
		if err != nil {
			t.Fatalf("Allow() error: %v", err)
		}
		if !ok {
			t.Fatalf("request %d should be within quota", i+1)
		}
	}

	ok, err := limiter.Allow(ctx, "user-1")
	if err != nil {
		t.Fatalf("Allow() error: %v", err)
	}
	if ok {
		t.Error("request over quota should be denied")
	}

	ok, _ = limiter.Allow(ctx, "user-2")
	if !ok {
		t.Error("separate identity should not share quota")
	}
}

func TestRedisLimiterWindowRollover(t *testing.T) {
	limiter, _ := newTestRedisLimiter(t, Quota{MaxRequests: 1, Window: time.Minute})

	current := time.Date(2025, 6, 1, 12, 0, 30, 0, time.UTC)
	limiter.now = func() time.Time { return current }

	ctx := context.Background()
	if ok, _ := limiter.Allow(ctx, "user-1"); !ok {
		t.Fatal("first request should pass")
	}
	if ok, _ := limiter.Allow(ctx, "user-1"); ok {
		t.Fatal("second request in window should fail")
	}

	// A new window maps to a new counter key
	current = current.Add(time.Minute)
	if ok, _ := limiter.Allow(ctx, "user-1"); !ok {
		t.Error("quota should reset after the window rolls over")
	}
}

func TestRedisLimiterCounterExpiry(t *testing.T) {
	limiter, mr := newTestRedisLimiter(t, Quota{MaxRequests: 5, Window: time.Minute})

	ctx := context.Background()
	if ok, _ := limiter.Allow(ctx, "user-1"); !ok {
		t.Fatal("first request should pass")
	}

	mr.FastForward(3 * time.Minute)

	stats := limiter.Stats(ctx)
	if got := stats["active_counters"].(int); got != 0 {
		t.Errorf("active_counters = %d, want 0 after expiry", got)
	}
}

func TestRedisLimiterStats(t *testing.T) {
	limiter, _ := newTestRedisLimiter(t, Quota{MaxRequests: 7, Window: time.Hour})

	stats := limiter.Stats(context.Background())
	if stats["backend"] != "redis" {
		t.Errorf("backend = %v, want redis", stats["backend"])
	}
	if stats["max_requests"] != 7 {
		t.Errorf("max_requests = %v, want 7", stats["max_requests"])
	}
}
