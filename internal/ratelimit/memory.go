package ratelimit

import (
	"context"
	"sync"
	"time"

	"resumelens/internal/errors"
)

// windowCounter tracks one identity's usage inside its current window
type windowCounter struct {
	start    time.Time
	count    int
	lastSeen time.Time
}

// MemoryLimiter is an in-process fixed-window limiter. Counters for idle
// identities are evicted by a background goroutine.
type MemoryLimiter struct {
	mu       sync.Mutex
	counters map[string]*windowCounter
	quota    Quota
	done     chan struct{}
	logger   *errors.Logger
	now      func() time.Time // test hook
}

// NewMemoryLimiter creates an in-memory limiter and starts its eviction loop
func NewMemoryLimiter(quota Quota, logger *errors.Logger) *MemoryLimiter {
	m := &MemoryLimiter{
		counters: make(map[string]*windowCounter),
		quota:    quota,
		done:     make(chan struct{}),
		logger:   logger,
		now:      time.Now,
	}

	go m.evictionRoutine(10 * time.Minute)
	return m
}

// Allow consumes one unit of quota for the identity
func (m *MemoryLimiter) Allow(_ context.Context, identity string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	start := windowStart(now, m.quota.Window)

	counter, exists := m.counters[identity]
	if !exists || !counter.start.Equal(start) {
		counter = &windowCounter{start: start}
		m.counters[identity] = counter
	}
	counter.lastSeen = now

	if counter.count >= m.quota.MaxRequests {
		return false, nil
	}
	counter.count++
	return true, nil
}

// Stats returns current limiter statistics
func (m *MemoryLimiter) Stats(_ context.Context) map[string]any {
	m.mu.Lock()
	defer m.mu.Unlock()

	return map[string]any{
		"backend":         "memory",
		"active_counters": len(m.counters),
		"max_requests":    m.quota.MaxRequests,
		"window_seconds":  m.quota.Window.Seconds(),
	}
}

// evictionRoutine periodically removes counters for idle identities
func (m *MemoryLimiter) evictionRoutine(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.evict()
		case <-m.done:
			return
		}
	}
}

// evict removes counters whose window has long passed
func (m *MemoryLimiter) evict() {
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := m.now().Add(-2 * m.quota.Window)
	for identity, counter := range m.counters {
		if counter.lastSeen.Before(cutoff) {
			delete(m.counters, identity)
		}
	}

	if m.logger != nil {
		m.logger.Debug("Rate limit counter eviction completed",
			"remaining_counters", len(m.counters))
	}
}

// Close stops the eviction goroutine
func (m *MemoryLimiter) Close() error {
	close(m.done)
	return nil
}
