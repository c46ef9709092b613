package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Counter is an atomic fixed-window counter keyed by client+route. Incr
// performs the check-and-increment as a single operation so that two
// concurrent requests on the same key can never observe the same
// pre-increment count.
type Counter interface {
	// Incr increments the window counter for key and returns the new count
	// together with the time remaining in the current window.
	Incr(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error)
}

// RedisCounter counts windows in Redis. INCR is atomic server-side and the
// expiry is only set when none exists yet, so the window boundary is owned
// by whichever request created the key.
type RedisCounter struct {
	client *redis.Client
}

// NewRedisCounter wraps the shared cache client.
func NewRedisCounter(client *redis.Client) *RedisCounter {
	return &RedisCounter{client: client}
}

func (r *RedisCounter) Incr(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	pipe := r.client.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.ExpireNX(ctx, key, window)
	ttl := pipe.TTL(ctx, key)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, 0, err
	}

	remaining := ttl.Val()
	if remaining < 0 {
		remaining = window
	}
	return incr.Val(), remaining, nil
}

type memoryWindow struct {
	count   int64
	resetAt time.Time
}

// MemoryCounter is the in-process fallback used in tests and cache-less
// development setups. The mutex serializes check-and-increment per map.
type MemoryCounter struct {
	mu      sync.Mutex
	windows map[string]*memoryWindow
	now     func() time.Time
}

// NewMemoryCounter builds an empty in-memory counter.
func NewMemoryCounter() *MemoryCounter {
	return &MemoryCounter{windows: make(map[string]*memoryWindow), now: time.Now}
}

func (m *MemoryCounter) Incr(_ context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	w, ok := m.windows[key]
	if !ok || !now.Before(w.resetAt) {
		// Window expired: the reset and the first increment of the new
		// window happen under the same lock acquisition.
		w = &memoryWindow{resetAt: now.Add(window)}
		m.windows[key] = w
	}
	w.count++
	return w.count, w.resetAt.Sub(now), nil
}
