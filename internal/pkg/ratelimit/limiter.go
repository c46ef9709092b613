package ratelimit

import (
	"context"
	"fmt"
	"log"
	"time"
)

// Decision is the outcome of one admission check. Limit, Remaining and
// RetryAfter feed the X-RateLimit-* and Retry-After response headers on
// both admitted and denied requests.
type Decision struct {
	Admitted   bool
	Limit      int
	Remaining  int
	RetryAfter time.Duration
}

// Limiter applies a fixed-window policy over an injected Counter. Window
// length and max count are configuration, not constants: observed
// deployments ran 10/15min as well as 50/5min.
type Limiter struct {
	counter Counter
	max     int
	window  time.Duration
}

// NewLimiter builds a limiter; max and window must be positive.
func NewLimiter(counter Counter, max int, window time.Duration) *Limiter {
	if max <= 0 {
		max = 10
	}
	if window <= 0 {
		window = 15 * time.Minute
	}
	return &Limiter{counter: counter, max: max, window: window}
}

// Admit consumes exactly one slot for the client+route key and decides
// admission. Counter backend failures admit the request (fail open) so a
// cache outage degrades throttling, not availability.
func (l *Limiter) Admit(ctx context.Context, clientID, route string) Decision {
	key := fmt.Sprintf("ratelimit:%s:%s", route, clientID)

	count, ttl, err := l.counter.Incr(ctx, key, l.window)
	if err != nil {
		log.Printf("rate limiter unavailable, admitting request: %v", err)
		return Decision{Admitted: true, Limit: l.max, Remaining: l.max - 1, RetryAfter: l.window}
	}

	remaining := l.max - int(count)
	if remaining < 0 {
		remaining = 0
	}
	return Decision{
		Admitted:   count <= int64(l.max),
		Limit:      l.max,
		Remaining:  remaining,
		RetryAfter: ttl,
	}
}

// Window exposes the configured window length.
func (l *Limiter) Window() time.Duration { return l.window }

// Max exposes the configured per-window maximum.
func (l *Limiter) Max() int { return l.max }
