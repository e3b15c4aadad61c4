package gateway

import (
	"context"
	"sync"
	"time"
)

// Limiter is a sliding-window rate limiter. When the window is full, Wait
// blocks until the oldest request ages out; callers are never rejected.
// The clock and sleep functions are injectable so tests run without
// wall-clock waits.
type Limiter struct {
	mu     sync.Mutex
	limit  int
	window time.Duration
	stamps []time.Time

	now   func() time.Time
	sleep func(time.Duration)
}

func NewLimiter(limit int, window time.Duration) *Limiter {
	if limit <= 0 {
		limit = 60
	}
	if window <= 0 {
		window = time.Minute
	}
	return &Limiter{
		limit:  limit,
		window: window,
		now:    time.Now,
		sleep:  time.Sleep,
	}
}

// Wait blocks until a request slot is free, then records the request.
func (l *Limiter) Wait(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		l.mu.Lock()
		now := l.now()
		l.prune(now)
		if len(l.stamps) < l.limit {
			l.stamps = append(l.stamps, now)
			l.mu.Unlock()
			return nil
		}
		wait := l.window - now.Sub(l.stamps[0])
		l.mu.Unlock()
		if wait <= 0 {
			continue
		}
		l.sleep(wait)
	}
}

// prune drops timestamps that have aged out of the window. Caller holds the lock.
func (l *Limiter) prune(now time.Time) {
	cutoff := now.Add(-l.window)
	i := 0
	for i < len(l.stamps) && !l.stamps[i].After(cutoff) {
		i++
	}
	l.stamps = l.stamps[i:]
}
