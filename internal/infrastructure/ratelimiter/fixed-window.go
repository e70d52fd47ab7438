package ratelimiter

import (
	"sync"
	"time"
)

// Limiter gates requests per source. Allow reports whether the request
// may proceed and, when denied, how long until the window resets.
type Limiter interface {
	Allow(source string) (bool, time.Duration)
	Close()
}

type window struct {
	count   int64
	resetAt time.Time
}

// FixedWindowRateLimiter counts requests per source within fixed
// windows. Idle sources are cleaned up on a ticker.
type FixedWindowRateLimiter struct {
	mu          sync.Mutex
	windows     map[string]*window
	limit       int64
	window      time.Duration
	cleanupTick *time.Ticker
	done        chan struct{}
}

func NewFixedWindowRateLimiter(limit int, frame time.Duration) *FixedWindowRateLimiter {
	rl := &FixedWindowRateLimiter{
		windows:     make(map[string]*window),
		limit:       int64(limit),
		window:      frame,
		cleanupTick: time.NewTicker(frame),
		done:        make(chan struct{}),
	}
	go rl.startCleanup()
	return rl
}

func (rl *FixedWindowRateLimiter) Allow(source string) (bool, time.Duration) {
	now := time.Now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	w, ok := rl.windows[source]
	if !ok || !now.Before(w.resetAt) {
		rl.windows[source] = &window{count: 1, resetAt: now.Truncate(rl.window).Add(rl.window)}
		return true, 0
	}

	if w.count >= rl.limit {
		return false, time.Until(w.resetAt)
	}
	w.count++
	return true, 0
}

func (rl *FixedWindowRateLimiter) startCleanup() {
	for {
		select {
		case <-rl.cleanupTick.C:
			rl.cleanup()
		case <-rl.done:
			return
		}
	}
}

func (rl *FixedWindowRateLimiter) cleanup() {
	now := time.Now()
	rl.mu.Lock()
	for source, w := range rl.windows {
		if now.After(w.resetAt) {
			delete(rl.windows, source)
		}
	}
	rl.mu.Unlock()
}

func (rl *FixedWindowRateLimiter) Close() {
	close(rl.done)
	rl.cleanupTick.Stop()
}
