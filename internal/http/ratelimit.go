package http

import (
	"sync"
	"sync/atomic"
	"time"
)

// rateLimiter throttles mutating requests per client IP over a rolling
// window. Limit and window come from configuration; report reads bypass
// the limiter entirely because they are served from the report cache.
type rateLimiter struct {
	mu       sync.Mutex
	limit    int
	window   time.Duration
	visitors map[string]*visitor

	stopPrune chan struct{}
	stopOnce  sync.Once
}

type visitor struct {
	windowStart time.Time
	count       int
}

func newRateLimiter(limit int, window time.Duration) *rateLimiter {
	rl := &rateLimiter{
		limit:     limit,
		window:    window,
		visitors:  make(map[string]*visitor),
		stopPrune: make(chan struct{}),
	}
	go rl.pruneLoop()
	return rl
}

// allow records one request for the client and reports whether it is
// still within the configured budget for the current window.
func (rl *rateLimiter) allow(clientIP string, metrics *securityMetrics) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	v, ok := rl.visitors[clientIP]
	if !ok || now.Sub(v.windowStart) > rl.window {
		rl.visitors[clientIP] = &visitor{windowStart: now, count: 1}
		return true
	}

	v.count++
	if v.count > rl.limit {
		if metrics != nil {
			atomic.AddInt64(&metrics.rateLimitHits, 1)
		}
		return false
	}
	return true
}

// pruneLoop drops visitors whose window closed long ago so the map does
// not grow with every client ever seen.
func (rl *rateLimiter) pruneLoop() {
	ticker := time.NewTicker(5 * rl.window)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.prune(time.Now().Add(-2 * rl.window))
		case <-rl.stopPrune:
			return
		}
	}
}

func (rl *rateLimiter) prune(cutoff time.Time) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	for ip, v := range rl.visitors {
		if v.windowStart.Before(cutoff) {
			delete(rl.visitors, ip)
		}
	}
}

// stop shuts down the prune goroutine.
func (rl *rateLimiter) stop() {
	rl.stopOnce.Do(func() {
		close(rl.stopPrune)
	})
}
