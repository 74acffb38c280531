package http

import (
	"testing"
	"time"
)

func TestRateLimiterHonorsConfiguredLimit(t *testing.T) {
	rl := newRateLimiter(3, time.Minute)
	defer rl.stop()

	metrics := &securityMetrics{}
	for i := 0; i < 3; i++ {
		if !rl.allow("10.0.0.1", metrics) {
			t.Fatalf("request %d should be within the limit", i+1)
		}
	}
	if rl.allow("10.0.0.1", metrics) {
		t.Error("request over the limit should be rejected")
	}
	if metrics.rateLimitHits != 1 {
		t.Errorf("rateLimitHits = %d, want 1", metrics.rateLimitHits)
	}

	// A different client has its own budget.
	if !rl.allow("10.0.0.2", metrics) {
		t.Error("fresh client should be allowed")
	}
}

func TestRateLimiterResetsAfterWindow(t *testing.T) {
	rl := newRateLimiter(1, 10*time.Millisecond)
	defer rl.stop()

	if !rl.allow("10.0.0.1", nil) {
		t.Fatal("first request should pass")
	}
	if rl.allow("10.0.0.1", nil) {
		t.Fatal("second request in the same window should be rejected")
	}

	time.Sleep(20 * time.Millisecond)
	if !rl.allow("10.0.0.1", nil) {
		t.Error("request after the window closed should pass")
	}
}

func TestRateLimiterPrunesStaleVisitors(t *testing.T) {
	rl := newRateLimiter(5, time.Minute)
	defer rl.stop()

	rl.allow("10.0.0.1", nil)
	rl.allow("10.0.0.2", nil)

	rl.prune(time.Now().Add(time.Second))
	rl.mu.Lock()
	remaining := len(rl.visitors)
	rl.mu.Unlock()
	if remaining != 0 {
		t.Errorf("prune left %d visitors, want 0", remaining)
	}
}
