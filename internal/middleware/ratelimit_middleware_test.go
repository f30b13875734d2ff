package middleware

import (
	"testing"
	"time"
)

func TestIPRateLimiterPerIP(t *testing.T) {
	rl := newIPRateLimiter(1, 2)
	now := time.Date(2024, 5, 6, 12, 0, 0, 0, time.UTC)

	if !rl.allow("10.0.0.1", now) || !rl.allow("10.0.0.1", now) {
		t.Fatal("expected burst of two to pass")
	}
	if rl.allow("10.0.0.1", now) {
		t.Fatal("expected third request to be limited")
	}
	if !rl.allow("10.0.0.2", now) {
		t.Fatal("other IPs have their own bucket")
	}
	if !rl.allow("10.0.0.1", now.Add(time.Second)) {
		t.Fatal("expected token after one second")
	}
}

func TestIPRateLimiterForgetsIdleVisitors(t *testing.T) {
	rl := newIPRateLimiter(1, 1)
	now := time.Date(2024, 5, 6, 12, 0, 0, 0, time.UTC)

	rl.allow("10.0.0.1", now)
	rl.allow("10.0.0.2", now.Add(visitorIdle+2*time.Minute))
	if _, ok := rl.visitors["10.0.0.1"]; ok {
		t.Fatal("expected idle visitor to be dropped")
	}
}
