package ratelimit

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
)

func rateHeaders(limit, remaining int, resetAfter string) http.Header {
	h := http.Header{}
	h.Set("X-RateLimit-Limit", strconv.Itoa(limit))
	h.Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
	if resetAfter != "" {
		h.Set("X-RateLimit-Reset-After", resetAfter)
	}
	return h
}

func TestNewRateLimiter(t *testing.T) {
	limiter := NewRateLimiter(50, zap.NewNop())

	if limiter == nil {
		t.Fatal("Expected non-nil rate limiter")
	}
	if limiter.buckets == nil {
		t.Error("Expected buckets map to be initialized")
	}
	if limiter.global.Burst() != DefaultBurst {
		t.Errorf("Expected burst %d, got %d", DefaultBurst, limiter.global.Burst())
	}
}

func TestNewRateLimiter_NonPositiveRateUsesDefault(t *testing.T) {
	limiter := NewRateLimiter(0, zap.NewNop())

	if float64(limiter.global.Limit()) != 50 {
		t.Errorf("Expected default limit 50, got %v", limiter.global.Limit())
	}
}

func TestWait_NewRoute(t *testing.T) {
	limiter := NewRateLimiter(50, zap.NewNop())

	start := time.Now()
	err := limiter.Wait(context.Background(), "GET /users/@me")
	duration := time.Since(start)

	if err != nil {
		t.Fatalf("Wait() failed: %v", err)
	}
	if duration > 100*time.Millisecond {
		t.Errorf("Wait() took too long for new route: %v", duration)
	}
}

func TestUpdateFromHeaders_ValidHeaders(t *testing.T) {
	limiter := NewRateLimiter(50, zap.NewNop())
	route := "GET /guilds/1000000000000000001/channels"

	limiter.UpdateFromHeaders(route, rateHeaders(5, 4, "2.5"))

	status := limiter.Status(route)
	if status.Limit != 5 {
		t.Errorf("Expected Limit 5, got %d", status.Limit)
	}
	if status.Remaining != 4 {
		t.Errorf("Expected Remaining 4, got %d", status.Remaining)
	}
	if until := time.Until(status.ResetAt); until < 2*time.Second || until > 3*time.Second {
		t.Errorf("Expected reset in about 2.5s, got %v", until)
	}
	if status.Exhausted {
		t.Error("Expected bucket not to be exhausted")
	}
}

func TestUpdateFromHeaders_EpochReset(t *testing.T) {
	limiter := NewRateLimiter(50, zap.NewNop())
	route := "GET /channels/1/messages"

	reset := time.Now().Add(10 * time.Second)
	h := rateHeaders(5, 1, "")
	h.Set("X-RateLimit-Reset", strconv.FormatFloat(float64(reset.UnixMilli())/1000, 'f', 3, 64))
	limiter.UpdateFromHeaders(route, h)

	status := limiter.Status(route)
	if diff := status.ResetAt.Sub(reset); diff > 10*time.Millisecond || diff < -10*time.Millisecond {
		t.Errorf("Expected reset at %v, got %v", reset, status.ResetAt)
	}
}

func TestUpdateFromHeaders_MissingHeaders(t *testing.T) {
	limiter := NewRateLimiter(50, zap.NewNop())
	route := "GET /users/@me"

	limiter.UpdateFromHeaders(route, http.Header{})

	limiter.mu.RLock()
	_, exists := limiter.buckets[route]
	limiter.mu.RUnlock()
	if exists {
		t.Error("Expected no bucket for a response without rate limit headers")
	}
}

func TestUpdateFromHeaders_InvalidReset(t *testing.T) {
	limiter := NewRateLimiter(50, zap.NewNop())
	route := "GET /channels/456/messages"

	h := rateHeaders(100, 95, "soon")
	h.Set("X-RateLimit-Reset", "invalid_time")
	limiter.UpdateFromHeaders(route, h)

	status := limiter.Status(route)
	if status.Limit != 100 {
		t.Errorf("Expected Limit 100, got %d", status.Limit)
	}
	if !status.ResetAt.IsZero() {
		t.Errorf("Expected zero reset time, got %v", status.ResetAt)
	}
}

func TestWait_RouteExhausted(t *testing.T) {
	limiter := NewRateLimiter(50, zap.NewNop())
	route := "POST /channels/1/messages"

	limiter.UpdateFromHeaders(route, rateHeaders(5, 0, "0.3"))

	start := time.Now()
	err := limiter.Wait(context.Background(), route)
	duration := time.Since(start)

	if err != nil {
		t.Fatalf("Wait() failed: %v", err)
	}
	if duration < 250*time.Millisecond {
		t.Errorf("Wait() did not block long enough: waited %v", duration)
	}

	status := limiter.Status(route)
	if status.Remaining != 4 {
		t.Errorf("Expected window to refill and one token to be taken, got remaining %d", status.Remaining)
	}
}

func TestWait_ContextCancelled(t *testing.T) {
	limiter := NewRateLimiter(50, zap.NewNop())
	route := "GET /channels/1/messages"

	limiter.Observe429(route, time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := limiter.Wait(ctx, route)

	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Expected deadline exceeded, got %v", err)
	}
	if time.Since(start) > time.Second {
		t.Error("Wait() should return as soon as the context is done")
	}
}

func TestObserve429(t *testing.T) {
	limiter := NewRateLimiter(50, zap.NewNop())
	route := "PATCH /channels/1"

	limiter.Observe429(route, 2*time.Second)

	status := limiter.Status(route)
	if !status.Exhausted {
		t.Error("Expected bucket to be exhausted after 429")
	}
	if status.Remaining != 0 {
		t.Errorf("Expected Remaining 0, got %d", status.Remaining)
	}

	limiter.Observe429(route, 0)
	if until := time.Until(limiter.Status(route).ResetAt); until > time.Second+50*time.Millisecond {
		t.Errorf("Expected zero retry-after to default to one second, got %v", until)
	}
}

func TestWait_DecrementsKnownWindow(t *testing.T) {
	limiter := NewRateLimiter(50, zap.NewNop())
	route := "GET /guilds/1"

	limiter.UpdateFromHeaders(route, rateHeaders(5, 2, "10"))

	for i := 0; i < 2; i++ {
		if err := limiter.Wait(context.Background(), route); err != nil {
			t.Fatalf("Wait() failed: %v", err)
		}
	}

	if !limiter.Status(route).Exhausted {
		t.Error("Expected bucket to be exhausted after spending remaining requests")
	}
}

func TestConcurrentAccess(t *testing.T) {
	limiter := NewRateLimiter(1000, zap.NewNop())
	route := "GET /concurrent/test"

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := limiter.Wait(context.Background(), route); err != nil {
				t.Errorf("Wait() failed: %v", err)
			}
			limiter.UpdateFromHeaders(route, rateHeaders(100, 90, "1"))
		}()
	}
	wg.Wait()
}

func TestMultipleRoutes(t *testing.T) {
	limiter := NewRateLimiter(50, zap.NewNop())

	routes := []string{
		"GET /guilds/1/channels",
		"GET /channels/2/messages",
		"GET /users/@me",
	}

	for i, route := range routes {
		limiter.UpdateFromHeaders(route, rateHeaders(50+i*10, 45+i*10, "5"))
	}

	for i, route := range routes {
		if got := limiter.Status(route).Limit; got != 50+i*10 {
			t.Errorf("Expected Limit %d for %s, got %d", 50+i*10, route, got)
		}
	}

	limiter.Reset()
	if got := limiter.Status(routes[0]).Limit; got != 0 {
		t.Errorf("Expected buckets to be cleared, got Limit %d", got)
	}
}

func TestParseRetryAfter(t *testing.T) {
	tests := []struct {
		value    string
		expected time.Duration
		ok       bool
	}{
		{"1", time.Second, true},
		{"0.25", 250 * time.Millisecond, true},
		{"", 0, false},
		{"abc", 0, false},
		{"-1", 0, false},
	}

	for _, tt := range tests {
		got, ok := ParseRetryAfter(tt.value)
		if ok != tt.ok || got != tt.expected {
			t.Errorf("ParseRetryAfter(%q) = %v, %v; want %v, %v", tt.value, got, ok, tt.expected, tt.ok)
		}
	}
}
