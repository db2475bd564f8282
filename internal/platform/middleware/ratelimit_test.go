package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/casedesk/casedesk/internal/platform/auth"
)

func newRateLimitContext(e *echo.Echo, userID string) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/profiles", nil)
	if userID != "" {
		req = req.WithContext(auth.WithIdentity(context.Background(), auth.Identity{UserID: userID}))
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestRateLimit_RequestsWithinLimit(t *testing.T) {
	e := echo.New()
	handler := RateLimit(RateLimitConfig{RequestsPerSecond: 10, BurstSize: 5})(func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	for i := 0; i < 5; i++ {
		c, rec := newRateLimitContext(e, "")
		if err := handler(c); err != nil {
			t.Fatalf("request %d: expected no error, got %v", i+1, err)
		}
		if got := rec.Header().Get("X-RateLimit-Limit"); got != "10" {
			t.Errorf("request %d: expected X-RateLimit-Limit '10', got %q", i+1, got)
		}
	}
}

func TestRateLimit_ExceedsLimit(t *testing.T) {
	e := echo.New()
	handler := RateLimit(RateLimitConfig{RequestsPerSecond: 1, BurstSize: 2})(func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	for i := 0; i < 2; i++ {
		c, _ := newRateLimitContext(e, "")
		if err := handler(c); err != nil {
			t.Fatalf("request %d: expected no error, got %v", i+1, err)
		}
	}

	c, rec := newRateLimitContext(e, "")
	err := handler(c)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok {
		t.Fatalf("expected echo.HTTPError, got %T", err)
	}
	if httpErr.Code != http.StatusTooManyRequests {
		t.Errorf("expected 429, got %d", httpErr.Code)
	}
	retry, convErr := strconv.Atoi(rec.Header().Get("Retry-After"))
	if convErr != nil || retry < 1 {
		t.Errorf("expected positive Retry-After, got %q", rec.Header().Get("Retry-After"))
	}
	if rec.Header().Get("X-RateLimit-Remaining") != "0" {
		t.Error("expected X-RateLimit-Remaining 0")
	}
}

func TestRateLimit_PerUserIsolation(t *testing.T) {
	e := echo.New()
	handler := RateLimit(RateLimitConfig{RequestsPerSecond: 0.001, BurstSize: 1})(func(c echo.Context) error {
		return nil
	})

	c1, _ := newRateLimitContext(e, "user-a")
	if err := handler(c1); err != nil {
		t.Fatalf("first request for user-a: %v", err)
	}
	c2, _ := newRateLimitContext(e, "user-a")
	if err := handler(c2); err == nil {
		t.Error("expected second request for user-a to be limited")
	}
	c3, _ := newRateLimitContext(e, "user-b")
	if err := handler(c3); err != nil {
		t.Errorf("user-b must have its own bucket: %v", err)
	}
}

func TestRateLimit_DefaultConfig(t *testing.T) {
	cfg := DefaultRateLimitConfig()
	if cfg.RequestsPerSecond != 50 || cfg.BurstSize != 100 {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
}

func TestTokenBucket_RetryAfterWithZeroRate(t *testing.T) {
	b := newTokenBucket(0, 1)
	b.allow()
	if got := b.retryAfter(); got != 1 {
		t.Errorf("expected retryAfter 1 for zero rate, got %d", got)
	}
}

func TestRateLimiterStore_ReusesBucket(t *testing.T) {
	s := newRateLimiterStore(RateLimitConfig{RequestsPerSecond: 1, BurstSize: 1})
	if s.getBucket("k") != s.getBucket("k") {
		t.Error("expected the same bucket for the same key")
	}
}

func TestRateLimiterStore_SweepsIdleBuckets(t *testing.T) {
	s := newRateLimiterStore(RateLimitConfig{RequestsPerSecond: 1, BurstSize: 1})
	s.getBucket("old").lastRefill = time.Now().Add(-time.Hour)
	s.getBucket("fresh")

	s.mu.Lock()
	s.sweepLocked()
	s.mu.Unlock()

	if _, ok := s.buckets["old"]; ok {
		t.Error("expected idle bucket to be swept")
	}
	if _, ok := s.buckets["fresh"]; !ok {
		t.Error("expected recent bucket to survive")
	}
}
