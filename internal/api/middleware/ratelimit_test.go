package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
)

func limitedEcho(rl *RateLimiter) *echo.Echo {
	e := echo.New()
	e.POST("/api/auth/login", func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	}, rl.Middleware())
	return e
}

func doLogin(e *echo.Echo, ip string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
	req.Header.Set(echo.HeaderXRealIP, ip)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestRateLimiterBlocksAfterBurst(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{PerMinute: 10, Burst: 3, CleanupInterval: time.Minute})
	defer rl.Stop()
	e := limitedEcho(rl)

	for i := 0; i < 3; i++ {
		if rec := doLogin(e, "10.0.0.1"); rec.Code != http.StatusOK {
			t.Fatalf("attempt %d: status = %d, want 200", i+1, rec.Code)
		}
	}

	rec := doLogin(e, "10.0.0.1")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Fatal("expected Retry-After header")
	}
}

func TestRateLimiterIsolatesClients(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{PerMinute: 10, Burst: 1, CleanupInterval: time.Minute})
	defer rl.Stop()
	e := limitedEcho(rl)

	if rec := doLogin(e, "10.0.0.1"); rec.Code != http.StatusOK {
		t.Fatalf("first client: status = %d, want 200", rec.Code)
	}
	if rec := doLogin(e, "10.0.0.1"); rec.Code != http.StatusTooManyRequests {
		t.Fatalf("first client second attempt: status = %d, want 429", rec.Code)
	}
	if rec := doLogin(e, "10.0.0.2"); rec.Code != http.StatusOK {
		t.Fatalf("second client: status = %d, want 200", rec.Code)
	}
}

func TestRateLimiterCleanupEvictsIdleEntries(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{PerMinute: 10, Burst: 1, CleanupInterval: 10 * time.Millisecond})
	defer rl.Stop()
	e := limitedEcho(rl)

	doLogin(e, "10.0.0.1")
	if rl.LimiterCount() != 1 {
		t.Fatalf("LimiterCount = %d, want 1", rl.LimiterCount())
	}

	deadline := time.Now().Add(time.Second)
	for rl.LimiterCount() != 0 {
		if time.Now().After(deadline) {
			t.Fatalf("idle entry not evicted, LimiterCount = %d", rl.LimiterCount())
		}
		time.Sleep(10 * time.Millisecond)
	}
}
