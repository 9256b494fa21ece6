package middleware

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"
)

const limiterTTLFactor = 2

// RateLimiterConfig holds the throttle settings for credential endpoints.
type RateLimiterConfig struct {
	PerMinute       float64       // allowed requests per minute per client IP
	Burst           int           // burst size per client IP
	CleanupInterval time.Duration // how often idle IP entries are evicted
}

// DefaultRateLimiterConfig allows 10 login attempts per minute per IP.
func DefaultRateLimiterConfig() RateLimiterConfig {
	return RateLimiterConfig{
		PerMinute:       10,
		Burst:           10,
		CleanupInterval: 5 * time.Minute,
	}
}

type ipLimiter struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// RateLimiter throttles requests per client IP. It protects credential
// endpoints against brute forcing; use it on the login route group, not
// globally.
type RateLimiter struct {
	config   RateLimiterConfig
	mu       sync.Mutex
	limiters map[string]*ipLimiter
	stopCh   chan struct{}
}

// NewRateLimiter creates a RateLimiter and starts its cleanup goroutine.
// Call Stop on shutdown.
func NewRateLimiter(config RateLimiterConfig) *RateLimiter {
	if config.PerMinute <= 0 {
		config = DefaultRateLimiterConfig()
	}
	rl := &RateLimiter{
		config:   config,
		limiters: make(map[string]*ipLimiter),
		stopCh:   make(chan struct{}),
	}
	go rl.cleanupLoop()
	return rl
}

// Stop terminates the cleanup goroutine.
func (rl *RateLimiter) Stop() {
	close(rl.stopCh)
}

// Middleware returns the echo middleware enforcing the limit.
func (rl *RateLimiter) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !rl.allow(c.RealIP()) {
				c.Response().Header().Set("Retry-After", strconv.Itoa(rl.retryAfterSeconds()))
				return echo.NewHTTPError(http.StatusTooManyRequests, "too many attempts, try again later")
			}
			return next(c)
		}
	}
}

// LimiterCount returns the number of tracked IPs, for tests.
func (rl *RateLimiter) LimiterCount() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.limiters)
}

func (rl *RateLimiter) allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	entry, ok := rl.limiters[ip]
	if !ok {
		entry = &ipLimiter{
			limiter: rate.NewLimiter(rate.Limit(rl.config.PerMinute/60.0), rl.config.Burst),
		}
		rl.limiters[ip] = entry
	}
	entry.lastAccess = time.Now()
	return entry.limiter.Allow()
}

func (rl *RateLimiter) retryAfterSeconds() int {
	sec := int(math.Ceil(60.0 / rl.config.PerMinute))
	if sec < 1 {
		sec = 1
	}
	return sec
}

func (rl *RateLimiter) cleanupLoop() {
	ticker := time.NewTicker(rl.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.cleanup()
		case <-rl.stopCh:
			return
		}
	}
}

func (rl *RateLimiter) cleanup() {
	ttl := rl.config.CleanupInterval * limiterTTLFactor
	now := time.Now()

	rl.mu.Lock()
	defer rl.mu.Unlock()
	for ip, entry := range rl.limiters {
		if now.Sub(entry.lastAccess) > ttl {
			delete(rl.limiters, ip)
		}
	}
}
