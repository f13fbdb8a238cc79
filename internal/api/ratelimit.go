package api

import (
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiterConfig sets the per-user token buckets.
type RateLimiterConfig struct {
	GeneralRate     rate.Limit
	GeneralBurst    int
	RequestRate     rate.Limit
	RequestBurst    int
	CleanupInterval time.Duration
}

// NewRateLimiterConfig builds a config from per-minute limits.
func NewRateLimiterConfig(generalPerMinute, requestsPerMinute int) RateLimiterConfig {
	return RateLimiterConfig{
		GeneralRate:     rate.Limit(float64(generalPerMinute) / 60.0),
		GeneralBurst:    generalPerMinute,
		RequestRate:     rate.Limit(float64(requestsPerMinute) / 60.0),
		RequestBurst:    requestsPerMinute,
		CleanupInterval: 5 * time.Minute,
	}
}

type userLimiter struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// limiterSet holds one bucket per user.
type limiterSet struct {
	rate  rate.Limit
	burst int

	mu       sync.Mutex
	limiters map[string]*userLimiter
}

func newLimiterSet(r rate.Limit, burst int) *limiterSet {
	return &limiterSet{rate: r, burst: burst, limiters: make(map[string]*userLimiter)}
}

func (s *limiterSet) get(userID string) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()

	ul, ok := s.limiters[userID]
	if !ok {
		ul = &userLimiter{limiter: rate.NewLimiter(s.rate, s.burst)}
		s.limiters[userID] = ul
	}
	ul.lastAccess = time.Now()
	return ul.limiter
}

func (s *limiterSet) evictIdle(ttl time.Duration, now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for userID, ul := range s.limiters {
		if now.Sub(ul.lastAccess) > ttl {
			delete(s.limiters, userID)
		}
	}
}

// RateLimiter enforces a general limit on authenticated routes and a
// stricter one on request creation, both per user.
type RateLimiter struct {
	config   RateLimiterConfig
	general  *limiterSet
	requests *limiterSet
	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewRateLimiter starts a RateLimiter with a background loop that evicts idle
// users. Call Stop to end it.
func NewRateLimiter(config RateLimiterConfig) *RateLimiter {
	rl := &RateLimiter{
		config:   config,
		general:  newLimiterSet(config.GeneralRate, config.GeneralBurst),
		requests: newLimiterSet(config.RequestRate, config.RequestBurst),
		stopCh:   make(chan struct{}),
	}
	go rl.cleanupLoop()
	return rl
}

// Stop ends the cleanup loop.
func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.stopCh) })
}

// GeneralMiddleware limits every authenticated route. It must run after
// AuthMiddleware.
func (rl *RateLimiter) GeneralMiddleware() func(http.Handler) http.Handler {
	return rl.middleware(rl.general, "general")
}

// RequestMiddleware limits borrow request creation.
func (rl *RateLimiter) RequestMiddleware() func(http.Handler) http.Handler {
	return rl.middleware(rl.requests, "request_creation")
}

func (rl *RateLimiter) middleware(set *limiterSet, kind string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := CurrentUser(r.Context())
			if user == nil {
				jsonError(w, http.StatusUnauthorized, codeUnauthorized, "not authenticated")
				return
			}

			if !set.get(user.ID).Allow() {
				slog.Warn("rate limit exceeded", "user", user.Email, "limit", kind)
				writeRateLimited(w, set.rate)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func (rl *RateLimiter) cleanupLoop() {
	ticker := time.NewTicker(rl.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case now := <-ticker.C:
			ttl := rl.config.CleanupInterval * 2
			rl.general.evictIdle(ttl, now)
			rl.requests.evictIdle(ttl, now)
		case <-rl.stopCh:
			return
		}
	}
}

// writeRateLimited writes a 429 with Retry-After set to the time one token
// takes to refill.
func writeRateLimited(w http.ResponseWriter, r rate.Limit) {
	retryAfter := 1
	if r > 0 {
		retryAfter = max(1, int(math.Ceil(1.0/float64(r))))
	}
	w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
	jsonError(w, http.StatusTooManyRequests, codeRateLimited, "too many requests, please try again later")
}
