package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/Suhaibinator/SNexus/pkg/common"
	"go.uber.org/ratelimit"
	"go.uber.org/zap"
)

// Rate limit strategies for identifying clients.
const (
	StrategyIP     = "ip"
	StrategyUser   = "user"
	StrategyCustom = "custom"
)

// RateLimitConfig defines configuration for rate limiting
type RateLimitConfig struct {
	// Unique identifier for this rate limit bucket.
	// Routes sharing a BucketName share the same counters.
	BucketName string

	// Maximum number of requests allowed in the time window
	Limit int

	// Time window for the rate limit (e.g., 1 minute, 1 hour)
	Window time.Duration

	// Strategy for identifying clients: StrategyIP (default), StrategyUser or StrategyCustom
	Strategy string

	// Custom key extractor, used when Strategy is StrategyCustom
	KeyExtractor func(*http.Request) (string, error)

	// OnExceeded, if set, is called with the bucket name every time a request is rejected.
	OnExceeded func(bucket string)
}

// RateLimiter defines the interface for rate limiting algorithms
type RateLimiter interface {
	// Allow reports whether a request identified by key may proceed, together with the
	// number of remaining requests and the time until the window resets.
	Allow(key string, limit int, window time.Duration) (bool, int, time.Duration)
}

// UberRateLimiter implements RateLimiter with a fixed-window counter per key.
// With WithPacing, requests admitted by the counter are additionally spread evenly over
// the window by Uber's leaky-bucket limiter, which blocks the caller until its turn.
// Buckets whose window has run out are dropped by a sweep that runs at most once per
// sweepInterval.
type UberRateLimiter struct {
	mu        sync.Mutex
	buckets   map[string]*bucket
	clock     ratelimit.Clock
	pace      bool
	lastSweep time.Time
}

type bucket struct {
	limiter     ratelimit.Limiter
	window      time.Duration
	windowStart time.Time
	count       int
}

const sweepInterval = time.Minute

// LimiterOption configures an UberRateLimiter.
type LimiterOption func(*UberRateLimiter)

// WithPacing spaces admitted requests Window/Limit apart.
func WithPacing() LimiterOption {
	return func(u *UberRateLimiter) {
		u.pace = true
	}
}

// WithClock replaces the wall clock used for windows and pacing.
func WithClock(clock ratelimit.Clock) LimiterOption {
	return func(u *UberRateLimiter) {
		u.clock = clock
	}
}

type wallClock struct{}

func (wallClock) Now() time.Time        { return time.Now() }
func (wallClock) Sleep(d time.Duration) { time.Sleep(d) }

// NewUberRateLimiter creates a new rate limiter using Uber's ratelimit library
func NewUberRateLimiter(opts ...LimiterOption) *UberRateLimiter {
	u := &UberRateLimiter{
		buckets: make(map[string]*bucket),
		clock:   wallClock{},
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// Allow checks if a request is allowed based on the key and rate limit config.
// A non-positive limit is treated as 1 and a non-positive window as one second.
func (u *UberRateLimiter) Allow(key string, limit int, window time.Duration) (bool, int, time.Duration) {
	if window <= 0 {
		window = time.Second
	}
	if limit <= 0 {
		limit = 1
	}

	u.mu.Lock()
	now := u.clock.Now()
	if now.Sub(u.lastSweep) >= sweepInterval {
		u.sweep(now)
	}

	b, ok := u.buckets[key]
	if !ok {
		b = &bucket{windowStart: now}
		if u.pace {
			b.limiter = ratelimit.New(limit,
				ratelimit.Per(window),
				ratelimit.WithSlack(limit),
				ratelimit.WithClock(u.clock),
			)
		}
		u.buckets[key] = b
	}

	b.window = window
	if now.Sub(b.windowStart) >= window {
		b.windowStart = now
		b.count = 0
	}

	reset := window - now.Sub(b.windowStart)
	if b.count >= limit {
		u.mu.Unlock()
		return false, 0, reset
	}

	b.count++
	remaining := limit - b.count
	limiter := b.limiter
	u.mu.Unlock()

	if limiter != nil {
		limiter.Take()
	}

	return true, remaining, reset
}

// sweep removes buckets whose window has elapsed. u.mu must be held.
func (u *UberRateLimiter) sweep(now time.Time) {
	for key, b := range u.buckets {
		if now.Sub(b.windowStart) >= b.window {
			delete(u.buckets, key)
		}
	}
	u.lastSweep = now
}

// rateLimitKey derives the client key for config. userKey is consulted for StrategyUser
// and may be nil.
func rateLimitKey(config *RateLimitConfig, r *http.Request, userKey func() (string, bool)) (string, error) {
	switch config.Strategy {
	case StrategyUser:
		if userKey != nil {
			if key, ok := userKey(); ok && key != "" {
				return key, nil
			}
		}
	case StrategyCustom:
		if config.KeyExtractor != nil {
			return config.KeyExtractor(r)
		}
	}

	// StrategyIP and every fallback
	if ip := ClientIP(r); ip != "" {
		return ip, nil
	}
	return ExtractClientIP(r, DefaultIPConfig()), nil
}

// checkRateLimit consults limiter and writes the X-RateLimit-* headers into header.
func checkRateLimit(config *RateLimitConfig, limiter RateLimiter, key string, header http.Header) bool {
	allowed, remaining, reset := limiter.Allow(config.BucketName+":"+key, config.Limit, config.Window)

	header.Set("X-RateLimit-Limit", strconv.Itoa(config.Limit))
	header.Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
	header.Set("X-RateLimit-Reset", strconv.FormatInt(time.Now().Add(reset).Unix(), 10))

	if !allowed {
		header.Set("Retry-After", strconv.FormatInt(int64(reset.Seconds()), 10))
		if config.OnExceeded != nil {
			config.OnExceeded(config.BucketName)
		}
	}

	return allowed
}

// RateLimit creates a chain middleware that enforces config. A rejected request
// short-circuits with 429 Too Many Requests. With StrategyUser the session is not
// consulted; use RateLimitWithUserKey for that.
func RateLimit[S any](config *RateLimitConfig, limiter RateLimiter, logger *zap.Logger) common.Middleware[S] {
	return RateLimitWithUserKey[S](config, limiter, logger, nil)
}

// RateLimitWithUserKey is RateLimit where StrategyUser identifies clients by userKey applied
// to the request's session. Requests without a session fall back to the client IP.
func RateLimitWithUserKey[S any](config *RateLimitConfig, limiter RateLimiter, logger *zap.Logger, userKey func(S) string) common.Middleware[S] {
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(req *common.Request[S], res *common.Response, next common.Next) (*common.Result, error) {
		if config == nil {
			return nil, next()
		}

		var sessionKey func() (string, bool)
		if userKey != nil {
			sessionKey = func() (string, bool) {
				session, ok := req.Session()
				if !ok {
					return "", false
				}
				return userKey(session), true
			}
		}

		key, err := rateLimitKey(config, req.Raw(), sessionKey)
		if err != nil {
			logger.Error("Failed to extract rate limit key",
				zap.Error(err),
				zap.String("method", req.Method()),
				zap.String("path", req.Path()),
			)
			return nil, err
		}

		if !checkRateLimit(config, limiter, key, res.Header()) {
			logger.Warn("Rate limit exceeded",
				zap.String("method", req.Method()),
				zap.String("path", req.Path()),
				zap.String("key", key),
				zap.Int("limit", config.Limit),
			)
			return res.Status(http.StatusTooManyRequests).Send(map[string]string{"error": "Too Many Requests"})
		}

		return nil, next()
	}
}

// RateLimitHTTP is the net/http form of RateLimit, used by the hosting mux for its global
// limit. StrategyUser falls back to the client IP.
func RateLimitHTTP(config *RateLimitConfig, limiter RateLimiter, logger *zap.Logger) common.HTTPMiddleware {
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if config == nil {
				next.ServeHTTP(w, r)
				return
			}

			key, err := rateLimitKey(config, r, nil)
			if err != nil {
				logger.Error("Failed to extract rate limit key",
					zap.Error(err),
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
				)
				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				return
			}

			if !checkRateLimit(config, limiter, key, w.Header()) {
				logger.Warn("Rate limit exceeded",
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.String("key", key),
					zap.Int("limit", config.Limit),
				)
				http.Error(w, "Too Many Requests", http.StatusTooManyRequests)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
