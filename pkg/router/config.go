// Package router provides the execution engine that runs a middleware chain and a
// method-keyed handler table for one request, the adapter that exposes an engine as
// per-method httprouter handles, and a hosting Mux that mounts engines on paths.
package router

import (
	"time"

	"github.com/Suhaibinator/SNexus/pkg/common"
	"github.com/Suhaibinator/SNexus/pkg/metrics"
	"github.com/Suhaibinator/SNexus/pkg/middleware"
	"go.uber.org/zap"
)

// Outcome describes how a single engine run ended.
type Outcome string

const (
	// OutcomeHandled means the chain completed and the handler produced the response.
	OutcomeHandled Outcome = "handled"

	// OutcomeShortCircuited means a middleware ended the run without invoking the handler.
	OutcomeShortCircuited Outcome = "short_circuited"

	// OutcomeRecovered means a failure occurred and was turned into a response, either by the
	// registered error handler or by the default 500 response.
	OutcomeRecovered Outcome = "recovered"

	// OutcomeFailed means the error handler itself failed and the failure was returned to the caller.
	OutcomeFailed Outcome = "failed"
)

// Observer receives one notification per engine run.
// Implementations must be safe for concurrent use.
// metrics.Collector satisfies this interface.
type Observer interface {
	ObserveRun(method, outcome string, statusCode int, duration time.Duration)
}

// ObserverFunc adapts a plain function to the Observer interface.
type ObserverFunc func(method, outcome string, statusCode int, duration time.Duration)

// ObserveRun calls f.
func (f ObserverFunc) ObserveRun(method, outcome string, statusCode int, duration time.Duration) {
	f(method, outcome, statusCode, duration)
}

type noopObserver struct{}

func (noopObserver) ObserveRun(string, string, int, time.Duration) {}

// RouterConfig defines the configuration of an execution engine.
type RouterConfig struct {
	Logger   *zap.Logger // Logger for unhandled failures and recovered panics (default: no-op)
	Observer Observer    // Receives per-run outcomes (default: no-op)
}

// MuxConfig defines the global configuration of the hosting mux.
// It includes settings for logging, body limits, rate limiting, tracing, metrics, and middleware.
type MuxConfig struct {
	Logger            *zap.Logger                 // Logger for all mux operations
	GlobalMaxBodySize int64                       // Maximum request body size in bytes (0 means unlimited)
	GlobalRateLimit   *middleware.RateLimitConfig // Rate limit applied to every mounted route
	RateLimiter       middleware.RateLimiter      // Limiter for GlobalRateLimit (default: middleware.NewUberRateLimiter())
	CORS              *middleware.CORSConfig      // Cross-origin policy; also answers OPTIONS preflight requests
	IPConfig          *middleware.IPConfig        // Configuration for client IP extraction
	EnableTraceID     bool                        // Generate a trace ID per request and log it
	EnableMetrics     bool                        // Log request metrics and feed Metrics if set
	Metrics           *metrics.Collector          // Prometheus collector for request metrics (optional)
	Middlewares       []common.HTTPMiddleware     // Global net/http middlewares applied to all routes
}
