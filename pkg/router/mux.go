package router

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/Suhaibinator/SNexus/pkg/common"
	"github.com/Suhaibinator/SNexus/pkg/middleware"
	"github.com/julienschmidt/httprouter"
	"go.uber.org/zap"
)

// Mux hosts execution engines on URL paths. It implements http.Handler.
// Every route is wrapped with the mux's global net/http middlewares (panic recovery,
// client IP, trace ID, CORS, body size limit, rate limit and MuxConfig.Middlewares, in
// that order) and is tracked for graceful shutdown.
type Mux struct {
	config      MuxConfig
	router      *httprouter.Router
	logger      *zap.Logger
	middlewares common.MiddlewareChain
	wg          sync.WaitGroup
	shutdown    bool
	shutdownMu  sync.RWMutex
	writerPool  sync.Pool
}

// NewMux creates a Mux with the given configuration.
func NewMux(config MuxConfig) *Mux {
	logger := config.Logger
	if logger == nil {
		var err error
		logger, err = zap.NewProduction()
		if err != nil {
			logger = zap.NewNop()
		}
	}

	m := &Mux{
		config: config,
		router: httprouter.New(),
		logger: logger,
		writerPool: sync.Pool{
			New: func() any {
				return &statusWriter{}
			},
		},
	}

	chain := common.NewMiddlewareChain(
		middleware.Recovery(logger),
		middleware.ClientIPMiddleware(config.IPConfig),
	)
	if config.EnableTraceID {
		chain = chain.Append(middleware.TraceMiddleware())
	}
	if config.CORS != nil {
		cors := middleware.CORSHTTP(*config.CORS)
		chain = chain.Append(cors)
		m.router.GlobalOPTIONS = cors(http.NotFoundHandler())
	}
	if config.GlobalMaxBodySize > 0 {
		chain = chain.Append(middleware.MaxBodySizeHTTP(config.GlobalMaxBodySize))
	}
	if config.GlobalRateLimit != nil {
		rateLimit := *config.GlobalRateLimit
		if rateLimit.OnExceeded == nil && config.Metrics != nil {
			rateLimit.OnExceeded = config.Metrics.ObserveRateLimited
		}
		limiter := config.RateLimiter
		if limiter == nil {
			limiter = middleware.NewUberRateLimiter()
		}
		chain = chain.Append(middleware.RateLimitHTTP(&rateLimit, limiter, logger))
	}
	m.middlewares = chain.Append(config.Middlewares...)

	return m
}

// Mount registers the handler-table variant of r under path for every supported method.
func Mount[S any](m *Mux, path string, r *Router[S]) {
	m.register(path, ExportAllMethods(r))
}

// MountHandler registers the single-handler variant of r under path for every supported
// method: the chain runs and then handler is called, whatever the method.
func MountHandler[S any](m *Mux, path string, r *Router[S], handler common.Handler[S]) {
	m.register(path, ExportAllHTTPMethods(r, handler))
}

func (m *Mux) register(path string, handlers MethodHandlers) {
	for _, method := range SupportedMethods {
		if h, ok := handlers[method]; ok {
			m.Handle(method, path, paramsHandler(h))
		}
	}
}

// Handle registers a plain http.Handler for one method and path. Route parameters are
// available through GetParams.
func (m *Mux) Handle(method, path string, handler http.Handler) {
	wrapped := m.middlewares.Then(handler)

	m.router.Handle(method, path, func(w http.ResponseWriter, req *http.Request, ps httprouter.Params) {
		m.shutdownMu.RLock()
		if m.shutdown {
			m.shutdownMu.RUnlock()
			http.Error(w, "Service Unavailable", http.StatusServiceUnavailable)
			return
		}
		m.wg.Add(1)
		m.shutdownMu.RUnlock()
		defer m.wg.Done()

		wrapped.ServeHTTP(w, WithParams(req, ps))
	})
}

// paramsHandler turns an httprouter.Handle into an http.Handler that reads its
// parameters from the request context.
func paramsHandler(h httprouter.Handle) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		h(w, req, GetParams(req))
	})
}

// ServeHTTP dispatches the request and, when metrics are enabled, logs and records it.
func (m *Mux) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	if !m.config.EnableMetrics {
		m.router.ServeHTTP(w, req)
		return
	}

	sw := m.writerPool.Get().(*statusWriter)
	sw.ResponseWriter = w
	sw.statusCode = http.StatusOK
	sw.bytesWritten = 0
	start := time.Now()

	defer func() {
		duration := time.Since(start)
		m.logRequest(req, sw, duration)
		if m.config.Metrics != nil {
			m.config.Metrics.ObserveRequest(req.Method, sw.statusCode, duration)
		}

		sw.ResponseWriter = nil
		m.writerPool.Put(sw)
	}()

	m.router.ServeHTTP(sw, req)
}

func (m *Mux) logRequest(req *http.Request, sw *statusWriter, duration time.Duration) {
	fields := []zap.Field{
		zap.String("method", req.Method),
		zap.String("path", req.URL.Path),
		zap.Int("status", sw.statusCode),
		zap.Duration("duration", duration),
		zap.Int64("bytes", sw.bytesWritten),
	}
	// The trace ID is set on the response header by the trace middleware
	if traceID := sw.Header().Get(middleware.TraceIDHeader); traceID != "" {
		fields = append([]zap.Field{zap.String("trace_id", traceID)}, fields...)
	}

	switch {
	case sw.statusCode >= 500:
		m.logger.Error("Server error", fields...)
	case sw.statusCode >= 400:
		m.logger.Warn("Client error", fields...)
	case duration > time.Second:
		m.logger.Warn("Slow request", fields...)
	default:
		m.logger.Debug("Request metrics", fields...)
	}
}

// Shutdown stops accepting new requests and waits for in-flight ones to complete.
// If ctx is done first, its error is returned.
func (m *Mux) Shutdown(ctx context.Context) error {
	m.shutdownMu.Lock()
	m.shutdown = true
	m.shutdownMu.Unlock()

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// statusWriter captures the status code and response size for logging and metrics.
type statusWriter struct {
	http.ResponseWriter
	statusCode   int
	bytesWritten int64
}

func (w *statusWriter) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	n, err := w.ResponseWriter.Write(b)
	w.bytesWritten += int64(n)
	return n, err
}

// Flush calls the underlying ResponseWriter.Flush if it implements http.Flusher.
func (w *statusWriter) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}
