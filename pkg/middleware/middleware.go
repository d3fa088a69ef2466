package middleware

import (
	"net/http"
	"runtime/debug"
	"slices"
	"strconv"
	"strings"

	"github.com/Suhaibinator/SNexus/pkg/common"
	"go.uber.org/zap"
)

// Recovery is a net/http middleware that recovers from panics and responds with
// 500 Internal Server Error. The engine recovers panics inside a chain itself; the hosting
// mux uses this for raw handlers and its own middlewares.
func Recovery(logger *zap.Logger) common.HTTPMiddleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					logger.Error("Panic recovered",
						zap.Any("panic", rec),
						zap.String("stack", string(debug.Stack())),
						zap.String("method", r.Method),
						zap.String("path", r.URL.Path),
					)

					http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}

// Logging logs every request entering the chain at Debug level.
// Completed requests are logged by the hosting mux, which sees the final status.
func Logging[S any](logger *zap.Logger) common.Middleware[S] {
	return func(req *common.Request[S], res *common.Response, next common.Next) (*common.Result, error) {
		fields := []zap.Field{
			zap.String("method", req.Method()),
			zap.String("path", req.Path()),
		}
		if ip := ClientIPFromContext(req.Context()); ip != "" {
			fields = append(fields, zap.String("client_ip", ip))
		}
		if traceID := GetTraceIDFromContext(req.Context()); traceID != "" {
			fields = append([]zap.Field{zap.String("trace_id", traceID)}, fields...)
		}

		logger.Debug("Request", fields...)
		return nil, next()
	}
}

// MaxBodySize limits the number of bytes downstream stages can read from the body.
// Reading past the limit fails with *http.MaxBytesError.
func MaxBodySize[S any](maxSize int64) common.Middleware[S] {
	return func(req *common.Request[S], res *common.Response, next common.Next) (*common.Result, error) {
		if body := req.Body(); body != nil && maxSize > 0 {
			req.SetBody(http.MaxBytesReader(nil, body, maxSize))
		}
		return nil, next()
	}
}

// MaxBodySizeHTTP is the net/http form of MaxBodySize.
func MaxBodySizeHTTP(maxSize int64) common.HTTPMiddleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if maxSize > 0 && r.Body != nil {
				r.Body = http.MaxBytesReader(w, r.Body, maxSize)
			}
			next.ServeHTTP(w, r)
		})
	}
}

// CORSConfig defines the cross-origin policy applied by CORS and CORSHTTP.
type CORSConfig struct {
	Origins          []string // allowed origins; "*" allows any
	Methods          []string
	Headers          []string
	AllowCredentials bool
	MaxAge           int // preflight cache lifetime in seconds
}

// CORS sets the CORS headers on the shared response. An OPTIONS preflight request
// short-circuits with 204 No Content.
func CORS[S any](config CORSConfig) common.Middleware[S] {
	return func(req *common.Request[S], res *common.Response, next common.Next) (*common.Result, error) {
		applyCORSHeaders(config, req.Header().Get("Origin"), res.Header())

		if req.Method() == http.MethodOptions {
			return res.Status(http.StatusNoContent).End()
		}
		return nil, next()
	}
}

// CORSHTTP is the net/http form of CORS.
func CORSHTTP(config CORSConfig) common.HTTPMiddleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			applyCORSHeaders(config, r.Header.Get("Origin"), w.Header())

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func applyCORSHeaders(config CORSConfig, origin string, header http.Header) {
	switch {
	case slices.Contains(config.Origins, "*"):
		header.Set("Access-Control-Allow-Origin", "*")
	case origin != "" && slices.Contains(config.Origins, origin):
		header.Set("Access-Control-Allow-Origin", origin)
		header.Add("Vary", "Origin")
	}

	if len(config.Methods) > 0 {
		header.Set("Access-Control-Allow-Methods", strings.Join(config.Methods, ", "))
	}
	if len(config.Headers) > 0 {
		header.Set("Access-Control-Allow-Headers", strings.Join(config.Headers, ", "))
	}
	if config.AllowCredentials {
		header.Set("Access-Control-Allow-Credentials", "true")
	}
	if config.MaxAge > 0 {
		header.Set("Access-Control-Max-Age", strconv.Itoa(config.MaxAge))
	}
}
