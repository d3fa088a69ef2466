package middleware

import (
	"context"
	"net/http"

	"github.com/Suhaibinator/SNexus/pkg/common"
	"github.com/google/uuid"
)

// TraceIDHeader is the response header carrying the request's trace ID.
const TraceIDHeader = "X-Trace-ID"

type traceIDKey struct{}

// TraceIDKey is the key used to store the trace ID in the request context
var TraceIDKey = traceIDKey{}

// TraceMiddleware generates a unique trace ID for each request, adds it to the request
// context and echoes it in the X-Trace-ID response header.
func TraceMiddleware() common.HTTPMiddleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			traceID := uuid.New().String()
			w.Header().Set(TraceIDHeader, traceID)

			next.ServeHTTP(w, r.WithContext(WithTraceID(r.Context(), traceID)))
		})
	}
}

// TraceID is the chain form of TraceMiddleware. A trace ID already present in the context
// (for example one set by the mux) is reused.
func TraceID[S any]() common.Middleware[S] {
	return func(req *common.Request[S], res *common.Response, next common.Next) (*common.Result, error) {
		traceID := GetTraceIDFromContext(req.Context())
		if traceID == "" {
			traceID = uuid.New().String()
			req.SetContext(WithTraceID(req.Context(), traceID))
		}
		res.SetHeader(TraceIDHeader, traceID)

		return nil, next()
	}
}

// WithTraceID returns a copy of ctx carrying traceID.
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, TraceIDKey, traceID)
}

// GetTraceID extracts the trace ID from the request context.
// Returns an empty string if no trace ID is found.
func GetTraceID(r *http.Request) string {
	return GetTraceIDFromContext(r.Context())
}

// GetTraceIDFromContext extracts the trace ID from a context.
// Returns an empty string if no trace ID is found.
func GetTraceIDFromContext(ctx context.Context) string {
	if traceID, ok := ctx.Value(TraceIDKey).(string); ok {
		return traceID
	}
	return ""
}
