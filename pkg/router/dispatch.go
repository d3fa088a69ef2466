package router

import (
	"context"
	"net/http"

	"github.com/Suhaibinator/SNexus/pkg/common"
	"github.com/julienschmidt/httprouter"
	"go.uber.org/zap"
)

// SupportedMethods lists the HTTP methods an engine is exported for.
var SupportedMethods = []string{
	http.MethodGet,
	http.MethodHead,
	http.MethodPost,
	http.MethodPut,
	http.MethodPatch,
	http.MethodDelete,
}

// MethodHandlers maps an HTTP method to the hosting entry point for that method.
type MethodHandlers map[string]httprouter.Handle

// contextKey is a type for context keys.
type contextKey string

const (
	// ParamsKey is the key used to store httprouter.Params in the request context.
	// Router.ServeHTTP reads route parameters from it.
	ParamsKey contextKey = "params"
)

// GetParams retrieves the httprouter.Params from the request context.
func GetParams(r *http.Request) httprouter.Params {
	params, _ := r.Context().Value(ParamsKey).(httprouter.Params)
	return params
}

// GetParam retrieves a specific parameter from the request context.
func GetParam(r *http.Request, name string) string {
	return GetParams(r).ByName(name)
}

// NewContext builds the request context and a fresh response builder for one incoming
// request. Route parameters come from params; the query, payload and session slots stay
// unset until a middleware fills them.
func NewContext[S any](r *http.Request, params httprouter.Params) (*common.Request[S], *common.Response) {
	return common.NewRequest[S](r, params), common.NewResponse()
}

// ExportAllMethods exposes the engine's handler-table variant (Router.Run) under every
// supported method.
func ExportAllMethods[S any](r *Router[S]) MethodHandlers {
	return exportAll(r, r.Run)
}

// ExportAllHTTPMethods exposes the single-handler variant (Router.Handle) with handler
// under every supported method.
func ExportAllHTTPMethods[S any](r *Router[S], handler common.Handler[S]) MethodHandlers {
	return exportAll(r, func(req *common.Request[S], res *common.Response) (*common.Result, error) {
		return r.Handle(req, res, handler)
	})
}

func exportAll[S any](r *Router[S], run func(*common.Request[S], *common.Response) (*common.Result, error)) MethodHandlers {
	handle := func(w http.ResponseWriter, req *http.Request, ps httprouter.Params) {
		r.serve(w, req, ps, run)
	}

	handlers := make(MethodHandlers, len(SupportedMethods))
	for _, method := range SupportedMethods {
		handlers[method] = handle
	}
	return handlers
}

// ServeHTTP implements http.Handler by running the handler-table variant. Route
// parameters are read from the request context (see ParamsKey).
func (r *Router[S]) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.serve(w, req, GetParams(req), r.Run)
}

// serve runs the engine for one request and writes the outcome. A run that ends without a
// result sends the response builder's current state with no body.
func (r *Router[S]) serve(w http.ResponseWriter, req *http.Request, ps httprouter.Params, run func(*common.Request[S], *common.Response) (*common.Result, error)) {
	creq, res := NewContext[S](req, ps)

	result, err := run(creq, res)
	if err != nil {
		// Nothing above the adapter can catch it
		r.logger.Error("Unhandled error handler failure",
			zap.Error(err),
			zap.String("method", req.Method),
			zap.String("path", req.URL.Path),
		)
		result = DefaultFailureResult(err)
	} else if result == nil {
		result, _ = res.End()
	}

	if err := result.Write(w); err != nil {
		r.logger.Warn("Failed to write response",
			zap.Error(err),
			zap.String("method", req.Method),
			zap.String("path", req.URL.Path),
		)
	}
}

// WithParams returns a shallow copy of req whose context carries params under ParamsKey.
func WithParams(req *http.Request, params httprouter.Params) *http.Request {
	return req.WithContext(context.WithValue(req.Context(), ParamsKey, params))
}
