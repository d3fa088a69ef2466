package router

import (
	"net/http"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"github.com/Suhaibinator/SNexus/pkg/common"
	"go.uber.org/zap"
)

// Router is the execution engine. It holds an ordered middleware chain, an optional
// error handler and a handler table keyed by HTTP method.
//
// Registration (Use, OnError, Get, ...) is expected to happen before serving, but a
// Router is safe for concurrent use: every run works on a snapshot of the configuration.
// The type parameter S is the application's session type carried by the request's
// session slot.
type Router[S any] struct {
	mu           sync.RWMutex
	middlewares  []common.Middleware[S]
	errorHandler common.Middleware[S]
	handlers     map[string]common.Handler[S]
	logger       *zap.Logger
	observer     Observer
}

// NewRouter creates an engine with the given configuration.
func NewRouter[S any](config RouterConfig) *Router[S] {
	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	var observer Observer = noopObserver{}
	if config.Observer != nil {
		observer = config.Observer
	}

	return &Router[S]{
		handlers: make(map[string]common.Handler[S]),
		logger:   logger,
		observer: observer,
	}
}

// New creates an engine with the default configuration.
func New[S any]() *Router[S] {
	return NewRouter[S](RouterConfig{})
}

// Use appends middlewares to the chain. They run in registration order.
func (r *Router[S]) Use(middlewares ...common.Middleware[S]) *Router[S] {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.middlewares = append(r.middlewares, middlewares...)
	return r
}

// OnError sets the error handler, replacing any earlier one. When a middleware or handler
// fails, the error handler is invoked with a next that returns the failure.
func (r *Router[S]) OnError(handler common.Middleware[S]) *Router[S] {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.errorHandler = handler
	return r
}

// Get sets the handler for GET requests.
func (r *Router[S]) Get(handler common.Handler[S]) *Router[S] {
	return r.setHandler(http.MethodGet, handler)
}

// Post sets the handler for POST requests.
func (r *Router[S]) Post(handler common.Handler[S]) *Router[S] {
	return r.setHandler(http.MethodPost, handler)
}

// Put sets the handler for PUT requests.
func (r *Router[S]) Put(handler common.Handler[S]) *Router[S] {
	return r.setHandler(http.MethodPut, handler)
}

// Patch sets the handler for PATCH requests.
func (r *Router[S]) Patch(handler common.Handler[S]) *Router[S] {
	return r.setHandler(http.MethodPatch, handler)
}

// Delete sets the handler for DELETE requests.
func (r *Router[S]) Delete(handler common.Handler[S]) *Router[S] {
	return r.setHandler(http.MethodDelete, handler)
}

// Head sets the handler for HEAD requests.
func (r *Router[S]) Head(handler common.Handler[S]) *Router[S] {
	return r.setHandler(http.MethodHead, handler)
}

// All sets the same handler for every supported method.
func (r *Router[S]) All(handler common.Handler[S]) *Router[S] {
	for _, method := range SupportedMethods {
		r.setHandler(method, handler)
	}
	return r
}

func (r *Router[S]) setHandler(method string, handler common.Handler[S]) *Router[S] {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.handlers[strings.ToUpper(method)] = handler
	return r
}

// Run executes the chain for one request and dispatches to the handler registered for the
// request method. A method without a handler fails with ErrNoMatchingHandler, which goes
// through the same error path as any other failure.
//
// The returned result is nil when a middleware stopped the chain without producing one, or
// when the handler returned none; callers then send res.End(). The error is non-nil only
// when the error handler itself failed.
func (r *Router[S]) Run(req *common.Request[S], res *common.Response) (*common.Result, error) {
	r.mu.RLock()
	handler, ok := r.handlers[strings.ToUpper(req.Method())]
	r.mu.RUnlock()

	return r.execute(req, res, func() (*common.Result, error) {
		if !ok {
			return nil, ErrNoMatchingHandler
		}
		return handler(req, res)
	})
}

// Handle executes the chain for one request and then calls handler, ignoring the handler
// table. It is used for routes where one handler serves every method.
func (r *Router[S]) Handle(req *common.Request[S], res *common.Response, handler common.Handler[S]) (*common.Result, error) {
	return r.execute(req, res, func() (*common.Result, error) {
		return handler(req, res)
	})
}

func (r *Router[S]) execute(req *common.Request[S], res *common.Response, dispatch func() (*common.Result, error)) (*common.Result, error) {
	start := time.Now()

	r.mu.RLock()
	middlewares := r.middlewares
	errorHandler := r.errorHandler
	r.mu.RUnlock()

	result, outcome, err := r.runChain(middlewares, req, res, dispatch)
	if err != nil {
		result, err = r.handleFailure(errorHandler, req, res, err)
		outcome = OutcomeRecovered
		if err != nil {
			outcome = OutcomeFailed
		}
	}

	statusCode := res.StatusCode()
	if result != nil {
		statusCode = result.StatusCode()
	}
	r.observer.ObserveRun(req.Method(), string(outcome), statusCode, time.Since(start))

	return result, err
}

// runChain runs the middlewares and, if all of them proceed, the dispatch function.
// Panics are converted into *PanicError failures.
func (r *Router[S]) runChain(middlewares []common.Middleware[S], req *common.Request[S], res *common.Response, dispatch func() (*common.Result, error)) (result *common.Result, outcome Outcome, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			result, err = nil, r.recovered(req, rec)
		}
	}()

	result, completed, err := common.RunChain(middlewares, req, res)
	if err != nil {
		return nil, "", err
	}
	if !completed {
		return result, OutcomeShortCircuited, nil
	}

	result, err = dispatch()
	if err != nil {
		return nil, "", err
	}
	return result, OutcomeHandled, nil
}

// handleFailure hands a failure to the error handler, or builds the default 500 response
// when there is none.
func (r *Router[S]) handleFailure(errorHandler common.Middleware[S], req *common.Request[S], res *common.Response, failure error) (result *common.Result, err error) {
	if errorHandler == nil {
		r.logger.Error("Unhandled chain failure",
			zap.Error(failure),
			zap.String("method", req.Method()),
			zap.String("path", req.Path()),
		)
		return DefaultFailureResult(failure), nil
	}

	defer func() {
		if rec := recover(); rec != nil {
			result, err = nil, r.recovered(req, rec)
		}
		if err != nil {
			r.logger.Warn("Error handler failed",
				zap.Error(err),
				zap.NamedError("cause", failure),
				zap.String("method", req.Method()),
				zap.String("path", req.Path()),
			)
		}
	}()

	return errorHandler(req, res, func() error { return failure })
}

func (r *Router[S]) recovered(req *common.Request[S], rec any) error {
	perr := &PanicError{Value: rec, Stack: debug.Stack()}

	r.logger.Error("Panic recovered",
		zap.Any("panic", rec),
		zap.String("method", req.Method()),
		zap.String("path", req.Path()),
		zap.ByteString("stack", perr.Stack),
	)

	return perr
}
