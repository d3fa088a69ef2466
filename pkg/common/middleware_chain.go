package common

import (
	"net/http"
)

// MiddlewareChain represents a chain of net/http middleware
type MiddlewareChain []HTTPMiddleware

// NewMiddlewareChain creates a new middleware chain
func NewMiddlewareChain(middlewares ...HTTPMiddleware) MiddlewareChain {
	return middlewares
}

// Append adds middleware to the end of the chain
func (c MiddlewareChain) Append(middlewares ...HTTPMiddleware) MiddlewareChain {
	return append(c, middlewares...)
}

// Prepend adds middleware to the beginning of the chain
func (c MiddlewareChain) Prepend(middlewares ...HTTPMiddleware) MiddlewareChain {
	result := make(MiddlewareChain, len(middlewares)+len(c))
	copy(result, middlewares)
	copy(result[len(middlewares):], c)
	return result
}

// Then applies the middleware chain to a handler.
// The first middleware in the chain is the outermost one.
func (c MiddlewareChain) Then(h http.Handler) http.Handler {
	for i := len(c) - 1; i >= 0; i-- {
		h = c[i](h)
	}
	return h
}

// RunChain runs middlewares strictly in order against one request/response pair.
// It stops at the first middleware that returns an error, returns a Result, or does
// not call its continuation. completed is true only when every middleware called
// next and none returned a Result, in which case the caller should dispatch.
func RunChain[S any](middlewares []Middleware[S], req *Request[S], res *Response) (result *Result, completed bool, err error) {
	for _, mw := range middlewares {
		nextCalled := false

		out, err := mw(req, res, func() error {
			nextCalled = true
			return nil
		})
		if err != nil {
			return nil, false, err
		}

		if !nextCalled || out != nil {
			return out, false, nil
		}
	}

	return nil, true, nil
}

// Compose groups several middlewares into one with the same sequencing rules.
// If the whole group proceeds, the composed middleware calls its own continuation.
func Compose[S any](middlewares ...Middleware[S]) Middleware[S] {
	group := append([]Middleware[S](nil), middlewares...)

	return func(req *Request[S], res *Response, next Next) (*Result, error) {
		result, completed, err := RunChain(group, req, res)
		if err != nil || !completed {
			return result, err
		}
		return nil, next()
	}
}
