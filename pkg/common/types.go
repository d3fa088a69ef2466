// Package common provides shared types and utilities used across the SNexus framework.
package common

import (
	"net/http"
)

// Next is the continuation handed to a middleware. Calling it only records that the
// middleware wants the chain to proceed; it runs nothing itself and returns immediately.
// The continuation handed to an error handler instead returns the original failure.
type Next func() error

// Middleware is a single unit of a request chain.
// It may mutate the shared request and response, return a non-nil Result to
// short-circuit the chain, or call next and return (nil, nil) to let the chain proceed.
// A middleware that neither calls next nor returns a Result also stops the chain.
// Any returned error is routed to the router's error handler.
type Middleware[S any] func(req *Request[S], res *Response, next Next) (*Result, error)

// Handler is the final, method-specific stage of a chain.
type Handler[S any] func(req *Request[S], res *Response) (*Result, error)

// HTTPMiddleware is a function that wraps an http.Handler.
// It is used for the net/http level middlewares applied by the hosting mux, and can be
// brought into a chain with the middleware.Adapt function.
type HTTPMiddleware func(http.Handler) http.Handler
