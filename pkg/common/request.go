package common

import (
	"context"
	"io"
	"net/http"
	"net/url"

	"github.com/julienschmidt/httprouter"
)

// Request is the per-call request context threaded through a chain.
// It wraps the platform *http.Request and carries the attachment slots that
// middlewares fill in for later stages: params, query, payload and session.
// S is the application-defined session type.
//
// Method and URL never change after construction. Each slot is unset until a
// middleware sets it; a later write silently replaces an earlier one.
type Request[S any] struct {
	raw    *http.Request
	params httprouter.Params

	query    url.Values
	hasQuery bool

	payload    any
	hasPayload bool

	session    S
	hasSession bool
}

// NewRequest creates the request context for one inbound call.
// params is the route-path metadata produced by the hosting router; it may be nil.
// The platform request is shallow-copied, so replacing the body or context of the
// Request does not affect the caller's *http.Request.
func NewRequest[S any](r *http.Request, params httprouter.Params) *Request[S] {
	if params == nil {
		params = httprouter.Params{}
	}
	return &Request[S]{
		raw:    r.WithContext(r.Context()),
		params: params,
	}
}

// Method returns the HTTP method of the request.
func (r *Request[S]) Method() string {
	return r.raw.Method
}

// URL returns a copy of the request URL.
func (r *Request[S]) URL() *url.URL {
	u := *r.raw.URL
	if r.raw.URL.User != nil {
		user := *r.raw.URL.User
		u.User = &user
	}
	return &u
}

// Path returns the request URL path.
func (r *Request[S]) Path() string {
	return r.raw.URL.Path
}

// Header returns the request headers. Lookups are case-insensitive.
func (r *Request[S]) Header() http.Header {
	return r.raw.Header
}

// Body returns the request body stream. It may be nil or http.NoBody.
func (r *Request[S]) Body() io.ReadCloser {
	return r.raw.Body
}

// SetBody replaces the request body stream for later stages.
// Middlewares that consume the body should put back an equivalent reader.
func (r *Request[S]) SetBody(body io.ReadCloser) {
	r.raw.Body = body
}

// Context returns the request's context.
func (r *Request[S]) Context() context.Context {
	return r.raw.Context()
}

// SetContext replaces the request's context. Method and URL are unaffected.
func (r *Request[S]) SetContext(ctx context.Context) {
	r.raw = r.raw.WithContext(ctx)
}

// Raw returns the underlying platform request, reflecting any body or context
// replaced by middlewares.
func (r *Request[S]) Raw() *http.Request {
	return r.raw
}

// Params returns the path parameters extracted by the hosting router.
func (r *Request[S]) Params() httprouter.Params {
	return r.params
}

// Param returns a single path parameter by name, or "" if absent.
func (r *Request[S]) Param(name string) string {
	return r.params.ByName(name)
}

// SetParams replaces the path parameters.
func (r *Request[S]) SetParams(params httprouter.Params) {
	r.params = params
}

// Query returns the parsed query slot and whether it has been set.
func (r *Request[S]) Query() (url.Values, bool) {
	return r.query, r.hasQuery
}

// SetQuery sets the query slot.
func (r *Request[S]) SetQuery(query url.Values) {
	r.query = query
	r.hasQuery = true
}

// Payload returns the parsed payload slot and whether it has been set.
func (r *Request[S]) Payload() (any, bool) {
	return r.payload, r.hasPayload
}

// SetPayload sets the payload slot.
func (r *Request[S]) SetPayload(payload any) {
	r.payload = payload
	r.hasPayload = true
}

// Session returns the session slot and whether it has been set.
func (r *Request[S]) Session() (S, bool) {
	return r.session, r.hasSession
}

// SetSession sets the session slot.
func (r *Request[S]) SetSession(session S) {
	r.session = session
	r.hasSession = true
}

// PayloadAs returns the payload slot as a T.
// The second result is false if the slot is unset or holds a different type.
func PayloadAs[T any, S any](r *Request[S]) (T, bool) {
	var zero T
	if !r.hasPayload {
		return zero, false
	}
	v, ok := r.payload.(T)
	if !ok {
		return zero, false
	}
	return v, true
}
