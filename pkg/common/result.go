package common

import (
	"net/http"
)

// Result is the immutable, finalized response produced by a terminal operation of
// the Response builder, or by the router's default failure path.
// A nil body means the response has no body at all.
type Result struct {
	statusCode int
	header     http.Header
	body       []byte
}

// NewResult creates a Result. header and body are copied.
func NewResult(statusCode int, header http.Header, body []byte) *Result {
	var b []byte
	if body != nil {
		b = append([]byte{}, body...)
	}
	return &Result{
		statusCode: statusCode,
		header:     header.Clone(),
		body:       b,
	}
}

// TextResult creates a plain-text Result.
func TextResult(statusCode int, text string) *Result {
	header := make(http.Header)
	header.Set("Content-Type", "text/plain; charset=utf-8")
	return &Result{
		statusCode: statusCode,
		header:     header,
		body:       []byte(text),
	}
}

// StatusCode returns the HTTP status code.
func (r *Result) StatusCode() int {
	return r.statusCode
}

// Header returns a copy of the response headers.
func (r *Result) Header() http.Header {
	h := r.header.Clone()
	if h == nil {
		h = make(http.Header)
	}
	return h
}

// Body returns a copy of the response body, or nil when there is none.
func (r *Result) Body() []byte {
	if r.body == nil {
		return nil
	}
	return append([]byte{}, r.body...)
}

// HasBody reports whether the response carries a body.
func (r *Result) HasBody() bool {
	return r.body != nil
}

// Write copies the result onto a platform response writer.
func (r *Result) Write(w http.ResponseWriter) error {
	dst := w.Header()
	for name, values := range r.header {
		dst[name] = append([]string(nil), values...)
	}

	w.WriteHeader(r.statusCode)

	if r.body == nil {
		return nil
	}
	_, err := w.Write(r.body)
	return err
}
