package common

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"

	"github.com/Suhaibinator/SNexus/pkg/codec"
)

// Legal range for explicitly set status codes.
const (
	MinStatusCode = 200
	MaxStatusCode = 599
)

// ErrInvalidStatusCode is matched by every StatusCodeError.
var ErrInvalidStatusCode = errors.New("invalid status code")

// StatusCodeError is returned (or panicked with) when a status code outside
// [MinStatusCode, MaxStatusCode] is set on a Response.
type StatusCodeError struct {
	Code int
}

// Error implements the error interface.
func (e *StatusCodeError) Error() string {
	return fmt.Sprintf("Status code must be between %d and %d, got %d", MinStatusCode, MaxStatusCode, e.Code)
}

// Is reports whether target is ErrInvalidStatusCode.
func (e *StatusCodeError) Is(target error) bool {
	return target == ErrInvalidStatusCode
}

// noBodyStatusCodes never carry a body, whatever is passed to Send.
var noBodyStatusCodes = map[int]bool{
	http.StatusNoContent:    true,
	http.StatusResetContent: true,
	http.StatusNotModified:  true,
}

// Response is the mutable builder shared by every stage of a chain.
// It accumulates a status code and headers until a terminal operation
// (Send, SendWith, End, Redirect, RedirectWithStatus) snapshots them into a Result.
type Response struct {
	statusCode int
	header     http.Header
	codec      codec.Codec
}

// NewResponse creates a builder with status 200, no headers and JSON body encoding.
func NewResponse() *Response {
	return &Response{
		statusCode: http.StatusOK,
		header:     make(http.Header),
		codec:      codec.NewJSONCodec(),
	}
}

// StatusCode returns the current status code.
func (r *Response) StatusCode() int {
	return r.statusCode
}

// SetStatus validates and sets the status code. On error the builder is unchanged.
func (r *Response) SetStatus(code int) error {
	if code < MinStatusCode || code > MaxStatusCode {
		return &StatusCodeError{Code: code}
	}
	r.statusCode = code
	return nil
}

// Status sets the status code and returns the builder for chaining.
// It panics with a *StatusCodeError if code is out of range; inside a chain the
// router recovers the panic and treats it as a failure.
func (r *Response) Status(code int) *Response {
	if err := r.SetStatus(code); err != nil {
		panic(err)
	}
	return r
}

// Header returns the accumulated header map.
func (r *Response) Header() http.Header {
	return r.header
}

// SetHeader sets a header, replacing any existing values.
func (r *Response) SetHeader(name, value string) *Response {
	r.header.Set(name, value)
	return r
}

// GetHeader returns the first value of a header, or "" if it is not set.
func (r *Response) GetHeader(name string) string {
	return r.header.Get(name)
}

// RemoveHeader deletes a header.
func (r *Response) RemoveHeader(name string) *Response {
	r.header.Del(name)
	return r
}

// Send finalizes the response with a JSON body.
// If the status is 204, 205 or 304, or body is empty (nil, a nil pointer, map or slice,
// "", an empty []byte, false or a numeric zero), the Result has no body. Accumulated headers are applied after
// the body's Content-Type, so an explicitly set Content-Type wins.
func (r *Response) Send(body any) (*Result, error) {
	return r.SendWith(r.codec, body)
}

// SendWith is Send with an explicit body codec.
func (r *Response) SendWith(c codec.Codec, body any) (*Result, error) {
	header := make(http.Header)
	var payload []byte

	if !noBodyStatusCodes[r.statusCode] && !isEmptyBody(body) {
		encoded, err := c.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode response body: %w", err)
		}
		payload = encoded
		header.Set("Content-Type", c.ContentType())
	}

	for name, values := range r.header {
		header[name] = append([]string(nil), values...)
	}

	return &Result{
		statusCode: r.statusCode,
		header:     header,
		body:       payload,
	}, nil
}

// End finalizes the response without a body.
func (r *Response) End() (*Result, error) {
	return r.SendWith(r.codec, nil)
}

// Redirect sets the Location header and finalizes a 302 response.
func (r *Response) Redirect(url string) (*Result, error) {
	return r.RedirectWithStatus(http.StatusFound, url)
}

// RedirectWithStatus sets the Location header and finalizes a redirect with the given
// status. A code outside the 3xx range is replaced with 302. The builder's own status
// is left untouched.
func (r *Response) RedirectWithStatus(code int, url string) (*Result, error) {
	if code < 300 || code >= 400 {
		code = http.StatusFound
	}

	r.SetHeader("Location", url)

	return &Result{
		statusCode: code,
		header:     r.header.Clone(),
	}, nil
}

func isEmptyBody(body any) bool {
	switch b := body.(type) {
	case nil:
		return true
	case string:
		return b == ""
	case []byte:
		return len(b) == 0
	}

	v := reflect.ValueOf(body)
	switch v.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Interface, reflect.Chan, reflect.Func:
		return v.IsNil()
	case reflect.String:
		return v.Len() == 0
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64:
		// Falsy scalars carry no body
		return v.IsZero()
	}
	return false
}
