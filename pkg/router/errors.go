package router

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/Suhaibinator/SNexus/pkg/common"
	"go.uber.org/zap"
)

// ErrNoMatchingHandler is the failure raised when the handler table has no entry for the
// request method. Its message is written verbatim to clients when no error handler is set.
var ErrNoMatchingHandler = errors.New("No HTTP method is matched with the incoming request\n" +
	"Please make sure you are registering your handler with the correct method in the router instance")

const defaultFailureHint = "\nAdd an onError middleware to the Router instance to handle errors gracefully"

// DefaultFailureResult is the response produced for a failure that no error handler caught:
// status 500 and a plain-text body of the form
// "Internal Server Error: {message}\nAdd an onError middleware to the Router instance to handle errors gracefully".
func DefaultFailureResult(err error) *common.Result {
	return common.TextResult(http.StatusInternalServerError, "Internal Server Error: "+err.Error()+defaultFailureHint)
}

// HTTPError represents an HTTP error with a status code and message.
// It can be returned from handlers and middlewares; the ErrorHandler middleware
// turns it into a response with that status code and message.
type HTTPError struct {
	StatusCode int    // HTTP status code (e.g., 400, 404, 500)
	Message    string // Error message to be sent in the response body
}

// Error implements the error interface.
// It returns a string representation of the HTTP error in the format "status: message".
func (e *HTTPError) Error() string {
	return fmt.Sprintf("%d: %s", e.StatusCode, e.Message)
}

// NewHTTPError creates a new HTTPError with the specified status code and message.
func NewHTTPError(statusCode int, message string) *HTTPError {
	return &HTTPError{
		StatusCode: statusCode,
		Message:    message,
	}
}

// PanicError wraps a value recovered from a panicking middleware or handler.
type PanicError struct {
	Value any
	Stack []byte
}

// Error returns the panic value formatted as text, so the default failure response
// reads like the message of a thrown error.
func (e *PanicError) Error() string {
	if err, ok := e.Value.(error); ok {
		return err.Error()
	}
	return fmt.Sprint(e.Value)
}

// Unwrap returns the panic value when it is an error.
func (e *PanicError) Unwrap() error {
	err, _ := e.Value.(error)
	return err
}

// ErrorHandler returns an error-handling middleware for Router.OnError.
// It calls next to obtain the failure, logs it, and responds with a JSON body
// {"error": "..."}: an *HTTPError keeps its status code and message, anything else
// becomes 500 Internal Server Error.
func ErrorHandler[S any](logger *zap.Logger) common.Middleware[S] {
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(req *common.Request[S], res *common.Response, next common.Next) (*common.Result, error) {
		err := next()
		if err == nil {
			return nil, nil
		}

		statusCode := http.StatusInternalServerError
		message := http.StatusText(http.StatusInternalServerError)

		var httpErr *HTTPError
		if errors.As(err, &httpErr) {
			statusCode = httpErr.StatusCode
			message = httpErr.Message
		}

		fields := []zap.Field{
			zap.Error(err),
			zap.String("method", req.Method()),
			zap.String("path", req.Path()),
			zap.Int("status", statusCode),
		}
		if statusCode >= http.StatusInternalServerError {
			logger.Error("Request failed", fields...)
		} else {
			logger.Warn("Request failed", fields...)
		}

		if setErr := res.SetStatus(statusCode); setErr != nil {
			// HTTPError carried a status outside the accepted range
			res.Status(http.StatusInternalServerError)
		}
		return res.Send(map[string]string{"error": message})
	}
}
