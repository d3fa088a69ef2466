package middleware

import (
	"bytes"
	"net/http"

	"github.com/Suhaibinator/SNexus/pkg/common"
)

// Adapt runs a classic net/http middleware as a chain stage.
//
// The wrapped middleware sees the chain's request and a response writer whose headers are
// the shared response headers. If it calls the handler it was given, the chain continues
// with whatever request context and body it passed along, and anything it wrote is dropped.
// If it writes a response instead, the chain short-circuits with that response.
// If it does neither, the chain stops without a result.
func Adapt[S any](mw common.HTTPMiddleware) common.Middleware[S] {
	return func(req *common.Request[S], res *common.Response, next common.Next) (*common.Result, error) {
		var forwarded *http.Request
		inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			forwarded = r
		})

		w := &captureWriter{header: res.Header()}
		mw(inner).ServeHTTP(w, req.Raw())

		if forwarded != nil {
			req.SetContext(forwarded.Context())
			req.SetBody(forwarded.Body)
			return nil, next()
		}

		if !w.written() {
			return nil, nil
		}

		if err := res.SetStatus(w.status); err != nil {
			return nil, err
		}
		return common.NewResult(w.status, res.Header(), w.body.Bytes()), nil
	}
}

// captureWriter buffers what a net/http middleware writes.
type captureWriter struct {
	header http.Header
	status int
	body   bytes.Buffer
}

func (w *captureWriter) Header() http.Header {
	return w.header
}

func (w *captureWriter) WriteHeader(statusCode int) {
	if w.status == 0 {
		w.status = statusCode
	}
}

func (w *captureWriter) Write(b []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	return w.body.Write(b)
}

func (w *captureWriter) written() bool {
	return w.status != 0
}
