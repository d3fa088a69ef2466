package middleware

import (
	"bytes"
	"io"

	"github.com/Suhaibinator/SNexus/pkg/codec"
	"github.com/Suhaibinator/SNexus/pkg/common"
	"google.golang.org/protobuf/proto"
)

// JSONParser decodes a JSON request body into the payload slot as a generic value
// (map[string]any, []any, string, float64, bool or nil).
// See BodyParser for when decoding happens.
func JSONParser[S any]() common.Middleware[S] {
	return BodyParser[S, any](codec.NewJSONCodec())
}

// JSONPayload decodes a JSON request body into a T stored in the payload slot.
// Handlers read it back with common.PayloadAs[T].
func JSONPayload[S any, T any]() common.Middleware[S] {
	return BodyParser[S, T](codec.NewJSONCodec())
}

// ProtoPayload decodes a Protocol Buffers request body into the payload slot.
// T is the message pointer type, e.g. *pb.User.
func ProtoPayload[S any, T proto.Message]() common.Middleware[S] {
	return BodyParser[S, T](codec.NewProtoCodec())
}

// BodyParser decodes the request body with c when the Content-Type header is exactly
// c.ContentType(). The body is buffered and put back, so later stages can read it again.
// A body that fails to decode leaves the payload slot unset; the chain always proceeds.
// If reading the body fails, later stages get the bytes read so far and then the same error.
func BodyParser[S any, T any](c codec.Codec) common.Middleware[S] {
	contentType := c.ContentType()

	return func(req *common.Request[S], res *common.Response, next common.Next) (*common.Result, error) {
		if req.Header().Get("Content-Type") != contentType || req.Body() == nil {
			return nil, next()
		}

		body, err := io.ReadAll(req.Body())
		_ = req.Body().Close()
		if err != nil {
			// Downstream sees the same bytes followed by the same error, e.g. *http.MaxBytesError
			req.SetBody(io.NopCloser(io.MultiReader(bytes.NewReader(body), errReader{err})))
			return nil, next()
		}
		req.SetBody(io.NopCloser(bytes.NewReader(body)))

		payload, err := codec.DecodeReader[T](c, bytes.NewReader(body))
		if err == nil {
			req.SetPayload(payload)
		}

		return nil, next()
	}
}

// errReader fails every read with err.
type errReader struct {
	err error
}

func (r errReader) Read([]byte) (int, error) {
	return 0, r.err
}

// QueryParser stores the URL query parameters in the query slot.
func QueryParser[S any]() common.Middleware[S] {
	return func(req *common.Request[S], res *common.Response, next common.Next) (*common.Result, error) {
		req.SetQuery(req.URL().Query())
		return nil, next()
	}
}
