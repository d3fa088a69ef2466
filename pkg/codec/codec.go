// Package codec provides encoding and decoding functionality for different data formats.
// Codecs are used by the response builder to serialize bodies and by the payload
// parsing middlewares to deserialize request bodies.
package codec

import (
	"io"
)

// Codec marshals and unmarshals values for a single wire format.
type Codec interface {
	// ContentType returns the media type written to the Content-Type header
	// of responses encoded with this codec.
	ContentType() string

	// Marshal serializes v into the wire format.
	Marshal(v any) ([]byte, error)

	// Unmarshal deserializes data into v. v must be a pointer.
	Unmarshal(data []byte, v any) error
}

// DecodeReader reads everything from r and decodes it into a new value of type T.
func DecodeReader[T any](c Codec, r io.Reader) (T, error) {
	var data T

	body, err := io.ReadAll(r)
	if err != nil {
		return data, err
	}

	if err := c.Unmarshal(body, &data); err != nil {
		return data, err
	}

	return data, nil
}
