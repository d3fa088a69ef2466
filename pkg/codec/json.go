// Package codec provides encoding and decoding functionality for different data formats.
package codec

import (
	"bytes"
	"encoding/json"
)

// JSONContentType is the Content-Type written for JSON bodies.
const JSONContentType = "application/json"

// JSONCodec is a codec that uses JSON for marshaling and unmarshaling.
// HTML characters are not escaped and no trailing newline is written, so the
// output matches what a browser's JSON.stringify would produce.
type JSONCodec struct{}

// NewJSONCodec creates a new JSONCodec instance.
func NewJSONCodec() *JSONCodec {
	return &JSONCodec{}
}

// ContentType returns "application/json".
func (c *JSONCodec) ContentType() string {
	return JSONContentType
}

// Marshal encodes v as JSON.
func (c *JSONCodec) Marshal(v any) ([]byte, error) {
	var buf bytes.Buffer

	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}

	// Encode always appends a newline
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// Unmarshal decodes JSON data into v.
func (c *JSONCodec) Unmarshal(data []byte, v any) error {
	return json.Unmarshal(data, v)
}
