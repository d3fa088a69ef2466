package codec

import (
	"io"
	"strings"
	"testing"
)

// TestJSONCodec tests the JSONCodec
func TestJSONCodec(t *testing.T) {
	type TestPayload struct {
		Name string `json:"name"`
		Age  int    `json:"age"`
	}

	codec := NewJSONCodec()

	if codec.ContentType() != "application/json" {
		t.Errorf("Expected content type %q, got %q", "application/json", codec.ContentType())
	}

	// Marshal writes compact JSON without a trailing newline
	body, err := codec.Marshal(TestPayload{Name: "John", Age: 30})
	if err != nil {
		t.Fatalf("Failed to marshal: %v", err)
	}
	if string(body) != `{"name":"John","age":30}` {
		t.Errorf("Expected body %q, got %q", `{"name":"John","age":30}`, string(body))
	}

	// HTML characters are kept as is
	body, err = codec.Marshal(map[string]string{"html": "<b>&</b>"})
	if err != nil {
		t.Fatalf("Failed to marshal: %v", err)
	}
	if string(body) != `{"html":"<b>&</b>"}` {
		t.Errorf("Expected body %q, got %q", `{"html":"<b>&</b>"}`, string(body))
	}

	// Unmarshal
	var decoded TestPayload
	if err := codec.Unmarshal([]byte(`{"name":"Jane","age":25}`), &decoded); err != nil {
		t.Fatalf("Failed to unmarshal: %v", err)
	}
	if decoded.Name != "Jane" || decoded.Age != 25 {
		t.Errorf("Expected {Jane 25}, got %+v", decoded)
	}
}

// TestJSONCodecErrors tests error handling in the JSONCodec
func TestJSONCodecErrors(t *testing.T) {
	codec := NewJSONCodec()

	// Channels cannot be marshaled to JSON
	if _, err := codec.Marshal(make(chan int)); err == nil {
		t.Errorf("Expected error when marshaling fails")
	}

	var v map[string]any
	if err := codec.Unmarshal([]byte(`{"name":invalid}`), &v); err == nil {
		t.Errorf("Expected error when decoding invalid JSON")
	}
}

// TestDecodeReader tests DecodeReader with the JSON codec
func TestDecodeReader(t *testing.T) {
	type TestRequest struct {
		Name string `json:"name"`
	}

	data, err := DecodeReader[TestRequest](NewJSONCodec(), strings.NewReader(`{"name":"John"}`))
	if err != nil {
		t.Fatalf("Failed to decode: %v", err)
	}
	if data.Name != "John" {
		t.Errorf("Expected name %q, got %q", "John", data.Name)
	}

	// Empty body
	if _, err := DecodeReader[TestRequest](NewJSONCodec(), strings.NewReader("")); err == nil {
		t.Errorf("Expected error when decoding empty body")
	}

	// Read error
	if _, err := DecodeReader[TestRequest](NewJSONCodec(), &errorReader{}); err == nil {
		t.Errorf("Expected error when reading body fails")
	}
}

// errorReader is a reader that always returns an error
type errorReader struct{}

func (r *errorReader) Read(p []byte) (n int, err error) {
	return 0, io.ErrUnexpectedEOF
}
