// Package codec provides encoding and decoding functionality for different data formats.
package codec

import (
	"errors"
	"reflect"

	"google.golang.org/protobuf/proto"
)

// ProtoContentType is the Content-Type written for Protocol Buffers bodies.
const ProtoContentType = "application/x-protobuf"

// ErrNotProtoMessage is returned when a value handed to ProtoCodec is not a proto.Message.
var ErrNotProtoMessage = errors.New("value does not implement proto.Message")

// Package level variables so tests can substitute the marshaling functions.
var (
	protoMarshal   = proto.Marshal
	protoUnmarshal = proto.Unmarshal
)

// ProtoCodec is a codec that uses Protocol Buffers for marshaling and unmarshaling.
// Values passed to Marshal must implement proto.Message. Unmarshal accepts either a
// proto.Message or a pointer to a (nil) proto.Message pointer, which is allocated.
type ProtoCodec struct{}

// NewProtoCodec creates a new ProtoCodec instance.
func NewProtoCodec() *ProtoCodec {
	return &ProtoCodec{}
}

// ContentType returns "application/x-protobuf".
func (c *ProtoCodec) ContentType() string {
	return ProtoContentType
}

// Marshal encodes v, which must be a proto.Message.
func (c *ProtoCodec) Marshal(v any) ([]byte, error) {
	msg, ok := v.(proto.Message)
	if !ok {
		return nil, ErrNotProtoMessage
	}
	return protoMarshal(msg)
}

// Unmarshal decodes data into v.
func (c *ProtoCodec) Unmarshal(data []byte, v any) error {
	if msg, ok := v.(proto.Message); ok {
		return protoUnmarshal(data, msg)
	}

	// DecodeReader passes a pointer to the message pointer (e.g. **pb.User)
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Ptr || rv.IsNil() || rv.Elem().Kind() != reflect.Ptr {
		return ErrNotProtoMessage
	}

	elem := rv.Elem()
	fresh := reflect.New(elem.Type().Elem())
	msg, ok := fresh.Interface().(proto.Message)
	if !ok {
		return ErrNotProtoMessage
	}
	if err := protoUnmarshal(data, msg); err != nil {
		return err
	}

	elem.Set(fresh)
	return nil
}
