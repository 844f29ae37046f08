package codec

import (
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/LeoNavel/Squirrel/jsonvalue"
)

// Protobuf is a Codec for any generated message type.
type Protobuf[T proto.Message] struct {
	new func() T // constructor for a concrete message (e.g., func() *mypb.User { return &mypb.User{} })
}

func NewProtobuf[T proto.Message](ctor func() T) Protobuf[T] {
	return Protobuf[T]{new: ctor}
}

func (c Protobuf[T]) Encode(v T) ([]byte, error) {
	return proto.Marshal(v)
}

func (c Protobuf[T]) Decode(b []byte) (T, error) {
	m := c.new()
	err := proto.Unmarshal(b, m)
	return m, err
}

// Proto stores values as google.protobuf.Value messages. It is lossy: ints
// come back as Int only when integral and within ±2^53, and dates come back
// as RFC 3339 strings. Use it when the payload is shared with protobuf
// consumers; prefer JSON, CBOR or Msgpack otherwise.
type Proto struct{}

var (
	_ Codec[jsonvalue.Value] = Proto{}

	structValues = NewProtobuf(func() *structpb.Value { return &structpb.Value{} })
)

func (Proto) Encode(v jsonvalue.Value) ([]byte, error) {
	return structValues.Encode(v.ToProto())
}

func (Proto) Decode(b []byte) (jsonvalue.Value, error) {
	pv, err := structValues.Decode(b)
	if err != nil {
		return jsonvalue.Value{}, jsonvalue.NewError(jsonvalue.ErrEncode, "could not decode protobuf value", err)
	}
	return jsonvalue.FromProto(pv), nil
}
