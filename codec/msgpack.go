package codec

import (
	"errors"

	"github.com/vmihailenco/msgpack/v5"
	"github.com/vmihailenco/msgpack/v5/msgpcode"

	"github.com/LeoNavel/Squirrel/jsonvalue"
)

// Msgpack writes values in the tagged wire shape using vmihailenco/msgpack/v5.
// The zero value is ready to use. Dates use msgpack's timestamp extension.
type Msgpack struct{}

var (
	_ Codec[jsonvalue.Value] = Msgpack{}
	_ jsonvalue.Format       = msgpackFormat{}
)

func (Msgpack) Encode(v jsonvalue.Value) ([]byte, error) {
	return v.EncodeFormat(msgpackFormat{})
}

func (Msgpack) Decode(b []byte) (jsonvalue.Value, error) {
	return jsonvalue.DecodeFormat(msgpackFormat{}, b)
}

type msgpackFormat struct{}

// errNullPayload rejects a tag carrying nil, which would otherwise decode
// as the zero value of the target type.
var errNullPayload = errors.New("null payload")

func (msgpackFormat) Marshal(v any) ([]byte, error) { return msgpack.Marshal(v) }

func (msgpackFormat) Unmarshal(b []byte, v any) error {
	if len(b) == 1 && b[0] == msgpcode.Nil {
		return errNullPayload
	}
	return msgpack.Unmarshal(b, v)
}

func (f msgpackFormat) Members(b []byte) (map[string][]byte, error) {
	var m map[string]msgpack.RawMessage
	if err := f.Unmarshal(b, &m); err != nil {
		return nil, err
	}
	out := make(map[string][]byte, len(m))
	for k, raw := range m {
		out[k] = raw
	}
	return out, nil
}

func (f msgpackFormat) Elements(b []byte) ([][]byte, error) {
	var a []msgpack.RawMessage
	if err := f.Unmarshal(b, &a); err != nil {
		return nil, err
	}
	out := make([][]byte, len(a))
	for i, raw := range a {
		out[i] = raw
	}
	return out, nil
}
