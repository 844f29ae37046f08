package codec

import "github.com/LeoNavel/Squirrel/jsonvalue"

// JSON writes values in the tagged wire format as JSON text. The zero value
// is ready to use.
type JSON struct{}

var _ Codec[jsonvalue.Value] = JSON{}

func (JSON) Encode(v jsonvalue.Value) ([]byte, error) { return v.Encode() }
func (JSON) Decode(b []byte) (jsonvalue.Value, error) { return jsonvalue.Decode(b) }
