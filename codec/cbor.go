package codec

import (
	"github.com/fxamacker/cbor/v2"

	"github.com/LeoNavel/Squirrel/jsonvalue"
)

// CBOR writes values in the tagged wire shape using fxamacker/cbor.
// The zero value is NOT ready to use. Construct with NewCBOR or MustCBOR.
//
// Use deterministic=true for canonical encoding (RFC 8949 Core Deterministic)
// when you need byte-for-byte stable outputs (e.g., hashing/content addressing).
// Otherwise PreferredUnsortedEncOptions are used.
// Dates are encoded as RFC3339Nano text.
type CBOR struct {
	enc cbor.EncMode
	dec cbor.DecMode
}

var (
	_ Codec[jsonvalue.Value] = CBOR{}
	_ jsonvalue.Format       = cborFormat{}
)

// NewCBOR constructs a CBOR codec.
//   - deterministic is true, uses CoreDetEncOptions (RFC 8949).
//   - Otherwise uses PreferredUnsortedEncOptions (smaller/faster defaults).
func NewCBOR(deterministic bool) (CBOR, error) {
	var eo cbor.EncOptions
	if deterministic {
		eo = cbor.CoreDetEncOptions()
	} else {
		eo = cbor.PreferredUnsortedEncOptions()
	}
	eo.Time = cbor.TimeRFC3339Nano

	em, err := eo.EncMode()
	if err != nil {
		return CBOR{}, err
	}
	dm, err := (cbor.DecOptions{}).DecMode()
	if err != nil {
		return CBOR{}, err
	}
	return CBOR{enc: em, dec: dm}, nil
}

// MustCBOR is like NewCBOR but panics on error.
// Handy for package-level variables in tests and examples.
func MustCBOR(deterministic bool) CBOR {
	c, err := NewCBOR(deterministic)
	if err != nil {
		panic(err)
	}
	return c
}

func (c CBOR) Encode(v jsonvalue.Value) ([]byte, error) {
	return v.EncodeFormat(cborFormat(c))
}

func (c CBOR) Decode(b []byte) (jsonvalue.Value, error) {
	return jsonvalue.DecodeFormat(cborFormat(c), b)
}

type cborFormat CBOR

// CBOR null and undefined.
const (
	cborNull      = 0xf6
	cborUndefined = 0xf7
)

func (f cborFormat) Marshal(v any) ([]byte, error) { return f.enc.Marshal(v) }

func (f cborFormat) Unmarshal(b []byte, v any) error {
	if len(b) == 1 && (b[0] == cborNull || b[0] == cborUndefined) {
		return errNullPayload
	}
	return f.dec.Unmarshal(b, v)
}

func (f cborFormat) Members(b []byte) (map[string][]byte, error) {
	var m map[string]cbor.RawMessage
	if err := f.Unmarshal(b, &m); err != nil {
		return nil, err
	}
	out := make(map[string][]byte, len(m))
	for k, raw := range m {
		out[k] = raw
	}
	return out, nil
}

func (f cborFormat) Elements(b []byte) ([][]byte, error) {
	var a []cbor.RawMessage
	if err := f.Unmarshal(b, &a); err != nil {
		return nil, err
	}
	out := make([][]byte, len(a))
	for i, raw := range a {
		out[i] = raw
	}
	return out, nil
}
