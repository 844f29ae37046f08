package jsonvalue

import (
	"bytes"
	"errors"
	"time"

	"github.com/goccy/go-json"
)

const (
	tagString     = "string"
	tagDictionary = "dictionary"
	tagArray      = "array"
	tagInt        = "int"
	tagDouble     = "double"
	tagBool       = "bool"
	tagDate       = "date"
	tagNil        = "nil"
)

// tagOrder is the order Decode tries tags in. The first tag whose payload
// parses wins.
var tagOrder = [...]string{
	tagString,
	tagDictionary,
	tagArray,
	tagInt,
	tagDouble,
	tagBool,
	tagDate,
	tagNil,
}

// Format is a self-describing encoding the tagged wire shape can be written
// in. Members and Elements split an encoded object or array into the raw
// encodings of its children without decoding them.
type Format interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
	Members(data []byte) (map[string][]byte, error)
	Elements(data []byte) ([][]byte, error)
}

// JSONFormat writes the wire shape as JSON text. Dates are RFC 3339 strings
// with nanoseconds.
var JSONFormat Format = jsonFormat{}

type jsonFormat struct{}

var jsonNull = []byte("null")

func (jsonFormat) Marshal(v any) ([]byte, error) { return json.Marshal(v) }

// Unmarshal refuses a bare null so a tag carrying null never passes as a
// zero payload.
func (jsonFormat) Unmarshal(data []byte, v any) error {
	if bytes.Equal(bytes.TrimSpace(data), jsonNull) {
		return errors.New("null payload")
	}
	return json.Unmarshal(data, v)
}

func (f jsonFormat) Members(data []byte) (map[string][]byte, error) {
	var m map[string]json.RawMessage
	if err := f.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	out := make(map[string][]byte, len(m))
	for k, raw := range m {
		out[k] = raw
	}
	return out, nil
}

func (f jsonFormat) Elements(data []byte) ([][]byte, error) {
	var a []json.RawMessage
	if err := f.Unmarshal(data, &a); err != nil {
		return nil, err
	}
	out := make([][]byte, len(a))
	for i, raw := range a {
		out[i] = raw
	}
	return out, nil
}

// Encode writes v in the tagged wire format as JSON.
func (v Value) Encode() ([]byte, error) {
	return v.EncodeFormat(JSONFormat)
}

// Decode reads a Value written by Encode.
func Decode(data []byte) (Value, error) {
	return DecodeFormat(JSONFormat, data)
}

// EncodeFormat writes v in the tagged wire format using f.
func (v Value) EncodeFormat(f Format) ([]byte, error) {
	b, err := f.Marshal(v.tagged())
	if err != nil {
		return nil, NewError(ErrEncode, "could not encode", err)
	}
	return b, nil
}

// DecodeFormat reads a Value written by EncodeFormat with the same f.
func DecodeFormat(f Format, data []byte) (Value, error) {
	members, err := f.Members(data)
	if err != nil {
		return Value{}, NewError(ErrEncode, "could not encode", err)
	}
	for _, tag := range tagOrder {
		raw, ok := members[tag]
		if !ok {
			continue
		}
		if v, ok := decodeMember(f, tag, raw); ok {
			return v, nil
		}
	}
	return Value{}, NewError(ErrEncode, "could not encode", nil)
}

func (v Value) tagged() map[string]any {
	switch v.kind {
	case String:
		return map[string]any{tagString: v.s}
	case Int:
		return map[string]any{tagInt: v.i}
	case Double:
		return map[string]any{tagDouble: v.f}
	case Bool:
		return map[string]any{tagBool: v.b}
	case Date:
		return map[string]any{tagDate: v.t}
	case Array:
		out := make([]any, len(v.arr))
		for i, e := range v.arr {
			out[i] = e.tagged()
		}
		return map[string]any{tagArray: out}
	case Object:
		out := make(map[string]any, len(v.obj))
		for k, e := range v.obj {
			out[k] = e.tagged()
		}
		return map[string]any{tagDictionary: out}
	default:
		return map[string]any{tagNil: tagNil}
	}
}

func decodeMember(f Format, tag string, raw []byte) (Value, bool) {
	switch tag {
	case tagString:
		var s string
		if f.Unmarshal(raw, &s) != nil {
			return Value{}, false
		}
		return NewString(s), true
	case tagDictionary:
		members, err := f.Members(raw)
		if err != nil {
			return Value{}, false
		}
		out := make(map[string]Value, len(members))
		for k, child := range members {
			cv, err := DecodeFormat(f, child)
			if err != nil {
				return Value{}, false
			}
			out[k] = cv
		}
		return newObjectOwned(out), true
	case tagArray:
		elems, err := f.Elements(raw)
		if err != nil {
			return Value{}, false
		}
		out := make([]Value, len(elems))
		for i, child := range elems {
			cv, err := DecodeFormat(f, child)
			if err != nil {
				return Value{}, false
			}
			out[i] = cv
		}
		return newArrayOwned(out), true
	case tagInt:
		var i int64
		if f.Unmarshal(raw, &i) != nil {
			return Value{}, false
		}
		return NewInt(i), true
	case tagDouble:
		var d float64
		if f.Unmarshal(raw, &d) != nil {
			return Value{}, false
		}
		return NewDouble(d), true
	case tagBool:
		var b bool
		if f.Unmarshal(raw, &b) != nil {
			return Value{}, false
		}
		return NewBool(b), true
	case tagDate:
		var t time.Time
		if f.Unmarshal(raw, &t) != nil {
			return Value{}, false
		}
		return NewDate(t), true
	case tagNil:
		return Value{}, true
	default:
		return Value{}, false
	}
}
