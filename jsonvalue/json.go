package jsonvalue

import (
	"github.com/goccy/go-json"
)

var (
	_ json.Marshaler   = Value{}
	_ json.Unmarshaler = (*Value)(nil)
)

// MarshalJSON writes v as plain JSON. Dates are written as RFC 3339 strings.
func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Interface())
}

// UnmarshalJSON accepts any JSON value, scalars and null included. Use
// Parse when the root must be an object or an array.
func (v *Value) UnmarshalJSON(data []byte) error {
	tree, err := decodeTree(data)
	if err != nil {
		return NewError(ErrParse, "corrupted content", err)
	}
	out, ok := FromAny(tree)
	if !ok {
		return NewError(ErrNotValidContent, "not valid content", nil)
	}
	*v = out
	return nil
}
