package encoder

import (
	"reflect"
	"unicode/utf8"

	"github.com/goccy/go-json"

	"github.com/LeoNavel/Squirrel/jsonvalue"
)

// Encode converts object into an untyped tree of map[string]any, []any and
// scalars. It fails with jsonvalue.ErrEncode when object yields nothing to
// encode, e.g. nil or a struct without encodable fields.
func Encode(object any) (any, error) {
	out, ok, err := encode(reflect.ValueOf(object), 0)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, jsonvalue.NewError(jsonvalue.ErrEncode, "could not encode", nil)
	}
	return out, nil
}

// EncodeBytes encodes object and serializes the tree as JSON. A tree the
// serializer rejects (e.g. a NaN float) fails with jsonvalue.ErrParse.
func EncodeBytes(object any) ([]byte, error) {
	tree, err := Encode(object)
	if err != nil {
		return nil, err
	}
	b, err := json.Marshal(tree)
	if err != nil {
		return nil, jsonvalue.NewError(jsonvalue.ErrParse, "could not serialize", err)
	}
	return b, nil
}

// EncodeText is EncodeBytes as a string. Output that is not valid UTF-8
// fails with jsonvalue.ErrDataCoding.
func EncodeText(object any) (string, error) {
	b, err := EncodeBytes(object)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(b) {
		return "", jsonvalue.NewError(jsonvalue.ErrDataCoding, "could not encode data", nil)
	}
	return string(b), nil
}

// IsValid reports whether text is JSON that jsonvalue.Parse would accept:
// syntactically valid with an object or array root. Bare scalars such as
// "null" or "42" are rejected.
func IsValid(text string) bool {
	return jsonvalue.Valid([]byte(text))
}

// ToValue encodes object and converts the tree into a jsonvalue.Value. Dates
// come back as epoch-second strings, not Date values.
func ToValue(object any) (jsonvalue.Value, error) {
	b, err := EncodeBytes(object)
	if err != nil {
		return jsonvalue.Value{}, err
	}
	var v jsonvalue.Value
	if err := v.UnmarshalJSON(b); err != nil {
		return jsonvalue.Value{}, err
	}
	return v, nil
}
