package jsonvalue

import (
	"bytes"

	"github.com/go-json-experiment/json/jsontext"
	"github.com/goccy/go-json"
)

// Parse parses JSON text whose root is an object or an array.
func Parse(text string) (Value, error) {
	return ParseBytes([]byte(text))
}

// ParseBytes is Parse over a byte slice.
//
// Malformed text fails with ErrParse. A root that is not an object or an
// array, or a leaf that cannot be represented, fails with ErrNotValidContent.
func ParseBytes(data []byte) (Value, error) {
	tree, err := decodeTree(data)
	if err != nil {
		return Value{}, NewError(ErrParse, "corrupted content", err)
	}
	switch t := tree.(type) {
	case map[string]any:
		v, ok := FromMap(t)
		if !ok {
			return Value{}, NewError(ErrNotValidContent, "not valid dictionary", nil)
		}
		return v, nil
	case []any:
		v, ok := FromSlice(t)
		if !ok {
			return Value{}, NewError(ErrNotValidContent, "not valid array", nil)
		}
		return v, nil
	default:
		return Value{}, NewError(ErrNotValidContent, "not valid content", nil)
	}
}

// Valid reports whether data is syntactically valid JSON with an object or
// array root. It applies the same rules as ParseBytes.
func Valid(data []byte) bool {
	if !jsontext.Value(data).IsValid() {
		return false
	}
	switch firstByte(data) {
	case '{', '[':
		return true
	default:
		return false
	}
}

// decodeTree checks strict RFC 8259 syntax (duplicate names and invalid
// UTF-8 are rejected) and decodes data into an untyped tree, keeping number
// literals as json.Number.
func decodeTree(data []byte) (any, error) {
	if !jsontext.Value(data).IsValid() {
		return nil, errInvalidSyntax
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var tree any
	if err := dec.Decode(&tree); err != nil {
		return nil, err
	}
	return tree, nil
}

func firstByte(data []byte) byte {
	for _, c := range data {
		switch c {
		case ' ', '\t', '\n', '\r':
			continue
		default:
			return c
		}
	}
	return 0
}
