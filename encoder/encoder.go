// Package encoder turns arbitrary Go values into JSON without a declared
// schema. Structs are walked with reflection; types that want control over
// their shape implement Fielder, Pluralizer or Primitive.
//
//	type Item struct{ Name string }
//	type Order struct {
//		ID    int
//		Items []Item
//		Note  *string // omitted when nil
//	}
//
//	text, err := encoder.EncodeText(Order{ID: 1, Items: items})
//	// {"id":1,"items":[{"name":"a"},{"name":"b"}]}
//
// A bare slice is wrapped under a plural key derived from its element type:
//
//	encoder.Encode([]Item{...}) // map[string]any{"items": []any{...}}
package encoder

import (
	"encoding"
	stdjson "encoding/json"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/LeoNavel/Squirrel/jsonvalue"
)

// maxDepth bounds recursion so cyclic pointer graphs fail instead of
// overflowing the stack.
const maxDepth = 1000

// Primitive is implemented by types that already serialize themselves as
// JSON. Such values, and encoding.TextMarshaler implementations, are passed
// to the serializer unchanged.
type Primitive interface {
	MarshalJSON() ([]byte, error)
}

// Fielder lets a type supply its own members instead of being walked by
// reflection. Nil members are omitted.
type Fielder interface {
	JSONFields() map[string]any
}

// Pluralizer lets an element type name the key a bare slice of it is
// wrapped under.
type Pluralizer interface {
	PluralName() string
}

var (
	timeType       = reflect.TypeOf(time.Time{})
	valueType      = reflect.TypeOf(jsonvalue.Value{})
	numberType     = reflect.TypeOf(json.Number(""))
	stdNumberType  = reflect.TypeOf(stdjson.Number(""))
	primitiveType  = reflect.TypeOf((*Primitive)(nil)).Elem()
	textType       = reflect.TypeOf((*encoding.TextMarshaler)(nil)).Elem()
	fielderType    = reflect.TypeOf((*Fielder)(nil)).Elem()
	pluralizerType = reflect.TypeOf((*Pluralizer)(nil)).Elem()
)

var errTooDeep = jsonvalue.NewError(jsonvalue.ErrEncode, "nesting too deep", nil)

// encode converts v at the top level or as a mapping member. ok=false means
// v produced nothing to encode.
func encode(v reflect.Value, depth int) (any, bool, error) {
	if depth > maxDepth {
		return nil, false, errTooDeep
	}
	v, ok := indirect(v)
	if !ok {
		return nil, false, nil
	}
	if out, ok := scalar(v); ok {
		return out, true, nil
	}
	switch v.Kind() {
	case reflect.Slice, reflect.Array:
		items, err := encodeElements(v, depth)
		if err != nil {
			return nil, false, err
		}
		return map[string]any{pluralName(v.Type().Elem()): items}, true, nil
	case reflect.Map:
		if v.Type().Key().Kind() != reflect.String {
			return nil, false, nil
		}
		res := make(map[string]any, v.Len())
		iter := v.MapRange()
		for iter.Next() {
			out, ok, err := encode(iter.Value(), depth+1)
			if err != nil {
				return nil, false, err
			}
			if ok {
				res[iter.Key().String()] = out
			}
		}
		if len(res) == 0 {
			return nil, false, nil
		}
		return res, true, nil
	case reflect.Struct:
		return encodeStruct(v, depth)
	default:
		return nil, false, nil
	}
}

// encodeValue converts a struct field, a sequence element or a nested map
// member. Unlike encode, slices stay plain arrays and empty maps stay {}.
func encodeValue(v reflect.Value, depth int) (any, bool, error) {
	if depth > maxDepth {
		return nil, false, errTooDeep
	}
	v, ok := indirect(v)
	if !ok {
		return nil, false, nil
	}
	if out, ok := scalar(v); ok {
		return out, true, nil
	}
	switch v.Kind() {
	case reflect.Slice, reflect.Array:
		items, err := encodeElements(v, depth)
		if err != nil {
			return nil, false, err
		}
		return items, true, nil
	case reflect.Map:
		if v.Type().Key().Kind() != reflect.String {
			return nil, false, nil
		}
		res := make(map[string]any, v.Len())
		iter := v.MapRange()
		for iter.Next() {
			out, ok, err := encodeValue(iter.Value(), depth+1)
			if err != nil {
				return nil, false, err
			}
			if ok {
				res[iter.Key().String()] = out
			}
		}
		return res, true, nil
	case reflect.Struct:
		return encodeStruct(v, depth)
	default:
		return nil, false, nil
	}
}

// indirect unwraps interfaces and pointers. ok=false means the value is
// absent: invalid, a nil pointer or interface, or a nil map or slice.
func indirect(v reflect.Value) (reflect.Value, bool) {
	for v.IsValid() {
		switch v.Kind() {
		case reflect.Interface, reflect.Pointer:
			if v.IsNil() {
				return v, false
			}
			if v.Kind() == reflect.Pointer && v.Type().Implements(primitiveType) && !v.Elem().Type().Implements(primitiveType) {
				// MarshalJSON has a pointer receiver; keep the pointer.
				return v, true
			}
			v = v.Elem()
		case reflect.Map, reflect.Slice:
			return v, !v.IsNil()
		default:
			return v, true
		}
	}
	return v, false
}

// scalar handles primitives, dates, values that are already JSON and
// Primitive implementations. Self-serializing types are checked before the
// kind switch so a json.RawMessage or json.Number keeps its JSON form.
// Named types are otherwise converted to their base type.
func scalar(v reflect.Value) (any, bool) {
	if v.CanInterface() {
		switch t := v.Type(); {
		case t == timeType:
			return epochSeconds(v.Interface().(time.Time)), true
		case t == valueType:
			return v.Interface().(jsonvalue.Value).Interface(), true
		case t == numberType, t == stdNumberType:
			return v.Interface(), true
		case t.Implements(primitiveType), t.Implements(textType):
			return v.Interface(), true
		}
	}
	switch v.Kind() {
	case reflect.String:
		return v.String(), true
	case reflect.Bool:
		return v.Bool(), true
	case reflect.Int:
		return int(v.Int()), true
	case reflect.Int8:
		return int8(v.Int()), true
	case reflect.Int16:
		return int16(v.Int()), true
	case reflect.Int32:
		return int32(v.Int()), true
	case reflect.Int64:
		return v.Int(), true
	case reflect.Uint, reflect.Uintptr:
		return uint(v.Uint()), true
	case reflect.Uint8:
		return uint8(v.Uint()), true
	case reflect.Uint16:
		return uint16(v.Uint()), true
	case reflect.Uint32:
		return uint32(v.Uint()), true
	case reflect.Uint64:
		return v.Uint(), true
	case reflect.Float32:
		return float32(v.Float()), true
	case reflect.Float64:
		return v.Float(), true
	case reflect.Slice:
		if v.Type().Elem().Kind() == reflect.Uint8 {
			return v.Bytes(), true
		}
	}
	return nil, false
}

// epochSeconds renders t as seconds since the Unix epoch, e.g.
// "1504435200.0" or "1504435200.25". Whole seconds keep one decimal.
func epochSeconds(t time.Time) string {
	secs := float64(t.Unix()) + float64(t.Nanosecond())/1e9
	s := strconv.FormatFloat(secs, 'f', -1, 64)
	if !strings.ContainsRune(s, '.') {
		s += ".0"
	}
	return s
}

// encodeElements encodes each element with encodeValue. Elements without a
// result become nil so positions are kept.
func encodeElements(v reflect.Value, depth int) ([]any, error) {
	items := make([]any, v.Len())
	for i := range items {
		out, ok, err := encodeValue(v.Index(i), depth+1)
		if err != nil {
			return nil, err
		}
		if ok {
			items[i] = out
		}
	}
	return items, nil
}

func encodeStruct(v reflect.Value, depth int) (any, bool, error) {
	res := make(map[string]any)
	if fielder, ok := asFielder(v); ok {
		for k, m := range fielder.JSONFields() {
			out, ok, err := encodeValue(reflect.ValueOf(m), depth+1)
			if err != nil {
				return nil, false, err
			}
			if ok {
				res[k] = out
			}
		}
	} else if err := collectFields(v, res, depth); err != nil {
		return nil, false, err
	}
	if len(res) == 0 {
		return nil, false, nil
	}
	return res, true, nil
}

func asFielder(v reflect.Value) (Fielder, bool) {
	if !v.CanInterface() {
		return nil, false
	}
	if v.Type().Implements(fielderType) {
		return v.Interface().(Fielder), true
	}
	if v.CanAddr() && v.Addr().Type().Implements(fielderType) {
		return v.Addr().Interface().(Fielder), true
	}
	return nil, false
}

func collectFields(v reflect.Value, res map[string]any, depth int) error {
	fields := typeFields(v.Type())
	for _, f := range fields.embedded {
		ev, ok := fieldByIndex(v, f.index)
		if !ok {
			continue
		}
		if ev, ok = indirect(ev); !ok || ev.Kind() != reflect.Struct {
			continue
		}
		if err := collectFields(ev, res, depth+1); err != nil {
			return err
		}
	}
	for _, f := range fields.named {
		fv, ok := fieldByIndex(v, f.index)
		if !ok {
			continue
		}
		if f.omitEmpty && fv.IsZero() {
			delete(res, f.key)
			continue
		}
		out, ok, err := encodeValue(fv, depth+1)
		if err != nil {
			return err
		}
		if ok {
			res[f.key] = out
		} else {
			delete(res, f.key)
		}
	}
	return nil
}

func fieldByIndex(v reflect.Value, index int) (reflect.Value, bool) {
	fv := v.Field(index)
	return fv, fv.IsValid()
}
