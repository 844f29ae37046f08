package jsonvalue

import (
	"math"
	"strconv"

	"github.com/goccy/go-json"
)

// FromAny converts an untyped Go value into a Value. The accepted shapes are
// tried in a fixed order: Value, map[string]Value, map[string]any, []Value,
// []any, string, integers, JSON number literals, floats, bool.
//
// A nil input yields Null. Any other shape fails with ok=false, which is not
// the same thing as Null.
func FromAny(x any) (v Value, ok bool) {
	if x == nil {
		return Value{}, true
	}
	switch t := x.(type) {
	case Value:
		return t, true
	case map[string]Value:
		return NewObject(t), true
	case map[string]any:
		return FromMap(t)
	case []Value:
		return NewArray(t), true
	case []any:
		return FromSlice(t)
	case string:
		return NewString(t), true
	case int:
		return NewInt(int64(t)), true
	case int8:
		return NewInt(int64(t)), true
	case int16:
		return NewInt(int64(t)), true
	case int32:
		return NewInt(int64(t)), true
	case int64:
		return NewInt(t), true
	case uint:
		return fromUint(uint64(t))
	case uint8:
		return NewInt(int64(t)), true
	case uint16:
		return NewInt(int64(t)), true
	case uint32:
		return NewInt(int64(t)), true
	case uint64:
		return fromUint(t)
	case json.Number:
		return fromNumber(t)
	case float32:
		return NewDouble(float64(t)), true
	case float64:
		return NewDouble(t), true
	case bool:
		return NewBool(t), true
	default:
		return Value{}, false
	}
}

// FromMap converts every member through FromAny. It fails if any member fails.
func FromMap(m map[string]any) (Value, bool) {
	out := make(map[string]Value, len(m))
	for k, x := range m {
		v, ok := FromAny(x)
		if !ok {
			return Value{}, false
		}
		out[k] = v
	}
	return newObjectOwned(out), true
}

// FromSlice converts every element through FromAny. It fails if any element fails.
func FromSlice(a []any) (Value, bool) {
	out := make([]Value, 0, len(a))
	for _, x := range a {
		v, ok := FromAny(x)
		if !ok {
			return Value{}, false
		}
		out = append(out, v)
	}
	return newArrayOwned(out), true
}

func fromUint(u uint64) (Value, bool) {
	if u > math.MaxInt64 {
		return Value{}, false
	}
	return NewInt(int64(u)), true
}

// fromNumber keeps integral literals that fit int64 as Int; everything else,
// including "1.0" and "1e3", becomes Double.
func fromNumber(n json.Number) (Value, bool) {
	if i, err := strconv.ParseInt(string(n), 10, 64); err == nil {
		return NewInt(i), true
	}
	f, err := strconv.ParseFloat(string(n), 64)
	if err != nil {
		return Value{}, false
	}
	return NewDouble(f), true
}
