package jsonvalue

import (
	"time"
)

// Kind identifies the active variant of a Value.
type Kind uint8

const (
	Null Kind = iota
	String
	Int
	Double
	Bool
	Array
	Object
	Date
)

// String returns the tag the kind is written under in the wire format.
func (k Kind) String() string {
	switch k {
	case Null:
		return tagNil
	case String:
		return tagString
	case Int:
		return tagInt
	case Double:
		return tagDouble
	case Bool:
		return tagBool
	case Array:
		return tagArray
	case Object:
		return tagDictionary
	case Date:
		return tagDate
	default:
		return "unknown"
	}
}

// Value is an immutable JSON value. The zero Value is Null.
type Value struct {
	kind Kind
	s    string
	i    int64
	f    float64
	b    bool
	t    time.Time
	arr  []Value
	obj  map[string]Value
}

// Nil returns the Null value.
func Nil() Value { return Value{} }

func NewString(s string) Value  { return Value{kind: String, s: s} }
func NewInt(i int64) Value      { return Value{kind: Int, i: i} }
func NewDouble(f float64) Value { return Value{kind: Double, f: f} }
func NewBool(b bool) Value      { return Value{kind: Bool, b: b} }
func NewDate(t time.Time) Value { return Value{kind: Date, t: t} }

func newArrayOwned(a []Value) Value { return Value{kind: Array, arr: a} }

func newObjectOwned(m map[string]Value) Value {
	return Value{kind: Object, obj: m}
}

// NewArray wraps a copy of a.
func NewArray(a []Value) Value {
	return newArrayOwned(copyArray(a))
}

// NewObject wraps a copy of m.
func NewObject(m map[string]Value) Value {
	return newObjectOwned(copyObject(m))
}

func copyArray(a []Value) []Value {
	out := make([]Value, len(a))
	copy(out, a)
	return out
}

func copyObject(m map[string]Value) map[string]Value {
	out := make(map[string]Value, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (v Value) Kind() Kind { return v.kind }

// IsNil reports whether v is Null.
func (v Value) IsNil() bool { return v.kind == Null }

// IsEmpty reports whether v is an empty array or object. Null is not empty.
func (v Value) IsEmpty() bool {
	switch v.kind {
	case Array:
		return len(v.arr) == 0
	case Object:
		return len(v.obj) == 0
	default:
		return false
	}
}

// Len returns the number of elements or members; 0 for scalars and Null.
func (v Value) Len() int {
	switch v.kind {
	case Array:
		return len(v.arr)
	case Object:
		return len(v.obj)
	default:
		return 0
	}
}

func (v Value) AsString() (string, bool) {
	if v.kind != String {
		return "", false
	}
	return v.s, true
}

// StringValue returns the string payload or "".
func (v Value) StringValue() string {
	s, _ := v.AsString()
	return s
}

func (v Value) AsInt() (int64, bool) {
	if v.kind != Int {
		return 0, false
	}
	return v.i, true
}

// IntValue returns the int payload or 0.
func (v Value) IntValue() int64 {
	i, _ := v.AsInt()
	return i
}

func (v Value) AsDouble() (float64, bool) {
	if v.kind != Double {
		return 0, false
	}
	return v.f, true
}

// DoubleValue returns the double payload or 0.0.
func (v Value) DoubleValue() float64 {
	f, _ := v.AsDouble()
	return f
}

func (v Value) AsBool() (bool, bool) {
	if v.kind != Bool {
		return false, false
	}
	return v.b, true
}

// BoolValue returns the bool payload or false.
func (v Value) BoolValue() bool {
	b, _ := v.AsBool()
	return b
}

// AsArray returns a copy of the elements when v is an array.
func (v Value) AsArray() ([]Value, bool) {
	if v.kind != Array {
		return nil, false
	}
	return copyArray(v.arr), true
}

// ArrayValue returns a copy of the elements, or an empty slice.
func (v Value) ArrayValue() []Value {
	if a, ok := v.AsArray(); ok {
		return a
	}
	return []Value{}
}

// AsObject returns a copy of the members when v is an object.
func (v Value) AsObject() (map[string]Value, bool) {
	if v.kind != Object {
		return nil, false
	}
	return copyObject(v.obj), true
}

// ObjectValue returns a copy of the members, or an empty map.
func (v Value) ObjectValue() map[string]Value {
	if m, ok := v.AsObject(); ok {
		return m
	}
	return map[string]Value{}
}

func (v Value) AsDate() (time.Time, bool) {
	if v.kind != Date {
		return time.Time{}, false
	}
	return v.t, true
}

// DateValue returns the date payload, or the current time.
func (v Value) DateValue() time.Time {
	if t, ok := v.AsDate(); ok {
		return t
	}
	return time.Now()
}

// Get returns the member stored under key. Missing keys and non-objects
// yield Null, same as a member that holds Null.
func (v Value) Get(key string) Value {
	if v.kind != Object {
		return Value{}
	}
	return v.obj[key]
}

// Index returns the i-th element, or Null when v is not an array or i is
// out of range.
func (v Value) Index(i int) Value {
	if v.kind != Array || i < 0 || i >= len(v.arr) {
		return Value{}
	}
	return v.arr[i]
}

// With returns an object holding v's members plus key=val. A non-object
// receiver is treated as an empty object.
func (v Value) With(key string, val Value) Value {
	m := make(map[string]Value, len(v.obj)+1)
	if v.kind == Object {
		for k, e := range v.obj {
			m[k] = e
		}
	}
	m[key] = val
	return newObjectOwned(m)
}

// Without returns an object holding v's members except key.
func (v Value) Without(key string) Value {
	m := make(map[string]Value, len(v.obj))
	if v.kind == Object {
		for k, e := range v.obj {
			if k != key {
				m[k] = e
			}
		}
	}
	return newObjectOwned(m)
}

// Append returns an array holding v's elements followed by vals. A
// non-array receiver is treated as an empty array.
func (v Value) Append(vals ...Value) Value {
	var n int
	if v.kind == Array {
		n = len(v.arr)
	}
	out := make([]Value, 0, n+len(vals))
	if v.kind == Array {
		out = append(out, v.arr...)
	}
	out = append(out, vals...)
	return newArrayOwned(out)
}

// Interface converts v into a native tree of map[string]any, []any, string,
// int64, float64, bool, time.Time and nil.
func (v Value) Interface() any {
	switch v.kind {
	case String:
		return v.s
	case Int:
		return v.i
	case Double:
		return v.f
	case Bool:
		return v.b
	case Date:
		return v.t
	case Array:
		out := make([]any, len(v.arr))
		for i, e := range v.arr {
			out[i] = e.Interface()
		}
		return out
	case Object:
		out := make(map[string]any, len(v.obj))
		for k, e := range v.obj {
			out[k] = e.Interface()
		}
		return out
	default:
		return nil
	}
}
