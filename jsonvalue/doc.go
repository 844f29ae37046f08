// Package jsonvalue implements a self-describing JSON value: a closed tagged
// union over string, int, double, bool, array, object, date and nil.
//
// Values are immutable. Constructors copy the collections they are given and
// accessors hand out copies, so a Value can be shared freely between
// goroutines and passed around by value.
//
// Two text forms exist:
//
//   - plain JSON (MarshalJSON, Parse), which is what HTTP clients see;
//   - the tagged wire format (Encode, Decode), which keeps the variant:
//
//	{"int": 1}
//	{"dictionary": {"name": {"string": "Ann"}}}
//	{"nil": "nil"}
//
// The tagged shape can also be written as CBOR or msgpack through a Format.
package jsonvalue
