package jsonvalue

import (
	"math"
	"time"

	"google.golang.org/protobuf/types/known/structpb"
)

// maxExactFloat is the largest magnitude below which every integer is
// exactly representable as a float64.
const maxExactFloat = 1 << 53

// ToProto converts v into a protobuf Value. The mapping is lossy: ints
// become numbers and dates become RFC 3339 strings.
func (v Value) ToProto() *structpb.Value {
	switch v.kind {
	case String:
		return structpb.NewStringValue(v.s)
	case Int:
		return structpb.NewNumberValue(float64(v.i))
	case Double:
		return structpb.NewNumberValue(v.f)
	case Bool:
		return structpb.NewBoolValue(v.b)
	case Date:
		return structpb.NewStringValue(v.t.Format(time.RFC3339Nano))
	case Array:
		list := &structpb.ListValue{Values: make([]*structpb.Value, len(v.arr))}
		for i, e := range v.arr {
			list.Values[i] = e.ToProto()
		}
		return structpb.NewListValue(list)
	case Object:
		st := &structpb.Struct{Fields: make(map[string]*structpb.Value, len(v.obj))}
		for k, e := range v.obj {
			st.Fields[k] = e.ToProto()
		}
		return structpb.NewStructValue(st)
	default:
		return structpb.NewNullValue()
	}
}

// FromProto converts a protobuf Value. Integral numbers within ±2^53 come
// back as Int, other numbers as Double. A nil message yields Null.
func FromProto(pv *structpb.Value) Value {
	switch k := pv.GetKind().(type) {
	case *structpb.Value_StringValue:
		return NewString(k.StringValue)
	case *structpb.Value_NumberValue:
		f := k.NumberValue
		if f == math.Trunc(f) && math.Abs(f) <= maxExactFloat {
			return NewInt(int64(f))
		}
		return NewDouble(f)
	case *structpb.Value_BoolValue:
		return NewBool(k.BoolValue)
	case *structpb.Value_ListValue:
		vals := k.ListValue.GetValues()
		out := make([]Value, len(vals))
		for i, e := range vals {
			out[i] = FromProto(e)
		}
		return newArrayOwned(out)
	case *structpb.Value_StructValue:
		fields := k.StructValue.GetFields()
		out := make(map[string]Value, len(fields))
		for name, e := range fields {
			out[name] = FromProto(e)
		}
		return newObjectOwned(out)
	default:
		return Value{}
	}
}
