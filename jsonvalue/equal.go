package jsonvalue

// Equal reports whether a and b hold the same variant and equal payloads.
// Arrays compare element-wise in order, objects as key sets with equal
// members, dates by instant.
func Equal(a, b Value) bool {
	if a.kind == Null || b.kind == Null {
		return a.kind == b.kind
	}
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case String:
		return a.s == b.s
	case Int:
		return a.i == b.i
	case Double:
		return a.f == b.f
	case Bool:
		return a.b == b.b
	case Date:
		return a.t.Equal(b.t)
	case Array:
		if len(a.arr) != len(b.arr) {
			return false
		}
		for i := range a.arr {
			if !Equal(a.arr[i], b.arr[i]) {
				return false
			}
		}
		return true
	case Object:
		if len(a.obj) != len(b.obj) {
			return false
		}
		for k, av := range a.obj {
			bv, ok := b.obj[k]
			if !ok || !Equal(av, bv) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

func (v Value) Equal(o Value) bool { return Equal(v, o) }
