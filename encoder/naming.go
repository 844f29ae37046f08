package encoder

import (
	"reflect"
	"strings"
	"unicode"
	"unicode/utf8"
)

// pluralName derives the key a bare slice is wrapped under: the element's
// PluralName when it has one, otherwise its type name with generic arguments
// stripped, first letter lowered, plus "s". Item -> items, Box[int] -> boxs.
func pluralName(elem reflect.Type) string {
	for t := elem; ; t = t.Elem() {
		if reflect.PointerTo(t).Implements(pluralizerType) {
			if name := callPlural(reflect.New(t)); name != "" {
				return name
			}
		}
		if t.Kind() != reflect.Pointer {
			elem = t
			break
		}
	}
	name := elem.Name()
	if i := strings.IndexByte(name, '['); i >= 0 {
		name = name[:i]
	}
	if name == "" {
		return "values"
	}
	return lowerFirst(name) + "s"
}

// callPlural asks a pointer to a zero element for its plural name. A method
// that panics on the zero value counts as no name.
func callPlural(v reflect.Value) (name string) {
	defer func() {
		if recover() != nil {
			name = ""
		}
	}()
	return v.Interface().(Pluralizer).PluralName()
}

func lowerFirst(s string) string {
	r, n := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError || unicode.IsLower(r) {
		return s
	}
	return string(unicode.ToLower(r)) + s[n:]
}

type field struct {
	index     int
	key       string
	omitEmpty bool
}

type structFields struct {
	embedded []field
	named    []field
}

// typeFields lists the encodable fields of struct type t. Embedded structs
// without a tag name are listed separately so their members can be
// flattened ahead of t's own fields.
func typeFields(t reflect.Type) structFields {
	var out structFields
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		tag := sf.Tag.Get("json")
		if tag == "-" {
			continue
		}
		name, opts, _ := strings.Cut(tag, ",")
		if sf.Anonymous && name == "" {
			ft := sf.Type
			if ft.Kind() == reflect.Pointer {
				ft = ft.Elem()
			}
			if ft.Kind() == reflect.Struct && ft != timeType {
				out.embedded = append(out.embedded, field{index: i})
				continue
			}
		}
		if !sf.IsExported() {
			continue
		}
		if name == "" {
			name = lowerFirst(sf.Name)
		}
		out.named = append(out.named, field{
			index:     i,
			key:       name,
			omitEmpty: hasOption(opts, "omitempty"),
		})
	}
	return out
}

func hasOption(opts, want string) bool {
	for opts != "" {
		var o string
		o, opts, _ = strings.Cut(opts, ",")
		if o == want {
			return true
		}
	}
	return false
}
