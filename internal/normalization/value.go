package normalization

import "sort"

// Value is a decoded JSON-like document: exactly one of Scalar, Sequence or Mapping.
type Value interface {
	isValue()
}

// Scalar holds any non-container leaf (string, number, bool, nil).
type Scalar struct {
	V any
}

type Sequence []Value

type Mapping map[string]Value

func (Scalar) isValue()   {}
func (Sequence) isValue() {}
func (Mapping) isValue()  {}

// FromAny lifts a value produced by encoding/json (map[string]any, []any, leaves)
// into the tagged form. Typed string slices and maps are lifted as well.
func FromAny(v any) Value {
	switch t := v.(type) {
	case map[string]any:
		m := make(Mapping, len(t))
		for k, child := range t {
			m[k] = FromAny(child)
		}
		return m
	case []any:
		s := make(Sequence, 0, len(t))
		for _, child := range t {
			s = append(s, FromAny(child))
		}
		return s
	case []map[string]any:
		s := make(Sequence, 0, len(t))
		for _, child := range t {
			s = append(s, FromAny(child))
		}
		return s
	case []string:
		s := make(Sequence, 0, len(t))
		for _, child := range t {
			s = append(s, Scalar{V: child})
		}
		return s
	case Value:
		return t
	default:
		return Scalar{V: v}
	}
}

// ToAny lowers v back into plain Go values suitable for encoding/json.
func ToAny(v Value) any {
	switch t := v.(type) {
	case Mapping:
		m := make(map[string]any, len(t))
		for k, child := range t {
			m[k] = ToAny(child)
		}
		return m
	case Sequence:
		s := make([]any, 0, len(t))
		for _, child := range t {
			s = append(s, ToAny(child))
		}
		return s
	case Scalar:
		return t.V
	default:
		return nil
	}
}

// TransformKeys rewrites every mapping key with fn, recursing through sequences
// and nested mappings. When two keys collide after rewriting, the key that sorts
// last in the original mapping wins so the result is deterministic.
func TransformKeys(v Value, fn func(string) string) Value {
	switch t := v.(type) {
	case Mapping:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		out := make(Mapping, len(t))
		for _, k := range keys {
			out[fn(k)] = TransformKeys(t[k], fn)
		}
		return out
	case Sequence:
		out := make(Sequence, 0, len(t))
		for _, child := range t {
			out = append(out, TransformKeys(child, fn))
		}
		return out
	default:
		return v
	}
}
