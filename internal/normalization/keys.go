package normalization

import (
	"strings"
	"unicode"
)

// CamelToSnake inserts "_" before every upper-case rune that is not the first
// rune of s, then lower-cases the result. Acronyms are not grouped:
// "courseGroupId" -> "course_group_id", "GPAFlag" -> "g_p_a_flag".
func CamelToSnake(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 4)
	for i, r := range s {
		if i > 0 && unicode.IsUpper(r) {
			b.WriteByte('_')
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}

// SnakeKeys returns a structurally identical copy of v with every map key in snake_case.
// Non-container leaves pass through unchanged.
func SnakeKeys(v any) any {
	return ToAny(TransformKeys(FromAny(v), CamelToSnake))
}

// SnakeKeysMap is SnakeKeys for the common vendor-record case.
func SnakeKeysMap(m map[string]any) map[string]any {
	out, _ := SnakeKeys(m).(map[string]any)
	if out == nil {
		return map[string]any{}
	}
	return out
}
