package pointers

import "strings"

func String(v string) *string { return &v }

// NonBlank returns nil for strings that are empty after trimming.
func NonBlank(v string) *string {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	return &v
}

// StringValue dereferences p, returning "" for nil.
func StringValue(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
