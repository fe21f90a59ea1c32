package normalization

import (
	"strings"
)

// ParseInputString folds operator-supplied names (collections, targets) for lookup.
func ParseInputString(input string) string {
	return strings.ToLower(strings.TrimSpace(input))
}

// CodeList trims, upper-cases and drops blank entries while keeping order.
// Department and faculty codes compare as ordered lists downstream, so no sorting here.
func CodeList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, v := range in {
		v = strings.ToUpper(strings.TrimSpace(v))
		if v == "" {
			continue
		}
		out = append(out, v)
	}
	return out
}
