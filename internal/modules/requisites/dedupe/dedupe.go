package dedupe

import (
	"github.com/google/go-cmp/cmp"
)

// Decision is the outcome of comparing generated candidates.
type Decision struct {
	AllEqual bool
	// Selected is the first candidate when AllEqual, otherwise nil.
	Selected any
}

// Resolve reports whether every candidate is deeply equal to the first.
// Comparison is order-sensitive: {and:[A,B]} and {and:[B,A]} differ.
// No candidates means nothing to select.
func Resolve(candidates []any) Decision {
	if len(candidates) == 0 {
		return Decision{}
	}
	first := candidates[0]
	for _, c := range candidates[1:] {
		if !cmp.Equal(first, c) {
			return Decision{}
		}
	}
	return Decision{AllEqual: true, Selected: first}
}
