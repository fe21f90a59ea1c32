package generator

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/yungbote/coursecatalog-backend/internal/normalization"
)

var operatorKeys = map[string]bool{
	"and":   true,
	"or":    true,
	"not":   true,
	"units": true,
	"from":  true,
}

// Clean turns one raw model answer into a json-logic tree: code fences are
// stripped, the JSON decoded, operator keys lowercased and other keys snake_cased.
func Clean(raw string) (any, error) {
	text := stripFences(raw)
	if text == "" {
		return nil, fmt.Errorf("empty candidate")
	}
	var v any
	if err := json.Unmarshal([]byte(text), &v); err != nil {
		return nil, fmt.Errorf("candidate is not JSON: %w", err)
	}
	out := normalization.TransformKeys(normalization.FromAny(v), func(k string) string {
		if lk := strings.ToLower(strings.TrimSpace(k)); operatorKeys[lk] {
			return lk
		}
		return normalization.CamelToSnake(k)
	})
	return normalization.ToAny(out), nil
}

func stripFences(raw string) string {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	// drop the info string (```json)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	} else {
		s = strings.TrimPrefix(strings.TrimSpace(s), "json")
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
