// Package jsonlogic validates canonical requisite trees. A tree is a plain
// string leaf or one of {and: [...]}, {or: [...]}, {not: node},
// {units: n, from: [...], not?: node}. Findings are returned as data.
package jsonlogic

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/kaptinlin/jsonschema"

	"github.com/yungbote/coursecatalog-backend/internal/domain/catalog"
)

//go:embed schema.json
var grammar []byte

const (
	OpAnd   = "and"
	OpOr    = "or"
	OpNot   = "not"
	OpUnits = "units"
	OpFrom  = "from"
)

// MaxDepth bounds operator nesting. Deeper trees are rejected before the
// grammar pass runs.
const MaxDepth = 64

type Result struct {
	Valid    bool            `json:"valid"`
	Errors   []catalog.Issue `json:"errors"`
	Warnings []catalog.Issue `json:"warnings"`
}

func (r *Result) fail(path, msg string, value any) {
	r.Errors = append(r.Errors, catalog.Issue{Message: prefix(path, msg), Value: value})
}

func (r *Result) warn(path, msg string, value any) {
	r.Warnings = append(r.Warnings, catalog.Issue{Message: prefix(path, msg), Value: value})
}

// Validator checks trees against the compiled grammar and walks them for
// located diagnostics. Safe for concurrent use.
type Validator struct {
	mu     sync.Mutex
	schema *jsonschema.Schema
}

// NewValidator compiles the grammar. Prefer a shared Lazy over calling this per request.
func NewValidator() (*Validator, error) {
	schema, err := jsonschema.NewCompiler().Compile(grammar)
	if err != nil {
		return nil, fmt.Errorf("compile requisite grammar: %w", err)
	}
	return &Validator{schema: schema}, nil
}

// Validate accepts any JSON-marshalable tree, including datatypes.JSON and
// json.RawMessage. It never panics on malformed input.
func (v *Validator) Validate(tree any) Result {
	if raw, ok := tree.([]byte); ok {
		return v.ValidateJSON(raw)
	}
	b, err := json.Marshal(tree)
	if err != nil {
		res := newResult()
		res.fail("$", "tree is not JSON-encodable: "+err.Error(), nil)
		return res
	}
	return v.ValidateJSON(b)
}

func (v *Validator) ValidateJSON(raw []byte) Result {
	res := newResult()
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		res.fail("$", "missing json-logic tree", nil)
		return res
	}
	var node any
	if err := json.Unmarshal([]byte(trimmed), &node); err != nil {
		res.fail("$", "invalid JSON: "+err.Error(), trimmed)
		return res
	}

	walk(node, "$", 0, &res)
	if len(res.Errors) > 0 {
		// The walk already located the problem; the grammar pass adds nothing.
		return res
	}

	v.mu.Lock()
	eval := v.schema.Validate(node)
	v.mu.Unlock()

	if eval == nil || !eval.Valid {
		res.fail("$", "tree does not match the requisite grammar", node)
		return res
	}
	res.Valid = true
	return res
}

func newResult() Result {
	return Result{Errors: []catalog.Issue{}, Warnings: []catalog.Issue{}}
}

func walk(node any, path string, depth int, res *Result) {
	if depth > MaxDepth {
		res.fail(path, fmt.Sprintf("tree nests deeper than %d levels", MaxDepth), nil)
		return
	}
	switch n := node.(type) {
	case string:
		if strings.TrimSpace(n) == "" {
			res.warn(path, "empty requirement reference", n)
		}
	case map[string]any:
		walkOperator(n, path, depth, res)
	default:
		res.fail(path, fmt.Sprintf("unexpected %s, want string or operator object", kindOf(node)), node)
	}
}

func walkOperator(n map[string]any, path string, depth int, res *Result) {
	_, hasUnits := n[OpUnits]
	_, hasFrom := n[OpFrom]
	_, hasNot := n[OpNot]

	switch {
	case len(n) == 1 && has(n, OpAnd):
		walkList(n[OpAnd], OpAnd, path+"."+OpAnd, depth, res)
	case len(n) == 1 && has(n, OpOr):
		walkList(n[OpOr], OpOr, path+"."+OpOr, depth, res)
	case len(n) == 1 && hasNot:
		walk(n[OpNot], path+"."+OpNot, depth+1, res)
	case hasUnits && hasFrom && (len(n) == 2 || (len(n) == 3 && hasNot)):
		units, ok := n[OpUnits].(float64)
		if !ok {
			res.fail(path+"."+OpUnits, fmt.Sprintf("units must be a number, got %s", kindOf(n[OpUnits])), n[OpUnits])
		} else if units <= 0 {
			res.warn(path+"."+OpUnits, "units should be positive", units)
		}
		walkList(n[OpFrom], OpFrom, path+"."+OpFrom, depth, res)
		if hasNot {
			walk(n[OpNot], path+"."+OpNot, depth+1, res)
		}
	default:
		res.fail(path, fmt.Sprintf("unrecognized operator shape {%s}", strings.Join(sortedKeys(n), ", ")), n)
	}
}

func walkList(v any, op, path string, depth int, res *Result) {
	items, ok := v.([]any)
	if !ok {
		res.fail(path, fmt.Sprintf("%s expects an array, got %s", op, kindOf(v)), v)
		return
	}
	switch len(items) {
	case 0:
		res.warn(path, op+" has no operands", items)
	case 1:
		if op == OpAnd || op == OpOr {
			res.warn(path, op+" has a single operand", items)
		}
	}
	for i, item := range items {
		walk(item, fmt.Sprintf("%s[%d]", path, i), depth+1, res)
	}
}

func has(m map[string]any, k string) bool {
	_, ok := m[k]
	return ok
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func kindOf(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case bool:
		return "boolean"
	case float64:
		return "number"
	case string:
		return "string"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	default:
		return fmt.Sprintf("%T", v)
	}
}

func prefix(path, msg string) string {
	if path == "" || path == "$" {
		return msg
	}
	return path + ": " + msg
}

// Lazy builds a Validator on first use and returns the same instance for the
// lifetime of its owner.
type Lazy struct {
	once sync.Once
	v    *Validator
	err  error
}

func (l *Lazy) Get() (*Validator, error) {
	l.once.Do(func() {
		l.v, l.err = NewValidator()
	})
	return l.v, l.err
}
