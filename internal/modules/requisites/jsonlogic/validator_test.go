package jsonlogic

import (
	"encoding/json"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

func mustValidator(t *testing.T) *Validator {
	t.Helper()
	v, err := NewValidator()
	require.NoError(t, err)
	return v
}

func TestValidate_AcceptsWellFormedTrees(t *testing.T) {
	v := mustValidator(t)

	cases := map[string]string{
		"leaf":          `"MATH 211"`,
		"and/or":        `{"and": ["MATH 211", {"or": ["MATH 249", "MATH 265"]}]}`,
		"not":           `{"not": "MATH 205"}`,
		"units-from":    `{"units": 6, "from": ["PHYS 211", "PHYS 227", {"and": ["A", "B"]}]}`,
		"units-not":     `{"units": 3, "from": ["A", "B"], "not": "C"}`,
		"nested deeply": `{"or": [{"and": [{"not": {"or": ["A", "B"]}}, "C"]}, "D"]}`,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			res := v.ValidateJSON([]byte(raw))
			assert.True(t, res.Valid, "errors: %+v", res.Errors)
			assert.Empty(t, res.Errors)
		})
	}
}

func TestValidate_RejectsMalformedTrees(t *testing.T) {
	v := mustValidator(t)

	cases := map[string]struct {
		raw     string
		message string
	}{
		"unknown operator":   {`{"xor": ["A", "B"]}`, "unrecognized operator shape {xor}"},
		"extra key":          {`{"and": ["A"], "or": ["B"]}`, "unrecognized operator shape {and, or}"},
		"and not array":      {`{"and": "A"}`, "and expects an array, got string"},
		"units not number":   {`{"units": "3", "from": ["A"]}`, "units must be a number, got string"},
		"from missing":       {`{"units": 3}`, "unrecognized operator shape {units}"},
		"number leaf":        {`{"or": ["A", 42]}`, "$.or[1]: unexpected number"},
		"nested bad node":    {`{"and": ["A", {"or": ["B", {"nand": []}]}]}`, "$.and[1].or[1]: unrecognized operator shape {nand}"},
		"null":               {`null`, "missing json-logic tree"},
		"not json":           {`{and: [}`, "invalid JSON"},
		"bad not under unit": {`{"units": 3, "from": ["A"], "not": 7}`, "$.not: unexpected number"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			var res Result
			require.NotPanics(t, func() { res = v.ValidateJSON([]byte(tc.raw)) })
			assert.False(t, res.Valid)
			require.NotEmpty(t, res.Errors)
			found := false
			for _, e := range res.Errors {
				if strings.Contains(e.Message, tc.message) {
					found = true
				}
			}
			assert.True(t, found, "no error containing %q in %+v", tc.message, res.Errors)
		})
	}
}

func TestValidate_ErrorReferencesOffendingValue(t *testing.T) {
	v := mustValidator(t)
	res := v.Validate(map[string]any{"xor": []any{"A", "B"}})
	require.False(t, res.Valid)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, map[string]any{"xor": []any{"A", "B"}}, res.Errors[0].Value)
}

func TestValidate_Warnings(t *testing.T) {
	v := mustValidator(t)
	res := v.ValidateJSON([]byte(`{"and": [{"or": ["A"]}, {"units": 0, "from": []}, " "]}`))
	assert.True(t, res.Valid, "warnings do not invalidate: %+v", res.Errors)
	messages := make([]string, 0, len(res.Warnings))
	for _, w := range res.Warnings {
		messages = append(messages, w.Message)
	}
	assert.ElementsMatch(t, []string{
		"$.and[0].or: or has a single operand",
		"$.and[1].units: units should be positive",
		"$.and[1].from: from has no operands",
		"$.and[2]: empty requirement reference",
	}, messages)
}

func TestValidate_AcceptsStoredColumnTypes(t *testing.T) {
	v := mustValidator(t)
	tree := `{"or": ["A", "B"]}`
	assert.True(t, v.Validate(datatypes.JSON(tree)).Valid)
	assert.True(t, v.Validate(json.RawMessage(tree)).Valid)
	assert.True(t, v.Validate([]byte(tree)).Valid)
	assert.True(t, v.Validate("MATH 211").Valid)
}

func nested(open, leaf, close string, depth int) []byte {
	return []byte(strings.Repeat(open, depth) + leaf + strings.Repeat(close, depth))
}

func TestValidate_DeepNegationStaysLinear(t *testing.T) {
	v := mustValidator(t)

	cases := map[string]struct {
		raw   []byte
		valid bool
	}{
		"not chain":            {nested(`{"not":`, `"A"`, `}`, 30), true},
		"units-not chain":      {nested(`{"units": 1, "from": ["B"], "not":`, `"A"`, `}`, 30), true},
		"not chain too deep":   {nested(`{"not":`, `"A"`, `}`, 3000), false},
		"mixed chain too deep": {nested(`{"and": [{"not":`, `"A"`, `}]}`, MaxDepth), false},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			start := time.Now()
			res := v.ValidateJSON(tc.raw)
			assert.Less(t, time.Since(start), 2*time.Second)
			assert.Equal(t, tc.valid, res.Valid, "errors: %+v", res.Errors)
			if !tc.valid {
				require.NotEmpty(t, res.Errors)
				assert.Contains(t, res.Errors[0].Message, "tree nests deeper than")
			}
		})
	}
}

func TestLazy_BuildsOnce(t *testing.T) {
	var l Lazy
	var wg sync.WaitGroup
	got := make([]*Validator, 8)
	for i := range got {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := l.Get()
			if err == nil {
				got[i] = v
			}
		}()
	}
	wg.Wait()
	require.NotNil(t, got[0])
	for _, v := range got {
		assert.Same(t, got[0], v)
	}
}
