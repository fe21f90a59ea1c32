package normalization

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCamelToSnake(t *testing.T) {
	cases := map[string]string{
		"courseGroupId":       "course_group_id",
		"id":                  "id",
		"Name":                "name",
		"already_snake":       "already_snake",
		"GPAFlag":             "g_p_a_flag",
		"requisiteSetGroupId": "requisite_set_group_id",
		"":                    "",
	}
	for in, want := range cases {
		assert.Equal(t, want, CamelToSnake(in), "input %q", in)
	}
}

func decode(t *testing.T, raw string) any {
	t.Helper()
	var v any
	require.NoError(t, json.Unmarshal([]byte(raw), &v))
	return v
}

func TestSnakeKeysNested(t *testing.T) {
	in := decode(t, `{
		"courseGroupId": "123",
		"departments": ["MATH", "STAT"],
		"requisites": {"requisitesSimple": [{"ruleType": "allOf", "minCredits": 3, "valueNull": null}]},
		"isActive": true
	}`)
	want := decode(t, `{
		"course_group_id": "123",
		"departments": ["MATH", "STAT"],
		"requisites": {"requisites_simple": [{"rule_type": "allOf", "min_credits": 3, "value_null": null}]},
		"is_active": true
	}`)
	if diff := cmp.Diff(want, SnakeKeys(in)); diff != "" {
		t.Fatalf("SnakeKeys mismatch (-want +got):\n%s", diff)
	}
}

func TestSnakeKeysIsIdempotent(t *testing.T) {
	inputs := []string{
		`{"courseGroupId": {"innerKey": [{"deepKeyName": 1}]}}`,
		`[{"aB": {"cD": "eF"}}, "plainString", 4.5]`,
		`"scalar"`,
		`null`,
	}
	for _, raw := range inputs {
		once := SnakeKeys(decode(t, raw))
		twice := SnakeKeys(once)
		if diff := cmp.Diff(once, twice); diff != "" {
			t.Fatalf("not idempotent for %s (-once +twice):\n%s", raw, diff)
		}
	}
}

func TestSnakeKeysLeavesValuesAlone(t *testing.T) {
	out := SnakeKeysMap(map[string]any{"longName": "Calculus I", "codes": []string{"mathMajor"}})
	assert.Equal(t, "Calculus I", out["long_name"])
	assert.Equal(t, []any{"mathMajor"}, out["codes"])
	assert.Equal(t, map[string]any{}, SnakeKeysMap(nil))
}

func TestTransformKeysCollisionIsDeterministic(t *testing.T) {
	for i := 0; i < 20; i++ {
		out := SnakeKeysMap(map[string]any{"fooBar": 1.0, "foo_bar": 2.0})
		// "fooBar" sorts before "foo_bar", so "foo_bar" is written last.
		assert.Equal(t, 2.0, out["foo_bar"])
	}
}

func TestCodeList(t *testing.T) {
	assert.Equal(t, []string{"MATH", "STAT"}, CodeList([]string{" math", "", "STAT "}))
	assert.Equal(t, []string{}, CodeList(nil))
}
