package steps

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/coursecatalog-backend/internal/clients/generator"
	"github.com/yungbote/coursecatalog-backend/internal/data/repos/testutil"
	types "github.com/yungbote/coursecatalog-backend/internal/domain"
	apperr "github.com/yungbote/coursecatalog-backend/internal/pkg/errors"
)

type fakeGenerator struct {
	mu       sync.Mutex
	out      []any
	err      error
	requests []generator.Request
}

func (f *fakeGenerator) Generate(_ context.Context, req generator.Request) ([]any, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	return f.out, f.err
}

func (e *testEnv) choiceDeps(gen generator.Generator) GenerateChoicesDeps {
	return GenerateChoicesDeps{DB: e.db, Log: e.log, Requisites: e.requisites, Generator: gen}
}

func choicesOf(t *testing.T, row *types.Requisite) []any {
	t.Helper()
	require.NotNil(t, row)
	var out []any
	require.NoError(t, json.Unmarshal(row.JSONChoices, &out))
	return out
}

func tree(op string, operands ...any) map[string]any {
	return map[string]any{op: operands}
}

func TestGenerateChoices_AllEqualSelects(t *testing.T) {
	e := newTestEnv(t)
	row := testutil.SeedRequisite(t, e.ctx, e.db,
		types.NewRequisiteKey(types.RequisiteTypePrereq, "MATH 211 and MATH 213", []string{"MATH", "STAT"}, []string{"SC"}), "")
	gen := &fakeGenerator{out: []any{
		tree("and", "MATH 211", "MATH 213"),
		tree("and", "MATH 211", "MATH 213"),
		tree("and", "MATH 211", "MATH 213"),
	}}

	out, err := GenerateChoices(e.ctx, e.choiceDeps(gen), GenerateChoicesInput{RequisiteID: row.ID})
	require.NoError(t, err)
	assert.Equal(t, GenerateChoicesOutput{RequisiteID: row.ID, Candidates: 3, AllEqual: true, Selected: true}, out)

	require.Len(t, gen.requests, 1)
	assert.Equal(t, generator.Request{
		Text:          "MATH 211 and MATH 213",
		RequisiteType: "PREREQ",
		Department:    "MATH,STAT",
		Faculty:       "SC",
		N:             DefaultChoiceCount,
	}, gen.requests[0])

	got, err := e.requisites.GetByID(e.dbc(), row.ID)
	require.NoError(t, err)
	assert.JSONEq(t, `{"and":["MATH 211","MATH 213"]}`, string(got.JSON))
	assert.Len(t, choicesOf(t, got), 3)
}

func TestGenerateChoices_DisagreementLeavesJSONForReview(t *testing.T) {
	e := newTestEnv(t)
	row := testutil.SeedRequisite(t, e.ctx, e.db,
		types.NewRequisiteKey(types.RequisiteTypeCoreq, "MATH 211 or MATH 213", nil, nil), "")
	gen := &fakeGenerator{out: []any{
		tree("or", "MATH 211", "MATH 213"),
		tree("or", "MATH 213", "MATH 211"),
	}}

	out, err := GenerateChoices(e.ctx, e.choiceDeps(gen), GenerateChoicesInput{RequisiteID: row.ID, N: 2})
	require.NoError(t, err)
	assert.False(t, out.AllEqual)
	assert.False(t, out.Selected)
	assert.Equal(t, 2, gen.requests[0].N)

	got, err := e.requisites.GetByID(e.dbc(), row.ID)
	require.NoError(t, err)
	assert.Nil(t, got.JSON)
	assert.Len(t, choicesOf(t, got), 2)
}

func TestGenerateChoices_NoCandidatesStaysUnresolved(t *testing.T) {
	e := newTestEnv(t)
	row := testutil.SeedRequisite(t, e.ctx, e.db,
		types.NewRequisiteKey(types.RequisiteTypePrereq, "consent of department", nil, nil), "")

	out, err := GenerateChoices(e.ctx, e.choiceDeps(&fakeGenerator{}), GenerateChoicesInput{RequisiteID: row.ID})
	require.NoError(t, err)
	assert.False(t, out.Selected)

	got, err := e.requisites.GetByID(e.dbc(), row.ID)
	require.NoError(t, err)
	assert.Nil(t, got.JSON)
	assert.JSONEq(t, `[]`, string(got.JSONChoices))
}

func TestGenerateChoices_MissingRow(t *testing.T) {
	e := newTestEnv(t)
	gen := &fakeGenerator{}
	_, err := GenerateChoices(e.ctx, e.choiceDeps(gen), GenerateChoicesInput{RequisiteID: uuid.New()})
	require.Error(t, err)
	assert.True(t, apperr.IsCode(err, apperr.CodeNotFound))
	assert.Empty(t, gen.requests)
}

func TestGenerateChoices_GeneratorFailureWritesNothing(t *testing.T) {
	e := newTestEnv(t)
	row := testutil.SeedRequisite(t, e.ctx, e.db,
		types.NewRequisiteKey(types.RequisiteTypePrereq, "MATH 211", nil, nil), "")
	gen := &fakeGenerator{err: errors.New("upstream 503")}

	_, err := GenerateChoices(e.ctx, e.choiceDeps(gen), GenerateChoicesInput{RequisiteID: row.ID})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "upstream 503")

	got, err := e.requisites.GetByID(e.dbc(), row.ID)
	require.NoError(t, err)
	assert.Nil(t, got.JSON)
	assert.Empty(t, got.JSONChoices)
}
