package requisites

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
	"github.com/yungbote/coursecatalog-backend/internal/data/repos"
	"github.com/yungbote/coursecatalog-backend/internal/data/repos/testutil"
	types "github.com/yungbote/coursecatalog-backend/internal/domain"
	"github.com/yungbote/coursecatalog-backend/internal/pkg/dbctx"
	apperr "github.com/yungbote/coursecatalog-backend/internal/pkg/errors"
)

type scriptedGenerator struct {
	mu     sync.Mutex
	byText map[string][]any
	fail   map[string]bool
}

func (g *scriptedGenerator) Generate(_ context.Context, req generator.Request) ([]any, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.fail[req.Text] {
		return nil, errors.New("generator unavailable")
	}
	return g.byText[req.Text], nil
}

func newUsecases(t *testing.T, gen generator.Generator) (Usecases, context.Context) {
	t.Helper()
	db := testutil.DB(t)
	log := testutil.Logger(t)
	return New(UsecasesDeps{
		DB:            db,
		Log:           log,
		Requisites:    repos.NewRequisiteRepo(db, log),
		Courses:       repos.NewCourseRepo(db, log),
		CourseSets:    repos.NewCourseSetRepo(db, log),
		RequisiteSets: repos.NewRequisiteSetRepo(db, log),
		Programs:      repos.NewProgramRepo(db, log),
		Generator:     gen,
		Concurrency:   2,
	}), context.Background()
}

func TestValidatorIsBuiltOnce(t *testing.T) {
	u, _ := newUsecases(t, nil)
	a, err := u.Validator()
	require.NoError(t, err)
	b, err := u.WithLog(testutil.Logger(t)).Validator()
	require.NoError(t, err)
	assert.Same(t, a, b)
}

func TestCreateRequisite(t *testing.T) {
	u, ctx := newUsecases(t, nil)
	key := types.NewRequisiteKey(types.RequisiteTypePrereq, "MATH 211", []string{"MATH"}, nil)

	row, err := u.CreateRequisite(ctx, CreateRequisiteInput{
		Key:  key,
		JSON: json.RawMessage(`{"and":["MATH 211",{"or":["MATH 249","MATH 265"]}]}`),
	})
	require.NoError(t, err)
	assert.True(t, row.JSONValid)
	assert.Empty(t, row.JSONErrors)

	_, err = u.CreateRequisite(ctx, CreateRequisiteInput{Key: key})
	require.Error(t, err)
	assert.True(t, apperr.IsCode(err, apperr.CodeAlreadyExists))
	assert.True(t, errors.Is(err, apperr.ErrAlreadyExists))

	_, err = u.CreateRequisite(ctx, CreateRequisiteInput{Key: types.NewRequisiteKey("BOGUS", "x", nil, nil)})
	assert.True(t, apperr.IsCode(err, apperr.CodeValidation))
	_, err = u.CreateRequisite(ctx, CreateRequisiteInput{Key: types.NewRequisiteKey(types.RequisiteTypeCoreq, "  ", nil, nil)})
	assert.True(t, apperr.IsCode(err, apperr.CodeValidation))
}

func TestCreateRequisiteRejectsMalformedJSON(t *testing.T) {
	u, ctx := newUsecases(t, nil)
	key := types.NewRequisiteKey(types.RequisiteTypePrereq, "MATH 265", nil, nil)

	_, err := u.CreateRequisite(ctx, CreateRequisiteInput{Key: key, JSON: json.RawMessage(`{"and":[`)})
	require.Error(t, err)
	assert.True(t, apperr.IsCode(err, apperr.CodeValidation))

	_, err = u.CreateRequisite(ctx, CreateRequisiteInput{Key: key, RawJSON: json.RawMessage(`not json`)})
	require.Error(t, err)
	assert.True(t, apperr.IsCode(err, apperr.CodeValidation))

	rows, err := u.ListRequisites(ctx, ListRequisitesInput{})
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestGetRequisiteAnnotatesValidity(t *testing.T) {
	u, ctx := newUsecases(t, nil)
	row, err := u.CreateRequisite(ctx, CreateRequisiteInput{
		Key:  types.NewRequisiteKey(types.RequisiteTypePrereq, "A xor B", nil, nil),
		JSON: json.RawMessage(`{"xor":["A","B"]}`),
	})
	require.NoError(t, err)

	got, err := u.GetRequisite(ctx, row.ID)
	require.NoError(t, err)
	assert.False(t, got.JSONValid)
	require.NotEmpty(t, got.JSONErrors)
	assert.NotNil(t, got.JSONErrors[0].Value)

	_, err = u.GetRequisite(ctx, uuid.New())
	assert.True(t, apperr.IsCode(err, apperr.CodeNotFound))
}

func TestUpdateRequisiteJSON(t *testing.T) {
	u, ctx := newUsecases(t, nil)
	row, err := u.CreateRequisite(ctx, CreateRequisiteInput{Key: types.NewRequisiteKey(types.RequisiteTypeAntireq, "MATH 213", nil, nil)})
	require.NoError(t, err)
	assert.False(t, row.JSONValid)

	got, err := u.UpdateRequisiteJSON(ctx, row.ID, json.RawMessage(`"MATH 213"`))
	require.NoError(t, err)
	assert.True(t, got.JSONValid)
	assert.JSONEq(t, `"MATH 213"`, string(got.JSON))

	got, err = u.UpdateRequisiteJSON(ctx, row.ID, json.RawMessage(`null`))
	require.NoError(t, err)
	assert.Nil(t, got.JSON)
	assert.False(t, got.IsResolved())

	_, err = u.UpdateRequisiteJSON(ctx, row.ID, json.RawMessage(`{broken`))
	assert.True(t, apperr.IsCode(err, apperr.CodeValidation))

	_, err = u.UpdateRequisiteJSON(ctx, uuid.New(), json.RawMessage(`"X"`))
	assert.True(t, apperr.IsCode(err, apperr.CodeNotFound))
}

func TestDeleteRequisite(t *testing.T) {
	u, ctx := newUsecases(t, nil)
	row, err := u.CreateRequisite(ctx, CreateRequisiteInput{Key: types.NewRequisiteKey(types.RequisiteTypeCoreq, "PHYS 101", nil, nil)})
	require.NoError(t, err)

	require.NoError(t, u.DeleteRequisite(ctx, row.ID))
	err = u.DeleteRequisite(ctx, row.ID)
	assert.True(t, apperr.IsCode(err, apperr.CodeNotFound))
}

func TestListRequisitesFilters(t *testing.T) {
	u, ctx := newUsecases(t, nil)
	_, err := u.CreateRequisite(ctx, CreateRequisiteInput{Key: types.NewRequisiteKey(types.RequisiteTypePrereq, "A", nil, nil), JSON: json.RawMessage(`"A"`)})
	require.NoError(t, err)
	_, err = u.CreateRequisite(ctx, CreateRequisiteInput{Key: types.NewRequisiteKey(types.RequisiteTypePrereq, "B", nil, nil)})
	require.NoError(t, err)
	_, err = u.CreateRequisite(ctx, CreateRequisiteInput{Key: types.NewRequisiteKey(types.RequisiteTypeCourseSet, "Core", nil, nil)})
	require.NoError(t, err)

	all, err := u.ListRequisites(ctx, ListRequisitesInput{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	unresolved, err := u.ListRequisites(ctx, ListRequisitesInput{Type: types.RequisiteTypePrereq, Unresolved: true})
	require.NoError(t, err)
	require.Len(t, unresolved, 1)
	assert.Equal(t, "B", unresolved[0].Text)

	_, err = u.ListRequisites(ctx, ListRequisitesInput{Type: "NOPE"})
	assert.True(t, apperr.IsCode(err, apperr.CodeValidation))
}

func TestGenerateUnresolvedChoicesIsolatesFailures(t *testing.T) {
	gen := &scriptedGenerator{
		byText: map[string][]any{
			"A": {"A", "A", "A"},
			"B": {"B", map[string]any{"or": []any{"B", "C"}}},
		},
		fail: map[string]bool{"C": true},
	}
	u, ctx := newUsecases(t, gen)
	for _, text := range []string{"A", "B", "C"} {
		_, err := u.CreateRequisite(ctx, CreateRequisiteInput{Key: types.NewRequisiteKey(types.RequisiteTypePrereq, text, nil, nil)})
		require.NoError(t, err)
	}

	summary, err := u.GenerateUnresolvedChoices(ctx, GenerateUnresolvedInput{})
	require.NoError(t, err)
	assert.Equal(t, 3, summary.Total)
	assert.Equal(t, 2, summary.TotalSucceeded)
	assert.Equal(t, 1, summary.TotalFailed)

	unresolved, err := u.ListRequisites(ctx, ListRequisitesInput{Unresolved: true})
	require.NoError(t, err)
	texts := []string{}
	for _, r := range unresolved {
		texts = append(texts, r.Text)
	}
	assert.ElementsMatch(t, []string{"B", "C"}, texts)
}

func TestGenerateRequiresGenerator(t *testing.T) {
	u, ctx := newUsecases(t, nil)
	_, err := u.GenerateRequisiteChoices(ctx, uuid.New(), 0)
	require.Error(t, err)
}

func TestHarvestThenPropagate(t *testing.T) {
	u, ctx := newUsecases(t, nil)
	testutil.SeedCourse(t, ctx, u.deps.DB, "C1", testutil.CourseOpts{Prereq: "MATH 211", Departments: []string{"MATH"}})

	hv, err := u.Harvest(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, hv.CourseKeysInserted)

	rows, err := u.ListRequisites(ctx, ListRequisitesInput{Unresolved: true})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	_, err = u.UpdateRequisiteJSON(ctx, rows[0].ID, json.RawMessage(`{"and":["MATH 211"]}`))
	require.NoError(t, err)

	pc, err := u.PropagateCourses(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, pc.Copied)

	c, err := u.deps.Courses.GetByGroupID(dbctx.Context{Ctx: ctx}, "C1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"and":["MATH 211"]}`, string(c.PrereqJSON))

	ps, err := u.PropagateCourseSets(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, PropagateCourseSetsOutput{}, ps)
}
