package steps

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"github.com/yungbote/coursecatalog-backend/internal/data/repos/testutil"
	types "github.com/yungbote/coursecatalog-backend/internal/domain"
)

func TestPropagateCourses_CopiesValidAndClearsInvalid(t *testing.T) {
	e := newTestEnv(t)
	math, sc := []string{"MATH"}, []string{"SC"}

	testutil.SeedRequisite(t, e.ctx, e.db,
		types.NewRequisiteKey(types.RequisiteTypePrereq, "MATH 211", math, sc),
		`{"and":["MATH 211","MATH 213"]}`)
	testutil.SeedRequisite(t, e.ctx, e.db,
		types.NewRequisiteKey(types.RequisiteTypeCoreq, "PHYS 101", math, sc),
		`{"nand":["PHYS 101"]}`)
	testutil.SeedRequisite(t, e.ctx, e.db,
		types.NewRequisiteKey(types.RequisiteTypeAntireq, "MATH 265", math, sc), "")

	c1 := testutil.SeedCourse(t, e.ctx, e.db, "C1", testutil.CourseOpts{
		Prereq: "MATH 211", Coreq: "PHYS 101", Antireq: "MATH 265", Departments: math, Faculties: sc,
	})
	require.NoError(t, e.courses.UpdateFields(e.dbc(), c1.ID, map[string]interface{}{
		"coreq_json":   datatypes.JSON(`"stale"`),
		"antireq_json": datatypes.JSON(`"stale"`),
	}))
	// Same text under a different department list is a different key.
	testutil.SeedCourse(t, e.ctx, e.db, "C2", testutil.CourseOpts{Prereq: "MATH 211", Departments: []string{"STAT"}, Faculties: sc})

	out, err := PropagateCourses(e.ctx, e.propagateDeps(t), PropagateInput{})
	require.NoError(t, err)
	assert.Equal(t, PropagateCoursesOutput{Courses: 2, Updates: 1, Copied: 1, Cleared: 2, Unmatched: 1}, out)

	got := e.course(t, "C1")
	assert.JSONEq(t, `{"and":["MATH 211","MATH 213"]}`, string(got.PrereqJSON))
	assert.Nil(t, got.CoreqJSON)
	assert.Nil(t, got.AntireqJSON)

	other := e.course(t, "C2")
	assert.Nil(t, other.PrereqJSON)
}

func TestPropagateCourses_IsIdempotent(t *testing.T) {
	e := newTestEnv(t)
	testutil.SeedRequisite(t, e.ctx, e.db,
		types.NewRequisiteKey(types.RequisiteTypePrereq, "MATH 211", nil, nil), `"MATH 211"`)
	testutil.SeedCourse(t, e.ctx, e.db, "C1", testutil.CourseOpts{Prereq: "MATH 211"})

	deps := e.propagateDeps(t)
	first, err := PropagateCourses(e.ctx, deps, PropagateInput{})
	require.NoError(t, err)
	second, err := PropagateCourses(e.ctx, deps, PropagateInput{})
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.JSONEq(t, `"MATH 211"`, string(e.course(t, "C1").PrereqJSON))
}

func TestPropagateCourses_ReportsProgress(t *testing.T) {
	e := newTestEnv(t)
	testutil.SeedRequisite(t, e.ctx, e.db,
		types.NewRequisiteKey(types.RequisiteTypePrereq, "MATH 211", nil, nil), `"MATH 211"`)
	for i := 0; i < 120; i++ {
		testutil.SeedCourse(t, e.ctx, e.db, "C"+string(rune('A'+i/26))+string(rune('a'+i%26)), testutil.CourseOpts{Prereq: "MATH 211"})
	}

	var mu sync.Mutex
	var pcts []int
	_, err := PropagateCourses(e.ctx, e.propagateDeps(t), PropagateInput{
		Report: func(stage string, pct int, msg string) {
			// The single sqlite connection is free again: the report sees committed rows.
			ctx, cancel := context.WithTimeout(e.ctx, 2*time.Second)
			defer cancel()
			var copied int64
			err := e.db.WithContext(ctx).Model(&types.Course{}).Where("prereq_json IS NOT NULL").Count(&copied).Error
			mu.Lock()
			defer mu.Unlock()
			assert.NoError(t, err)
			assert.EqualValues(t, 120, copied)
			assert.Equal(t, "propagate_courses", stage)
			pcts = append(pcts, pct)
		},
	})
	require.NoError(t, err)
	require.NotEmpty(t, pcts)
	for i := 1; i < len(pcts); i++ {
		assert.GreaterOrEqual(t, pcts[i], pcts[i-1])
	}
}

func TestPropagateCourseSets_OnlyValidMatches(t *testing.T) {
	e := newTestEnv(t)
	testutil.SeedRequisite(t, e.ctx, e.db,
		types.NewRequisiteKey(types.RequisiteTypeCourseSet, "Core Math", nil, nil),
		`{"or":["MATH 211","MATH 213"]}`)
	testutil.SeedRequisite(t, e.ctx, e.db,
		types.NewRequisiteKey(types.RequisiteTypeCourseSet, "Pending", nil, nil), "")
	testutil.SeedCourseSet(t, e.ctx, e.db, "S1", "Core Math", "")
	testutil.SeedCourseSet(t, e.ctx, e.db, "S2", "Pending", "")
	testutil.SeedCourseSet(t, e.ctx, e.db, "S3", "Unknown", "")

	out, err := PropagateCourseSets(e.ctx, e.propagateDeps(t), PropagateInput{})
	require.NoError(t, err)
	assert.Equal(t, PropagateCourseSetsOutput{CourseSets: 3, Updates: 1, Skipped: 2}, out)

	assert.JSONEq(t, `{"or":["MATH 211","MATH 213"]}`, string(e.courseSet(t, "S1").JSON))
	assert.Nil(t, e.courseSet(t, "S2").JSON)
	assert.Nil(t, e.courseSet(t, "S3").JSON)
}
