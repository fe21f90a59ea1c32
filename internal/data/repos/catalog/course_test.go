package catalog

import (
	"context"
	"testing"

	"gorm.io/datatypes"

	"github.com/yungbote/coursecatalog-backend/internal/data/repos/testutil"
	types "github.com/yungbote/coursecatalog-backend/internal/domain"
	"github.com/yungbote/coursecatalog-backend/internal/pkg/dbctx"
	"github.com/yungbote/coursecatalog-backend/internal/pkg/pointers"
)

func TestCourseRepo_UpsertKeepsPropagatedJSON(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	repo := NewCourseRepo(db, testutil.Logger(t))
	dbc := dbctx.Context{Ctx: ctx}

	c := &types.Course{
		CourseGroupID: "g1",
		Code:          "MATH 211",
		Name:          "Linear Methods",
		PrereqText:    pointers.String("MATH 30"),
		Active:        true,
	}
	if err := repo.Upsert(dbc, c); err != nil {
		t.Fatalf("Upsert #1: %v", err)
	}
	stored, err := repo.GetByGroupID(dbc, "g1")
	if err != nil || stored == nil {
		t.Fatalf("GetByGroupID: row=%v err=%v", stored, err)
	}
	if err := repo.UpdateFields(dbc, stored.ID, map[string]interface{}{"prereq_json": datatypes.JSON([]byte(`"MATH 30"`))}); err != nil {
		t.Fatalf("UpdateFields: %v", err)
	}

	again := &types.Course{
		CourseGroupID: "g1",
		Code:          "MATH 211",
		Name:          "Linear Methods I",
		PrereqText:    pointers.String("MATH 30"),
		Active:        true,
	}
	if err := repo.Upsert(dbc, again); err != nil {
		t.Fatalf("Upsert #2: %v", err)
	}
	got, err := repo.GetByGroupID(dbc, "g1")
	if err != nil || got == nil {
		t.Fatalf("GetByGroupID: row=%v err=%v", got, err)
	}
	if got.ID != stored.ID {
		t.Fatalf("upsert created a second row")
	}
	if got.Name != "Linear Methods I" {
		t.Fatalf("name not refreshed: %q", got.Name)
	}
	if string(got.PrereqJSON) != `"MATH 30"` {
		t.Fatalf("prereq_json clobbered by import: %s", got.PrereqJSON)
	}
}

func TestCourseRepo_ListActiveWithRequisites(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	repo := NewCourseRepo(db, testutil.Logger(t))
	dbc := dbctx.Context{Ctx: ctx}

	testutil.SeedCourse(t, ctx, db, "a", testutil.CourseOpts{Prereq: "MATH 30"})
	testutil.SeedCourse(t, ctx, db, "b", testutil.CourseOpts{})
	testutil.SeedCourse(t, ctx, db, "c", testutil.CourseOpts{Antireq: "MATH 205", Inactive: true})
	testutil.SeedCourse(t, ctx, db, "d", testutil.CourseOpts{Coreq: "PHYS 211"})

	rows, err := repo.ListActiveWithRequisites(dbc)
	if err != nil {
		t.Fatalf("ListActiveWithRequisites: %v", err)
	}
	if len(rows) != 2 || rows[0].CourseGroupID != "a" || rows[1].CourseGroupID != "d" {
		t.Fatalf("unexpected rows: %+v", rows)
	}

	active, err := repo.ListActive(dbc)
	if err != nil || len(active) != 3 {
		t.Fatalf("ListActive: len=%d err=%v", len(active), err)
	}
}

func TestCourseSetRepo_Upsert(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	repo := NewCourseSetRepo(db, testutil.Logger(t))
	dbc := dbctx.Context{Ctx: ctx}

	if err := repo.Upsert(dbc, &types.CourseSet{CourseSetGroupID: "cs1", Name: "Core"}); err != nil {
		t.Fatalf("Upsert #1: %v", err)
	}
	if err := repo.Upsert(dbc, &types.CourseSet{CourseSetGroupID: "cs1", Name: "Core Math"}); err != nil {
		t.Fatalf("Upsert #2: %v", err)
	}
	rows, err := repo.ListAll(dbc)
	if err != nil {
		t.Fatalf("ListAll: %v", err)
	}
	if len(rows) != 1 || rows[0].Name != "Core Math" {
		t.Fatalf("unexpected rows: %+v", rows)
	}
}
