package testutil

import (
	"context"
	"testing"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	types "github.com/yungbote/coursecatalog-backend/internal/domain"
	"github.com/yungbote/coursecatalog-backend/internal/pkg/pointers"
)

// CourseOpts sets the requisite-relevant fields of a seeded course.
type CourseOpts struct {
	Prereq      string
	Coreq       string
	Antireq     string
	Departments []string
	Faculties   []string
	Inactive    bool
}

func SeedCourse(tb testing.TB, ctx context.Context, tx *gorm.DB, groupID string, opts CourseOpts) *types.Course {
	tb.Helper()
	c := &types.Course{
		CourseGroupID: groupID,
		Code:          groupID,
		Name:          "course " + groupID,
		PrereqText:    pointers.NonBlank(opts.Prereq),
		CoreqText:     pointers.NonBlank(opts.Coreq),
		AntireqText:   pointers.NonBlank(opts.Antireq),
		Departments:   datatypes.JSONSlice[string](opts.Departments),
		Faculties:     datatypes.JSONSlice[string](opts.Faculties),
		Active:        !opts.Inactive,
	}
	if err := tx.WithContext(ctx).Create(c).Error; err != nil {
		tb.Fatalf("seed course: %v", err)
	}
	return c
}

func SeedCourseSet(tb testing.TB, ctx context.Context, tx *gorm.DB, groupID, name string, raw string) *types.CourseSet {
	tb.Helper()
	cs := &types.CourseSet{
		CourseSetGroupID: groupID,
		Name:             name,
		RawJSON:          jsonOrNil(raw),
	}
	if err := tx.WithContext(ctx).Create(cs).Error; err != nil {
		tb.Fatalf("seed course set: %v", err)
	}
	return cs
}

func SeedRequisiteSet(tb testing.TB, ctx context.Context, tx *gorm.DB, groupID, name string, raw string) *types.RequisiteSet {
	tb.Helper()
	rs := &types.RequisiteSet{
		RequisiteSetGroupID: groupID,
		Name:                name,
		RawJSON:             jsonOrNil(raw),
	}
	if err := tx.WithContext(ctx).Create(rs).Error; err != nil {
		tb.Fatalf("seed requisite set: %v", err)
	}
	return rs
}

// SeedRequisite stores a registry row. An empty tree leaves json unresolved.
func SeedRequisite(tb testing.TB, ctx context.Context, tx *gorm.DB, key types.RequisiteKey, tree string) *types.Requisite {
	tb.Helper()
	r := &types.Requisite{
		RequisiteType: key.Type,
		Text:          key.Text,
		Departments:   datatypes.JSONSlice[string](key.Departments),
		Faculties:     datatypes.JSONSlice[string](key.Faculties),
		JSON:          jsonOrNil(tree),
	}
	if err := tx.WithContext(ctx).Create(r).Error; err != nil {
		tb.Fatalf("seed requisite: %v", err)
	}
	return r
}

func jsonOrNil(raw string) datatypes.JSON {
	if raw == "" {
		return nil
	}
	return datatypes.JSON([]byte(raw))
}
