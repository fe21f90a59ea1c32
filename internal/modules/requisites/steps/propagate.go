package steps

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yungbote/coursecatalog-backend/internal/data/repos"
	types "github.com/yungbote/coursecatalog-backend/internal/domain"
	"github.com/yungbote/coursecatalog-backend/internal/domain/catalog"
	"github.com/yungbote/coursecatalog-backend/internal/modules/requisites/jsonlogic"
	"github.com/yungbote/coursecatalog-backend/internal/observability"
	"github.com/yungbote/coursecatalog-backend/internal/pkg/batch"
	"github.com/yungbote/coursecatalog-backend/internal/pkg/dbctx"
	"github.com/yungbote/coursecatalog-backend/internal/pkg/logger"
)

type PropagateDeps struct {
	DB         *gorm.DB
	Log        *logger.Logger
	Requisites repos.RequisiteRepo
	Courses    repos.CourseRepo
	CourseSets repos.CourseSetRepo
	Validator  *jsonlogic.Validator
}

type PropagateInput struct {
	TxTimeout time.Duration
	// Report runs after the sync transaction commits.
	Report ReportFunc
}

type PropagateCoursesOutput struct {
	Courses   int `json:"courses"`
	Updates   int `json:"updates"`
	Copied    int `json:"copied"`
	Cleared   int `json:"cleared"`
	Unmatched int `json:"unmatched"`
}

type PropagateCourseSetsOutput struct {
	CourseSets int `json:"course_sets"`
	Updates    int `json:"updates"`
	Skipped    int `json:"skipped"`
}

// validity caches one validation per registry row for the duration of a pass.
type validity struct {
	v     *jsonlogic.Validator
	cache map[string]bool
}

func newValidity(v *jsonlogic.Validator) *validity {
	return &validity{v: v, cache: map[string]bool{}}
}

func (c *validity) valid(row *types.Requisite) bool {
	id := row.ID.String()
	if ok, seen := c.cache[id]; seen {
		return ok
	}
	ok := row.IsResolved() && c.v.ValidateJSON(row.JSON).Valid
	c.cache[id] = ok
	return ok
}

// PropagateCourses copies valid canonical json from the registry onto every
// active course whose requisite text matches a registry key exactly. A matched
// row with invalid or missing json clears the course column instead. One
// update is issued per course with at least one match, inside one transaction.
func PropagateCourses(ctx context.Context, deps PropagateDeps, in PropagateInput) (out PropagateCoursesOutput, err error) {
	if deps.DB == nil || deps.Log == nil || deps.Requisites == nil || deps.Courses == nil || deps.Validator == nil {
		return out, fmt.Errorf("requisites_propagate_courses: missing deps")
	}
	ctx, span := observability.StartSpan(ctx, "requisites.propagate_courses")
	defer func() {
		span.SetAttributes(
			attribute.Int("courses", out.Courses),
			attribute.Int("updates", out.Updates),
			attribute.Int("cleared", out.Cleared),
		)
		observability.EndSpan(span, err)
	}()

	var held deferredReports
	progress := newProgressReporter("propagate_courses", held.report, 0, 0)
	checks := newValidity(deps.Validator)

	err = batch.RunInTransaction(ctx, deps.DB, in.TxTimeout, func(dbc dbctx.Context) error {
		rows, err := deps.Requisites.ListByTypes(dbc, catalog.CourseRequisiteTypes)
		if err != nil {
			return fmt.Errorf("load registry: %w", err)
		}
		idx := indexRegistry(rows)

		courses, err := deps.Courses.ListActiveWithRequisites(dbc)
		if err != nil {
			return fmt.Errorf("list courses: %w", err)
		}
		out.Courses = len(courses)

		for i, c := range courses {
			updates := map[string]interface{}{}
			for _, t := range catalog.CourseRequisiteTypes {
				text, ok := requisiteText(c.RequisiteText(t))
				if !ok {
					continue
				}
				row := idx.lookup(types.NewRequisiteKey(t, text, c.Departments, c.Faculties))
				if row == nil {
					out.Unmatched++
					continue
				}
				col := catalog.RequisiteJSONColumn(t)
				if checks.valid(row) {
					updates[col] = datatypes.JSON(row.JSON)
					out.Copied++
				} else {
					updates[col] = gorm.Expr("NULL")
					out.Cleared++
				}
			}
			if len(updates) == 0 {
				continue
			}
			if err := deps.Courses.UpdateFields(dbc, c.ID, updates); err != nil {
				return fmt.Errorf("update course %s: %w", c.CourseGroupID, err)
			}
			out.Updates++
			if (i+1)%batch.DefaultBatchSize == 0 {
				progress.UpdateRange(i+1, len(courses), 0, 99, fmt.Sprintf("Propagated %d/%d courses", i+1, len(courses)))
			}
		}
		return nil
	})
	if err != nil {
		return out, fmt.Errorf("requisites_propagate_courses: %w", err)
	}
	held.flush(in.Report)

	deps.Log.Info("requisites propagated to courses",
		"courses", out.Courses,
		"updates", out.Updates,
		"copied", out.Copied,
		"cleared", out.Cleared,
		"unmatched", out.Unmatched,
	)
	return out, nil
}

// PropagateCourseSets writes valid COURSE_SET registry json onto course sets
// matched by name. Unmatched sets and invalid rows are skipped.
func PropagateCourseSets(ctx context.Context, deps PropagateDeps, in PropagateInput) (out PropagateCourseSetsOutput, err error) {
	if deps.DB == nil || deps.Log == nil || deps.Requisites == nil || deps.CourseSets == nil || deps.Validator == nil {
		return out, fmt.Errorf("requisites_propagate_course_sets: missing deps")
	}
	ctx, span := observability.StartSpan(ctx, "requisites.propagate_course_sets")
	defer func() {
		span.SetAttributes(
			attribute.Int("course_sets", out.CourseSets),
			attribute.Int("updates", out.Updates),
		)
		observability.EndSpan(span, err)
	}()

	checks := newValidity(deps.Validator)

	err = batch.RunInTransaction(ctx, deps.DB, in.TxTimeout, func(dbc dbctx.Context) error {
		rows, err := deps.Requisites.ListByTypes(dbc, []types.RequisiteType{types.RequisiteTypeCourseSet})
		if err != nil {
			return fmt.Errorf("load registry: %w", err)
		}
		idx := indexRegistry(rows)

		sets, err := deps.CourseSets.ListAll(dbc)
		if err != nil {
			return fmt.Errorf("list course sets: %w", err)
		}
		out.CourseSets = len(sets)

		for _, cs := range sets {
			row := idx.lookup(types.NewRequisiteKey(types.RequisiteTypeCourseSet, cs.Name, nil, nil))
			if row == nil || !checks.valid(row) {
				out.Skipped++
				continue
			}
			if err := deps.CourseSets.UpdateFields(dbc, cs.ID, map[string]interface{}{
				"json": datatypes.JSON(row.JSON),
			}); err != nil {
				return fmt.Errorf("update course set %s: %w", cs.CourseSetGroupID, err)
			}
			out.Updates++
		}
		return nil
	})
	if err != nil {
		return out, fmt.Errorf("requisites_propagate_course_sets: %w", err)
	}

	deps.Log.Info("requisites propagated to course sets",
		"course_sets", out.CourseSets,
		"updates", out.Updates,
		"skipped", out.Skipped,
	)
	return out, nil
}
