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
	"github.com/yungbote/coursecatalog-backend/internal/observability"
	"github.com/yungbote/coursecatalog-backend/internal/pkg/batch"
	"github.com/yungbote/coursecatalog-backend/internal/pkg/dbctx"
	"github.com/yungbote/coursecatalog-backend/internal/pkg/logger"
)

type HarvestDeps struct {
	DB            *gorm.DB
	Log           *logger.Logger
	Requisites    repos.RequisiteRepo
	Courses       repos.CourseRepo
	CourseSets    repos.CourseSetRepo
	RequisiteSets repos.RequisiteSetRepo
}

type HarvestInput struct {
	TxTimeout time.Duration
}

type HarvestOutput struct {
	CoursesScanned     int   `json:"courses_scanned"`
	CourseKeys         int   `json:"course_keys"`
	CourseKeysInserted int64 `json:"course_keys_inserted"`
	CourseSetRows      int   `json:"course_set_rows"`
	RequisiteSetRows   int   `json:"requisite_set_rows"`
	SetRowsUpserted    int64 `json:"set_rows_upserted"`
}

// Harvest copies requisite text from courses, course sets and requisite sets
// into the registry inside one transaction. Course-derived keys are only
// inserted when absent; set-derived rows always refresh raw_json.
func Harvest(ctx context.Context, deps HarvestDeps, in HarvestInput) (out HarvestOutput, err error) {
	if deps.DB == nil || deps.Log == nil || deps.Requisites == nil || deps.Courses == nil ||
		deps.CourseSets == nil || deps.RequisiteSets == nil {
		return out, fmt.Errorf("requisites_harvest: missing deps")
	}
	ctx, span := observability.StartSpan(ctx, "requisites.harvest")
	defer func() {
		span.SetAttributes(
			attribute.Int("courses_scanned", out.CoursesScanned),
			attribute.Int64("course_keys_inserted", out.CourseKeysInserted),
			attribute.Int64("set_rows_upserted", out.SetRowsUpserted),
		)
		observability.EndSpan(span, err)
	}()

	err = batch.RunInTransaction(ctx, deps.DB, in.TxTimeout, func(dbc dbctx.Context) error {
		courses, err := deps.Courses.ListActiveWithRequisites(dbc)
		if err != nil {
			return fmt.Errorf("list courses: %w", err)
		}
		out.CoursesScanned = len(courses)

		courseRows := make([]*types.Requisite, 0, len(courses))
		for _, c := range courses {
			for _, t := range catalog.CourseRequisiteTypes {
				text, ok := requisiteText(c.RequisiteText(t))
				if !ok {
					continue
				}
				key := types.NewRequisiteKey(t, text, c.Departments, c.Faculties)
				courseRows = append(courseRows, &types.Requisite{
					RequisiteType: key.Type,
					Text:          key.Text,
					Departments:   datatypes.JSONSlice[string](key.Departments),
					Faculties:     datatypes.JSONSlice[string](key.Faculties),
				})
			}
		}
		courseRows = uniqueRows(courseRows, false)
		out.CourseKeys = len(courseRows)
		inserted, err := deps.Requisites.InsertMissing(dbc, courseRows)
		if err != nil {
			return fmt.Errorf("insert course requisites: %w", err)
		}
		out.CourseKeysInserted = inserted

		courseSets, err := deps.CourseSets.ListAll(dbc)
		if err != nil {
			return fmt.Errorf("list course sets: %w", err)
		}
		requisiteSets, err := deps.RequisiteSets.ListAll(dbc)
		if err != nil {
			return fmt.Errorf("list requisite sets: %w", err)
		}

		setRows := make([]*types.Requisite, 0, len(courseSets)+len(requisiteSets))
		for _, cs := range courseSets {
			if row := setRow(types.RequisiteTypeCourseSet, cs.Name, cs.RawJSON); row != nil {
				setRows = append(setRows, row)
				out.CourseSetRows++
			}
		}
		for _, rs := range requisiteSets {
			if row := setRow(types.RequisiteTypeRequisiteSet, rs.Name, rs.RawJSON); row != nil {
				setRows = append(setRows, row)
				out.RequisiteSetRows++
			}
		}
		upserted, err := deps.Requisites.UpsertRawJSON(dbc, uniqueRows(setRows, true))
		if err != nil {
			return fmt.Errorf("upsert set requisites: %w", err)
		}
		out.SetRowsUpserted = upserted
		return nil
	})
	if err != nil {
		return out, fmt.Errorf("requisites_harvest: %w", err)
	}

	deps.Log.Info("requisites harvested",
		"courses", out.CoursesScanned,
		"course_keys", out.CourseKeys,
		"course_keys_inserted", out.CourseKeysInserted,
		"set_rows", out.CourseSetRows+out.RequisiteSetRows,
	)
	return out, nil
}

func setRow(t types.RequisiteType, name string, raw datatypes.JSON) *types.Requisite {
	text, ok := requisiteText(name)
	if !ok {
		return nil
	}
	return &types.Requisite{
		RequisiteType: t,
		Text:          text,
		Departments:   datatypes.JSONSlice[string]{},
		Faculties:     datatypes.JSONSlice[string]{},
		RawJSON:       raw,
	}
}
