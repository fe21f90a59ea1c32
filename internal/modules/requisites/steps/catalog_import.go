package steps

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"

	catalogclient "github.com/yungbote/coursecatalog-backend/internal/clients/catalog"
	"github.com/yungbote/coursecatalog-backend/internal/data/repos"
	"github.com/yungbote/coursecatalog-backend/internal/observability"
	"github.com/yungbote/coursecatalog-backend/internal/pkg/batch"
	"github.com/yungbote/coursecatalog-backend/internal/pkg/dbctx"
	"github.com/yungbote/coursecatalog-backend/internal/pkg/logger"
)

type CatalogImportDeps struct {
	Log           *logger.Logger
	Catalog       catalogclient.Client
	Courses       repos.CourseRepo
	CourseSets    repos.CourseSetRepo
	RequisiteSets repos.RequisiteSetRepo
	Programs      repos.ProgramRepo
}

type CatalogImportInput struct {
	Collection  catalogclient.Collection
	BatchSize   int
	Concurrency int
	Report      ReportFunc
}

type CatalogImportOutput struct {
	Collection catalogclient.Collection `json:"collection"`
	batch.Summary
}

type importFunc func(dbc dbctx.Context, raw map[string]any) error

// CatalogImport fetches one vendor collection and upserts every record by its
// natural key. Records are isolated: a malformed record is logged and counted
// without affecting the rest.
func CatalogImport(ctx context.Context, deps CatalogImportDeps, in CatalogImportInput) (out CatalogImportOutput, err error) {
	if deps.Log == nil || deps.Catalog == nil {
		return out, fmt.Errorf("catalog_import: missing deps")
	}
	out.Collection = in.Collection
	upsert, keyFields, err := importerFor(deps, in.Collection)
	if err != nil {
		return out, fmt.Errorf("catalog_import: %w", err)
	}

	ctx, span := observability.StartSpan(ctx, "catalog.import",
		attribute.String("collection", string(in.Collection)))
	defer func() {
		span.SetAttributes(
			attribute.Int("total", out.Total),
			attribute.Int("succeeded", out.TotalSucceeded),
			attribute.Int("failed", out.TotalFailed),
		)
		observability.EndSpan(span, err)
	}()

	stage := "import_" + string(in.Collection)
	progress := newProgressReporter(stage, in.Report, 0, 0)
	progress.Update(1, "fetching "+string(in.Collection))

	records, err := deps.Catalog.FetchAll(ctx, in.Collection)
	if err != nil {
		return out, fmt.Errorf("catalog_import: fetch %s: %w", in.Collection, err)
	}
	progress.Update(10, fmt.Sprintf("fetched %d %s", len(records), in.Collection))

	log := deps.Log.With("collection", string(in.Collection))
	out.Summary = batch.BestEffort(ctx, records, batch.Options{
		BatchSize:   in.BatchSize,
		Concurrency: in.Concurrency,
		Log:         log,
		OnBatch: func(done, total int) {
			progress.UpdateRange(done, total, 10, 99, fmt.Sprintf("imported %d/%d", done, total))
		},
	}, func(raw map[string]any) string {
		return naturalKey(raw, keyFields...)
	}, func(ctx context.Context, raw map[string]any) error {
		return upsert(dbctx.Context{Ctx: ctx}, raw)
	})

	log.Info("catalog collection imported",
		"total", out.Total,
		"succeeded", out.TotalSucceeded,
		"failed", out.TotalFailed,
	)
	return out, nil
}

func importerFor(deps CatalogImportDeps, c catalogclient.Collection) (importFunc, []string, error) {
	switch c {
	case catalogclient.CollectionCourses:
		if deps.Courses == nil {
			return nil, nil, fmt.Errorf("missing course repo")
		}
		return func(dbc dbctx.Context, raw map[string]any) error {
			course, err := courseFromRecord(raw)
			if err != nil {
				return err
			}
			return deps.Courses.Upsert(dbc, course)
		}, []string{"course_group_id", "id"}, nil
	case catalogclient.CollectionCourseSets:
		if deps.CourseSets == nil {
			return nil, nil, fmt.Errorf("missing course set repo")
		}
		return func(dbc dbctx.Context, raw map[string]any) error {
			set, err := courseSetFromRecord(raw)
			if err != nil {
				return err
			}
			return deps.CourseSets.Upsert(dbc, set)
		}, []string{"course_set_group_id", "id"}, nil
	case catalogclient.CollectionRequisiteSets:
		if deps.RequisiteSets == nil {
			return nil, nil, fmt.Errorf("missing requisite set repo")
		}
		return func(dbc dbctx.Context, raw map[string]any) error {
			set, err := requisiteSetFromRecord(raw)
			if err != nil {
				return err
			}
			return deps.RequisiteSets.Upsert(dbc, set)
		}, []string{"requisite_set_group_id", "id"}, nil
	case catalogclient.CollectionPrograms:
		if deps.Programs == nil {
			return nil, nil, fmt.Errorf("missing program repo")
		}
		return func(dbc dbctx.Context, raw map[string]any) error {
			program, err := programFromRecord(raw)
			if err != nil {
				return err
			}
			return deps.Programs.Upsert(dbc, program)
		}, []string{"program_group_id", "id"}, nil
	default:
		return nil, nil, fmt.Errorf("unknown collection %q", c)
	}
}
