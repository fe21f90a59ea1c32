package requisites

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	catalogclient "github.com/yungbote/coursecatalog-backend/internal/clients/catalog"
	"github.com/yungbote/coursecatalog-backend/internal/clients/generator"
	"github.com/yungbote/coursecatalog-backend/internal/data/repos"
	"github.com/yungbote/coursecatalog-backend/internal/data/repos/dberr"
	types "github.com/yungbote/coursecatalog-backend/internal/domain"
	"github.com/yungbote/coursecatalog-backend/internal/modules/requisites/jsonlogic"
	"github.com/yungbote/coursecatalog-backend/internal/modules/requisites/steps"
	"github.com/yungbote/coursecatalog-backend/internal/pkg/batch"
	"github.com/yungbote/coursecatalog-backend/internal/pkg/dbctx"
	apperr "github.com/yungbote/coursecatalog-backend/internal/pkg/errors"
	"github.com/yungbote/coursecatalog-backend/internal/pkg/logger"
)

const DefaultTxTimeout = 20 * time.Minute

type UsecasesDeps struct {
	DB  *gorm.DB
	Log *logger.Logger

	Requisites    repos.RequisiteRepo
	Courses       repos.CourseRepo
	CourseSets    repos.CourseSetRepo
	RequisiteSets repos.RequisiteSetRepo
	Programs      repos.ProgramRepo

	Catalog catalogclient.Client
	// Optional: choice generation fails when unset.
	Generator generator.Generator

	// Validator is built on first use and shared by every copy of Usecases.
	Validator *jsonlogic.Lazy

	BatchSize   int
	Concurrency int
	TxTimeout   time.Duration
	ChoiceCount int
}

type Usecases struct {
	deps UsecasesDeps
}

func New(deps UsecasesDeps) Usecases {
	if deps.Validator == nil {
		deps.Validator = &jsonlogic.Lazy{}
	}
	if deps.TxTimeout <= 0 {
		deps.TxTimeout = DefaultTxTimeout
	}
	if deps.ChoiceCount <= 0 {
		deps.ChoiceCount = steps.DefaultChoiceCount
	}
	return Usecases{deps: deps}
}

func (u Usecases) WithLog(log *logger.Logger) Usecases {
	u.deps.Log = log
	return u
}

type (
	ReportFunc = steps.ReportFunc

	HarvestOutput             = steps.HarvestOutput
	PropagateCoursesOutput    = steps.PropagateCoursesOutput
	PropagateCourseSetsOutput = steps.PropagateCourseSetsOutput
	GenerateChoicesOutput     = steps.GenerateChoicesOutput
	CatalogImportOutput       = steps.CatalogImportOutput
)

// Validator returns the process-lifetime validator owned by this Usecases.
func (u Usecases) Validator() (*jsonlogic.Validator, error) {
	return u.deps.Validator.Get()
}

// annotate fills the derived validity fields. Unresolved rows are reported
// invalid with the missing-tree error.
func (u Usecases) annotate(rows ...*types.Requisite) error {
	v, err := u.Validator()
	if err != nil {
		return err
	}
	for _, r := range rows {
		if r == nil {
			continue
		}
		res := v.ValidateJSON(r.JSON)
		r.JSONValid = res.Valid
		r.JSONErrors = res.Errors
		r.JSONWarnings = res.Warnings
	}
	return nil
}

func (u Usecases) GetRequisite(ctx context.Context, id uuid.UUID) (*types.Requisite, error) {
	const op = "requisites.get"
	row, err := u.deps.Requisites.GetByID(dbctx.Context{Ctx: ctx}, id)
	if err != nil {
		return nil, dberr.MapError(op, err)
	}
	if row == nil {
		return nil, apperr.NotFound(op, fmt.Sprintf("requisite %s not found", id))
	}
	if err := u.annotate(row); err != nil {
		return nil, err
	}
	return row, nil
}

type ListRequisitesInput struct {
	Type       types.RequisiteType
	Unresolved bool
	Limit      int
	Offset     int
}

func (u Usecases) ListRequisites(ctx context.Context, in ListRequisitesInput) ([]*types.Requisite, error) {
	const op = "requisites.list"
	filter := repos.RequisiteFilter{Unresolved: in.Unresolved, Limit: in.Limit, Offset: in.Offset}
	if in.Type != "" {
		if !in.Type.Valid() {
			return nil, apperr.Invalid(op, fmt.Sprintf("unknown requisite type %q", in.Type))
		}
		filter.Types = []types.RequisiteType{in.Type}
	}
	rows, err := u.deps.Requisites.List(dbctx.Context{Ctx: ctx}, filter)
	if err != nil {
		return nil, dberr.MapError(op, err)
	}
	if err := u.annotate(rows...); err != nil {
		return nil, err
	}
	return rows, nil
}

type CreateRequisiteInput struct {
	Key     types.RequisiteKey
	RawJSON json.RawMessage
	JSON    json.RawMessage
}

func (u Usecases) CreateRequisite(ctx context.Context, in CreateRequisiteInput) (*types.Requisite, error) {
	const op = "requisites.create"
	key := types.NewRequisiteKey(in.Key.Type, in.Key.Text, in.Key.Departments, in.Key.Faculties)
	if !key.Type.Valid() {
		return nil, apperr.Invalid(op, fmt.Sprintf("unknown requisite type %q", key.Type))
	}
	if strings.TrimSpace(key.Text) == "" {
		return nil, apperr.Invalid(op, "requisite text is required")
	}
	rawJSON, tree := jsonOrNil(in.RawJSON), jsonOrNil(in.JSON)
	if rawJSON != nil && !json.Valid(rawJSON) {
		return nil, apperr.Invalid(op, "raw_json is not valid JSON")
	}
	if tree != nil && !json.Valid(tree) {
		return nil, apperr.Invalid(op, "json is not valid JSON")
	}

	dbc := dbctx.Context{Ctx: ctx}
	existing, err := u.deps.Requisites.GetByKey(dbc, key)
	if err != nil {
		return nil, dberr.MapError(op, err)
	}
	if existing != nil {
		return nil, apperr.AlreadyExists(op, fmt.Sprintf("requisite %s %q already exists", key.Type, key.Text))
	}

	row := &types.Requisite{
		RequisiteType: key.Type,
		Text:          key.Text,
		Departments:   datatypes.JSONSlice[string](key.Departments),
		Faculties:     datatypes.JSONSlice[string](key.Faculties),
		RawJSON:       rawJSON,
		JSON:          tree,
	}
	if _, err := u.deps.Requisites.Create(dbc, []*types.Requisite{row}); err != nil {
		return nil, dberr.MapError(op, err)
	}
	if err := u.annotate(row); err != nil {
		return nil, err
	}
	u.deps.Log.Info("requisite created", "requisite_id", row.ID, "type", row.RequisiteType)
	return row, nil
}

// UpdateRequisiteJSON sets the canonical tree. A null or empty tree resets the
// row to unresolved. The tree is stored even when invalid; propagation refuses it.
func (u Usecases) UpdateRequisiteJSON(ctx context.Context, id uuid.UUID, tree json.RawMessage) (*types.Requisite, error) {
	const op = "requisites.update_json"
	var value interface{} = gorm.Expr("NULL")
	if j := jsonOrNil(tree); j != nil {
		if !json.Valid(j) {
			return nil, apperr.Invalid(op, "json is not valid JSON")
		}
		value = j
	}
	ok, err := u.deps.Requisites.UpdateFields(dbctx.Context{Ctx: ctx}, id, map[string]interface{}{"json": value})
	if err != nil {
		return nil, dberr.MapError(op, err)
	}
	if !ok {
		return nil, apperr.NotFound(op, fmt.Sprintf("requisite %s not found", id))
	}
	return u.GetRequisite(ctx, id)
}

func (u Usecases) DeleteRequisite(ctx context.Context, id uuid.UUID) error {
	const op = "requisites.delete"
	ok, err := u.deps.Requisites.Delete(dbctx.Context{Ctx: ctx}, id)
	if err != nil {
		return dberr.MapError(op, err)
	}
	if !ok {
		return apperr.NotFound(op, fmt.Sprintf("requisite %s not found", id))
	}
	u.deps.Log.Info("requisite deleted", "requisite_id", id)
	return nil
}

func (u Usecases) Harvest(ctx context.Context) (HarvestOutput, error) {
	out, err := steps.Harvest(ctx, steps.HarvestDeps{
		DB:            u.deps.DB,
		Log:           u.deps.Log,
		Requisites:    u.deps.Requisites,
		Courses:       u.deps.Courses,
		CourseSets:    u.deps.CourseSets,
		RequisiteSets: u.deps.RequisiteSets,
	}, steps.HarvestInput{TxTimeout: u.deps.TxTimeout})
	return out, dberr.MapError("requisites.harvest", err)
}

func (u Usecases) propagateDeps() (steps.PropagateDeps, error) {
	v, err := u.Validator()
	if err != nil {
		return steps.PropagateDeps{}, err
	}
	return steps.PropagateDeps{
		DB:         u.deps.DB,
		Log:        u.deps.Log,
		Requisites: u.deps.Requisites,
		Courses:    u.deps.Courses,
		CourseSets: u.deps.CourseSets,
		Validator:  v,
	}, nil
}

func (u Usecases) PropagateCourses(ctx context.Context, report ReportFunc) (PropagateCoursesOutput, error) {
	deps, err := u.propagateDeps()
	if err != nil {
		return PropagateCoursesOutput{}, err
	}
	out, err := steps.PropagateCourses(ctx, deps, steps.PropagateInput{TxTimeout: u.deps.TxTimeout, Report: report})
	return out, dberr.MapError("requisites.propagate_courses", err)
}

func (u Usecases) PropagateCourseSets(ctx context.Context, report ReportFunc) (PropagateCourseSetsOutput, error) {
	deps, err := u.propagateDeps()
	if err != nil {
		return PropagateCourseSetsOutput{}, err
	}
	out, err := steps.PropagateCourseSets(ctx, deps, steps.PropagateInput{TxTimeout: u.deps.TxTimeout, Report: report})
	return out, dberr.MapError("requisites.propagate_course_sets", err)
}

func (u Usecases) choiceDeps() (steps.GenerateChoicesDeps, error) {
	if u.deps.Generator == nil {
		return steps.GenerateChoicesDeps{}, fmt.Errorf("requisite choice generator not configured")
	}
	return steps.GenerateChoicesDeps{
		DB:         u.deps.DB,
		Log:        u.deps.Log,
		Requisites: u.deps.Requisites,
		Generator:  u.deps.Generator,
	}, nil
}

// GenerateRequisiteChoices generates n candidates for one row; n <= 0 uses the configured count.
func (u Usecases) GenerateRequisiteChoices(ctx context.Context, id uuid.UUID, n int) (GenerateChoicesOutput, error) {
	deps, err := u.choiceDeps()
	if err != nil {
		return GenerateChoicesOutput{}, err
	}
	if n <= 0 {
		n = u.deps.ChoiceCount
	}
	out, err := steps.GenerateChoices(ctx, deps, steps.GenerateChoicesInput{RequisiteID: id, N: n, TxTimeout: u.deps.TxTimeout})
	return out, dberr.MapError("requisites.generate_choices", err)
}

type GenerateUnresolvedInput struct {
	Limit  int
	N      int
	Report ReportFunc
}

// GenerateUnresolvedChoices runs choice generation over unresolved rows with
// per-row isolation.
func (u Usecases) GenerateUnresolvedChoices(ctx context.Context, in GenerateUnresolvedInput) (batch.Summary, error) {
	const op = "requisites.generate_unresolved"
	deps, err := u.choiceDeps()
	if err != nil {
		return batch.Summary{}, err
	}
	n := in.N
	if n <= 0 {
		n = u.deps.ChoiceCount
	}
	rows, err := u.deps.Requisites.List(dbctx.Context{Ctx: ctx}, repos.RequisiteFilter{Unresolved: true, Limit: in.Limit})
	if err != nil {
		return batch.Summary{}, dberr.MapError(op, err)
	}
	summary := batch.BestEffort(ctx, rows, batch.Options{
		BatchSize:   u.deps.BatchSize,
		Concurrency: u.deps.Concurrency,
		Log:         u.deps.Log.With("op", op),
		OnBatch: func(done, total int) {
			if in.Report != nil {
				in.Report("generate_choices", min(done*100/max(total, 1), 99), fmt.Sprintf("generated %d/%d", done, total))
			}
		},
	}, func(r *types.Requisite) string {
		return r.ID.String()
	}, func(ctx context.Context, r *types.Requisite) error {
		_, err := steps.GenerateChoices(ctx, deps, steps.GenerateChoicesInput{RequisiteID: r.ID, N: n, TxTimeout: u.deps.TxTimeout})
		return err
	})
	u.deps.Log.Info("unresolved requisite choices generated",
		"total", summary.Total,
		"succeeded", summary.TotalSucceeded,
		"failed", summary.TotalFailed,
	)
	return summary, nil
}

func (u Usecases) ImportCatalog(ctx context.Context, collection catalogclient.Collection, report ReportFunc) (CatalogImportOutput, error) {
	return steps.CatalogImport(ctx, steps.CatalogImportDeps{
		Log:           u.deps.Log,
		Catalog:       u.deps.Catalog,
		Courses:       u.deps.Courses,
		CourseSets:    u.deps.CourseSets,
		RequisiteSets: u.deps.RequisiteSets,
		Programs:      u.deps.Programs,
	}, steps.CatalogImportInput{
		Collection:  collection,
		BatchSize:   u.deps.BatchSize,
		Concurrency: u.deps.Concurrency,
		Report:      report,
	})
}

func jsonOrNil(raw json.RawMessage) datatypes.JSON {
	s := strings.TrimSpace(string(raw))
	if s == "" || s == "null" {
		return nil
	}
	return datatypes.JSON(s)
}
