// Package pipelinetest builds job contexts over an in-memory database for pipeline tests.
package pipelinetest

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	catalogclient "github.com/yungbote/coursecatalog-backend/internal/clients/catalog"
	"github.com/yungbote/coursecatalog-backend/internal/clients/generator"
	"github.com/yungbote/coursecatalog-backend/internal/data/repos"
	"github.com/yungbote/coursecatalog-backend/internal/data/repos/testutil"
	types "github.com/yungbote/coursecatalog-backend/internal/domain"
	"github.com/yungbote/coursecatalog-backend/internal/domain/jobs"
	jobrt "github.com/yungbote/coursecatalog-backend/internal/jobs/runtime"
	"github.com/yungbote/coursecatalog-backend/internal/modules/requisites"
	"github.com/yungbote/coursecatalog-backend/internal/pkg/dbctx"
	"github.com/yungbote/coursecatalog-backend/internal/pkg/logger"
)

type Options struct {
	Collections map[string][]map[string]any
	Generator   generator.Generator
}

type Env struct {
	Ctx        context.Context
	DB         *gorm.DB
	Log        *logger.Logger
	Jobs       *ProgressRepo
	Usecases   requisites.Usecases
	Courses    repos.CourseRepo
	CourseSets repos.CourseSetRepo
	Requisites repos.RequisiteRepo
}

func New(t *testing.T, opts Options) *Env {
	t.Helper()
	db := testutil.DB(t)
	log := testutil.Logger(t)
	var catalog catalogclient.Client
	if opts.Collections != nil {
		srv := CatalogServer(t, opts.Collections)
		c, err := catalogclient.NewClient(log, catalogclient.Config{BaseURL: srv.URL, PageSize: 2})
		require.NoError(t, err)
		catalog = c
	}
	e := &Env{
		Ctx:        context.Background(),
		DB:         db,
		Log:        log,
		Jobs:       &ProgressRepo{JobRunRepo: repos.NewJobRunRepo(db, log)},
		Courses:    repos.NewCourseRepo(db, log),
		CourseSets: repos.NewCourseSetRepo(db, log),
		Requisites: repos.NewRequisiteRepo(db, log),
	}
	e.Usecases = requisites.New(requisites.UsecasesDeps{
		DB:            db,
		Log:           log,
		Requisites:    e.Requisites,
		Courses:       e.Courses,
		CourseSets:    e.CourseSets,
		RequisiteSets: repos.NewRequisiteSetRepo(db, log),
		Programs:      repos.NewProgramRepo(db, log),
		Catalog:       catalog,
		Generator:     opts.Generator,
		Concurrency:   2,
	})
	return e
}

// Job stores a running job of jobType and returns its execution context.
func (e *Env) Job(t *testing.T, jobType, payload string) *jobrt.Context {
	t.Helper()
	if payload == "" {
		payload = "{}"
	}
	job := &types.JobRun{JobType: jobType, Status: jobs.StatusRunning, Stage: "queued", Payload: datatypes.JSON(payload)}
	_, err := e.Jobs.Create(dbctx.Context{Ctx: e.Ctx}, []*types.JobRun{job})
	require.NoError(t, err)
	return jobrt.NewContext(e.Ctx, e.DB, job, e.Jobs, nil)
}

func (e *Env) Load(t *testing.T, jc *jobrt.Context) *types.JobRun {
	t.Helper()
	rows, err := e.Jobs.GetByIDs(dbctx.Context{Ctx: e.Ctx}, []uuid.UUID{jc.Job.ID})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	return rows[0]
}

// Result decodes the stored job result into out.
func (e *Env) Result(t *testing.T, jc *jobrt.Context, out any) {
	t.Helper()
	row := e.Load(t, jc)
	require.Equal(t, jobs.StatusSucceeded, row.Status, "job error: %s", row.Error)
	require.NoError(t, json.Unmarshal(row.Result, out))
}

type Update struct {
	Stage    string
	Progress int
}

// ProgressRepo keeps non-terminal updates in memory. Steps report progress
// while their transaction holds the only SQLite connection.
type ProgressRepo struct {
	repos.JobRunRepo
	mu      sync.Mutex
	updates []Update
}

func (r *ProgressRepo) UpdateFieldsUnlessStatus(dbc dbctx.Context, id uuid.UUID, disallowed []string, updates map[string]interface{}) (bool, error) {
	if _, terminal := updates["status"]; terminal {
		return r.JobRunRepo.UpdateFieldsUnlessStatus(dbc, id, disallowed, updates)
	}
	stage, _ := updates["stage"].(string)
	pct, _ := updates["progress"].(int)
	r.mu.Lock()
	r.updates = append(r.updates, Update{Stage: stage, Progress: pct})
	r.mu.Unlock()
	return true, nil
}

func (r *ProgressRepo) Updates() []Update {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Update(nil), r.updates...)
}

// CatalogServer serves fixed collections with skip/limit paging.
func CatalogServer(t *testing.T, collections map[string][]map[string]any) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		records, ok := collections[r.URL.Path[1:]]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		skip, _ := strconv.Atoi(r.URL.Query().Get("skip"))
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		page := []map[string]any{}
		for i := skip; i < len(records) && i < skip+limit; i++ {
			page = append(page, records[i])
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(page)
	}))
	t.Cleanup(srv.Close)
	return srv
}
