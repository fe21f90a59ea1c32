package steps

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/yungbote/coursecatalog-backend/internal/data/repos"
	"github.com/yungbote/coursecatalog-backend/internal/data/repos/testutil"
	types "github.com/yungbote/coursecatalog-backend/internal/domain"
	"github.com/yungbote/coursecatalog-backend/internal/modules/requisites/jsonlogic"
	"github.com/yungbote/coursecatalog-backend/internal/pkg/dbctx"
	"github.com/yungbote/coursecatalog-backend/internal/pkg/logger"
)

type testEnv struct {
	ctx           context.Context
	db            *gorm.DB
	log           *logger.Logger
	requisites    repos.RequisiteRepo
	courses       repos.CourseRepo
	courseSets    repos.CourseSetRepo
	requisiteSets repos.RequisiteSetRepo
	programs      repos.ProgramRepo
}

// newTestEnv seeds directly on the database: the steps open their own
// transaction and the sqlite pool holds one connection.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := testutil.DB(t)
	log := testutil.Logger(t)
	return &testEnv{
		ctx:           context.Background(),
		db:            db,
		log:           log,
		requisites:    repos.NewRequisiteRepo(db, log),
		courses:       repos.NewCourseRepo(db, log),
		courseSets:    repos.NewCourseSetRepo(db, log),
		requisiteSets: repos.NewRequisiteSetRepo(db, log),
		programs:      repos.NewProgramRepo(db, log),
	}
}

func (e *testEnv) dbc() dbctx.Context { return dbctx.Context{Ctx: e.ctx} }

func (e *testEnv) harvestDeps() HarvestDeps {
	return HarvestDeps{
		DB:            e.db,
		Log:           e.log,
		Requisites:    e.requisites,
		Courses:       e.courses,
		CourseSets:    e.courseSets,
		RequisiteSets: e.requisiteSets,
	}
}

func (e *testEnv) propagateDeps(t *testing.T) PropagateDeps {
	t.Helper()
	v, err := jsonlogic.NewValidator()
	require.NoError(t, err)
	return PropagateDeps{
		DB:         e.db,
		Log:        e.log,
		Requisites: e.requisites,
		Courses:    e.courses,
		CourseSets: e.courseSets,
		Validator:  v,
	}
}

func (e *testEnv) registry(t *testing.T) []*types.Requisite {
	t.Helper()
	rows, err := e.requisites.List(e.dbc(), repos.RequisiteFilter{})
	require.NoError(t, err)
	return rows
}

func (e *testEnv) course(t *testing.T, groupID string) *types.Course {
	t.Helper()
	c, err := e.courses.GetByGroupID(e.dbc(), groupID)
	require.NoError(t, err)
	require.NotNil(t, c, "course %s", groupID)
	return c
}

func (e *testEnv) courseSet(t *testing.T, groupID string) *types.CourseSet {
	t.Helper()
	cs, err := e.courseSets.GetByGroupID(e.dbc(), groupID)
	require.NoError(t, err)
	require.NotNil(t, cs, "course set %s", groupID)
	return cs
}

func findRow(rows []*types.Requisite, key types.RequisiteKey) *types.Requisite {
	for _, r := range rows {
		if r.Key().Equal(key) {
			return r
		}
	}
	return nil
}
