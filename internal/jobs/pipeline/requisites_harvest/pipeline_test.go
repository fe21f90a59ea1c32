package requisites_harvest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/coursecatalog-backend/internal/data/repos"
	"github.com/yungbote/coursecatalog-backend/internal/data/repos/testutil"
	types "github.com/yungbote/coursecatalog-backend/internal/domain"
	"github.com/yungbote/coursecatalog-backend/internal/jobs/pipeline/pipelinetest"
	"github.com/yungbote/coursecatalog-backend/internal/modules/requisites"
	"github.com/yungbote/coursecatalog-backend/internal/pkg/dbctx"
)

func TestRun_HarvestsAndStoresSummary(t *testing.T) {
	e := pipelinetest.New(t, pipelinetest.Options{})
	testutil.SeedCourse(t, e.Ctx, e.DB, "C1", testutil.CourseOpts{Prereq: "MATH 211", Antireq: "MATH 213"})
	testutil.SeedCourse(t, e.Ctx, e.DB, "C2", testutil.CourseOpts{Prereq: "MATH 211"})

	jc := e.Job(t, JobType, "")
	require.NoError(t, New(e.Log, e.Usecases).Run(jc))

	var out requisites.HarvestOutput
	e.Result(t, jc, &out)
	assert.Equal(t, 2, out.CoursesScanned)
	assert.Equal(t, 2, out.CourseKeys)

	rows, err := e.Requisites.List(dbctx.Context{Ctx: e.Ctx}, repos.RequisiteFilter{Types: []types.RequisiteType{types.RequisiteTypePrereq}})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "MATH 211", rows[0].Text)
}

func TestRun_UnconfiguredPipelineFails(t *testing.T) {
	e := pipelinetest.New(t, pipelinetest.Options{})
	jc := e.Job(t, JobType, "")
	var p *Pipeline
	require.NoError(t, p.Run(jc))
	assert.Equal(t, "failed", e.Load(t, jc).Status)
	assert.Equal(t, JobType, New(e.Log, e.Usecases).Type())
}
