package requisite_choices

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/coursecatalog-backend/internal/clients/generator"
	"github.com/yungbote/coursecatalog-backend/internal/data/repos/testutil"
	types "github.com/yungbote/coursecatalog-backend/internal/domain"
	"github.com/yungbote/coursecatalog-backend/internal/domain/jobs"
	"github.com/yungbote/coursecatalog-backend/internal/jobs/pipeline/pipelinetest"
	"github.com/yungbote/coursecatalog-backend/internal/modules/requisites"
	"github.com/yungbote/coursecatalog-backend/internal/pkg/batch"
)

type textGenerator struct {
	mu    sync.Mutex
	calls int
	fail  map[string]bool
}

func (g *textGenerator) Generate(_ context.Context, req generator.Request) ([]any, error) {
	g.mu.Lock()
	g.calls++
	g.mu.Unlock()
	if g.fail[req.Text] {
		return nil, errors.New("generator unavailable")
	}
	out := make([]any, req.N)
	for i := range out {
		out[i] = req.Text
	}
	return out, nil
}

func seed(t *testing.T, e *pipelinetest.Env, text string) *types.Requisite {
	t.Helper()
	return testutil.SeedRequisite(t, e.Ctx, e.DB, types.NewRequisiteKey(types.RequisiteTypePrereq, text, nil, nil), "")
}

func TestRun_SingleRequisite(t *testing.T) {
	e := pipelinetest.New(t, pipelinetest.Options{Generator: &textGenerator{}})
	row := seed(t, e, "MATH 211")

	jc := e.Job(t, JobType, `{"requisite_id":"`+row.ID.String()+`","n":3}`)
	require.NoError(t, New(e.Log, e.Usecases).Run(jc))

	var out requisites.GenerateChoicesOutput
	e.Result(t, jc, &out)
	assert.Equal(t, row.ID, out.RequisiteID)
	assert.Equal(t, 3, out.Candidates)
	assert.True(t, out.Selected)
}

func TestRun_UnresolvedBatch(t *testing.T) {
	gen := &textGenerator{fail: map[string]bool{"B": true}}
	e := pipelinetest.New(t, pipelinetest.Options{Generator: gen})
	seed(t, e, "A")
	seed(t, e, "B")

	jc := e.Job(t, JobType, `{"unresolved":true,"n":2}`)
	require.NoError(t, New(e.Log, e.Usecases).Run(jc))

	var sum batch.Summary
	e.Result(t, jc, &sum)
	assert.Equal(t, batch.Summary{Total: 2, TotalSucceeded: 1, TotalFailed: 1}, sum)
}

func TestRun_UnresolvedAllFailedFailsJob(t *testing.T) {
	gen := &textGenerator{fail: map[string]bool{"A": true}}
	e := pipelinetest.New(t, pipelinetest.Options{Generator: gen})
	seed(t, e, "A")

	jc := e.Job(t, JobType, `{"unresolved":true}`)
	require.NoError(t, New(e.Log, e.Usecases).Run(jc))
	row := e.Load(t, jc)
	assert.Equal(t, jobs.StatusFailed, row.Status)
	assert.Equal(t, "generate", row.Stage)
}

func TestRun_PayloadNeedsTarget(t *testing.T) {
	gen := &textGenerator{}
	e := pipelinetest.New(t, pipelinetest.Options{Generator: gen})

	jc := e.Job(t, JobType, `{"n":2}`)
	require.NoError(t, New(e.Log, e.Usecases).Run(jc))
	row := e.Load(t, jc)
	assert.Equal(t, jobs.StatusFailed, row.Status)
	assert.Equal(t, "validate", row.Stage)
	assert.Zero(t, gen.calls)
}
