package requisite_choices

import (
	"fmt"

	jobrt "github.com/yungbote/coursecatalog-backend/internal/jobs/runtime"
	"github.com/yungbote/coursecatalog-backend/internal/modules/requisites"
)

// Payload: {"requisite_id": "...", "n": 3} for one row, or
// {"unresolved": true, "limit": 100, "n": 3} for every unresolved row.
func (p *Pipeline) Run(jc *jobrt.Context) error {
	if jc == nil || jc.Job == nil {
		return nil
	}
	if p == nil || p.log == nil {
		jc.Fail("validate", fmt.Errorf("requisite_choices: pipeline not configured"))
		return nil
	}
	n := jc.PayloadInt("n", 0)

	if id, ok := jc.PayloadUUID("requisite_id"); ok {
		jc.Progress("generate", 10, "Generating requisite choices")
		out, err := p.uc.GenerateRequisiteChoices(jc.Ctx, id, n)
		if err != nil {
			jc.Fail("generate", err)
			return nil
		}
		jc.Succeed("done", out)
		return nil
	}

	if !jc.PayloadBool("unresolved") {
		jc.Fail("validate", fmt.Errorf("requisite_choices: payload needs requisite_id or unresolved"))
		return nil
	}
	summary, err := p.uc.GenerateUnresolvedChoices(jc.Ctx, requisites.GenerateUnresolvedInput{
		Limit:  jc.PayloadInt("limit", 0),
		N:      n,
		Report: jc.Reporter(0, 99),
	})
	if err != nil {
		jc.Fail("generate", err)
		return nil
	}
	if summary.AllFailed() {
		jc.Fail("generate", fmt.Errorf("requisite_choices: all %d rows failed", summary.Total))
		return nil
	}
	jc.Succeed("done", summary)
	return nil
}
