package requisites_harvest

import (
	"fmt"

	jobrt "github.com/yungbote/coursecatalog-backend/internal/jobs/runtime"
)

func (p *Pipeline) Run(jc *jobrt.Context) error {
	if jc == nil || jc.Job == nil {
		return nil
	}
	if p == nil || p.log == nil {
		jc.Fail("validate", fmt.Errorf("requisites_harvest: pipeline not configured"))
		return nil
	}

	jc.Progress("harvest", 5, "Harvesting requisite text into the registry")
	out, err := p.uc.Harvest(jc.Ctx)
	if err != nil {
		jc.Fail("harvest", err)
		return nil
	}
	jc.Succeed("done", out)
	return nil
}
