package catalog_sync

import (
	"context"
	"fmt"

	"github.com/yungbote/coursecatalog-backend/internal/jobs/pipeline/catalog_import"
	"github.com/yungbote/coursecatalog-backend/internal/jobs/pipeline/requisites_propagate"
	jobrt "github.com/yungbote/coursecatalog-backend/internal/jobs/runtime"
)

// Result maps each stage name to the output it produced.
type Result struct {
	Stages map[string]any `json:"stages"`
}

func (p *Pipeline) Run(jc *jobrt.Context) error {
	if jc == nil || jc.Job == nil {
		return nil
	}
	if p == nil || p.log == nil {
		jc.Fail("validate", fmt.Errorf("catalog_sync: pipeline not configured"))
		return nil
	}

	stages, err := LoadStages()
	if err != nil {
		p.log.Warn("catalog_sync: pipeline spec load failed; using fallback", "error", err)
		stages = fallbackStages
	}

	res := Result{Stages: make(map[string]any, len(stages))}
	for i, st := range stages {
		lo := i * 99 / len(stages)
		hi := (i + 1) * 99 / len(stages)
		out, err := p.runStage(jc.Ctx, st, jc.Reporter(lo, hi))
		if err != nil {
			jc.Fail(st.Name, err)
			return nil
		}
		res.Stages[st.Name] = out
	}
	jc.Succeed("done", res)
	return nil
}

func (p *Pipeline) runStage(ctx context.Context, st StageSpec, report func(stage string, pct int, msg string)) (any, error) {
	p.log.Info("catalog_sync stage", "stage", st.Name, "type", st.Type)
	switch st.Type {
	case StageImport:
		cols, err := catalog_import.ParseCollections(st.Strings("collections"))
		if err != nil {
			return nil, err
		}
		out, err := catalog_import.Import(ctx, p.uc, cols, report)
		if err != nil {
			return nil, err
		}
		if out.AllFailed() {
			return nil, fmt.Errorf("catalog_sync: all %d imported records failed", out.Total)
		}
		return out, nil
	case StageHarvest:
		report("harvest", 0, "Harvesting requisite text into the registry")
		return p.uc.Harvest(ctx)
	case StagePropagate:
		targets, err := requisites_propagate.ParseTargets(st.Strings("targets"))
		if err != nil {
			return nil, err
		}
		return requisites_propagate.Propagate(ctx, p.uc, targets, report)
	default:
		return nil, fmt.Errorf("catalog_sync: unknown stage type %q", st.Type)
	}
}
