package catalog_import

import (
	"context"
	"fmt"

	catalogclient "github.com/yungbote/coursecatalog-backend/internal/clients/catalog"
	jobrt "github.com/yungbote/coursecatalog-backend/internal/jobs/runtime"
	"github.com/yungbote/coursecatalog-backend/internal/modules/requisites"
	"github.com/yungbote/coursecatalog-backend/internal/pkg/batch"
)

// Result is stored on the job row. Summary totals every collection.
type Result struct {
	Collections map[catalogclient.Collection]batch.Summary `json:"collections"`
	batch.Summary
}

func (p *Pipeline) Run(jc *jobrt.Context) error {
	if jc == nil || jc.Job == nil {
		return nil
	}
	if p == nil || p.log == nil {
		jc.Fail("validate", fmt.Errorf("catalog_import: pipeline not configured"))
		return nil
	}
	collections, err := ParseCollections(jc.PayloadStrings("collections"))
	if err != nil {
		jc.Fail("validate", err)
		return nil
	}

	res, err := Import(jc.Ctx, p.uc, collections, jc.Reporter(0, 99))
	if err != nil {
		jc.Fail("import", err)
		return nil
	}
	if res.AllFailed() {
		jc.Fail("import", fmt.Errorf("catalog_import: all %d records failed", res.Total))
		return nil
	}
	jc.Succeed("done", res)
	return nil
}

// ParseCollections validates names; an empty list means every collection.
func ParseCollections(names []string) ([]catalogclient.Collection, error) {
	if len(names) == 0 {
		return append([]catalogclient.Collection(nil), catalogclient.Collections...), nil
	}
	out := make([]catalogclient.Collection, 0, len(names))
	for _, n := range names {
		c, err := catalogclient.ParseCollection(n)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

// Import runs each collection in order, giving each an equal share of report's range.
// A fetch failure aborts the remaining collections.
func Import(ctx context.Context, uc requisites.Usecases, collections []catalogclient.Collection, report func(stage string, pct int, msg string)) (Result, error) {
	res := Result{Collections: make(map[catalogclient.Collection]batch.Summary, len(collections))}
	for i, c := range collections {
		lo := i * 100 / len(collections)
		hi := (i + 1) * 100 / len(collections)
		out, err := uc.ImportCatalog(ctx, c, func(stage string, pct int, msg string) {
			if report != nil {
				report(stage, lo+(hi-lo)*pct/100, msg)
			}
		})
		if err != nil {
			return res, err
		}
		res.Collections[c] = out.Summary
		res.Summary = res.Summary.Add(out.Summary)
	}
	return res, nil
}
