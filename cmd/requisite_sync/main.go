package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"

	"github.com/yungbote/coursecatalog-backend/internal/app"
	types "github.com/yungbote/coursecatalog-backend/internal/domain"
	"github.com/yungbote/coursecatalog-backend/internal/domain/jobs"
	"github.com/yungbote/coursecatalog-backend/internal/jobs/pipeline/catalog_import"
	"github.com/yungbote/coursecatalog-backend/internal/jobs/pipeline/catalog_sync"
	"github.com/yungbote/coursecatalog-backend/internal/jobs/pipeline/requisite_choices"
	"github.com/yungbote/coursecatalog-backend/internal/jobs/pipeline/requisites_harvest"
	"github.com/yungbote/coursecatalog-backend/internal/jobs/pipeline/requisites_propagate"
	jobrt "github.com/yungbote/coursecatalog-backend/internal/jobs/runtime"
	"github.com/yungbote/coursecatalog-backend/internal/modules/requisites"
	"github.com/yungbote/coursecatalog-backend/internal/pkg/dbctx"
	apperr "github.com/yungbote/coursecatalog-backend/internal/pkg/errors"
)

type list []string

func (l *list) String() string { return strings.Join(*l, ",") }
func (l *list) Set(v string) error {
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			*l = append(*l, p)
		}
	}
	return nil
}

const usage = `usage: requisite_sync [flags] <command>

commands:
  import      fetch catalog collections (-collection, repeatable)
  harvest     copy requisite text into the registry
  propagate   copy validated trees to courses and course sets (-target, repeatable)
  choices     generate candidate trees (-id, or -unresolved with -limit)
  sync        run the catalog_sync stage list
  status      print the latest run of each job type

With -enqueue the command is queued for the worker instead of run inline.
`

func main() {
	var collections, targets list
	var enqueue, unresolved bool
	var id string
	var limit, n int
	flag.Var(&collections, "collection", "catalog collection to import (repeatable)")
	flag.Var(&targets, "target", "propagation target: courses or course_sets (repeatable)")
	flag.BoolVar(&enqueue, "enqueue", false, "queue a job instead of running inline")
	flag.BoolVar(&unresolved, "unresolved", false, "generate choices for every unresolved requisite")
	flag.StringVar(&id, "id", "", "requisite id for choices")
	flag.IntVar(&limit, "limit", 0, "limit rows for -unresolved")
	flag.IntVar(&n, "n", 0, "candidates per requisite")
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage); flag.PrintDefaults() }
	flag.Parse()
	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}
	cmd := flag.Arg(0)

	application, err := app.New()
	if err != nil {
		fmt.Printf("init app: %v\n", err)
		os.Exit(1)
	}
	defer application.Close()

	ctx := context.Background()
	uc := application.Services.Requisites
	report := func(stage string, pct int, msg string) {
		fmt.Fprintf(os.Stderr, "[%3d%%] %s %s\n", pct, stage, msg)
	}

	jobType := ""
	payload := map[string]any{}
	var out any

	switch cmd {
	case "import":
		jobType = catalog_import.JobType
		payload["collections"] = []string(collections)
		if !enqueue {
			cols, perr := catalog_import.ParseCollections(collections)
			if perr != nil {
				exit(perr)
			}
			out, err = catalog_import.Import(ctx, uc, cols, report)
		}
	case "harvest":
		jobType = requisites_harvest.JobType
		if !enqueue {
			out, err = uc.Harvest(ctx)
		}
	case "propagate":
		jobType = requisites_propagate.JobType
		payload["targets"] = []string(targets)
		if !enqueue {
			ts, perr := requisites_propagate.ParseTargets(targets)
			if perr != nil {
				exit(perr)
			}
			out, err = requisites_propagate.Propagate(ctx, uc, ts, report)
		}
	case "choices":
		jobType = requisite_choices.JobType
		payload["n"] = n
		switch {
		case id != "":
			rid, perr := uuid.Parse(strings.TrimSpace(id))
			if perr != nil {
				exit(fmt.Errorf("invalid -id: %w", perr))
			}
			payload["requisite_id"] = rid.String()
			if !enqueue {
				out, err = uc.GenerateRequisiteChoices(ctx, rid, n)
			}
		case unresolved:
			payload["unresolved"] = true
			payload["limit"] = limit
			if !enqueue {
				out, err = uc.GenerateUnresolvedChoices(ctx, requisites.GenerateUnresolvedInput{Limit: limit, N: n, Report: report})
			}
		default:
			exit(fmt.Errorf("choices needs -id or -unresolved"))
		}
	case "sync":
		jobType = catalog_sync.JobType
		if !enqueue {
			// Run the pipeline against a detached job row so stage progress is logged.
			jc := jobrt.NewContext(ctx, application.DB, &types.JobRun{JobType: jobType, Status: jobs.StatusRunning}, nil, application.Services.JobNotifier)
			if err = catalog_sync.New(application.Log, uc).Run(jc); err == nil && jc.Job.Status == jobs.StatusFailed {
				err = fmt.Errorf("%s failed at %s: %s", jobType, jc.Job.Stage, jc.Job.Error)
			}
			out = json.RawMessage(jc.Job.Result)
		}
	case "status":
		latest := map[string]any{}
		for _, t := range application.Services.JobRegistry.Types() {
			job, gerr := application.Services.Jobs.GetLatestByType(dbctx.Context{Ctx: ctx}, t)
			if gerr != nil && !apperr.IsCode(gerr, apperr.CodeNotFound) {
				exit(gerr)
			}
			latest[t] = job
		}
		printJSON(latest)
		return
	default:
		flag.Usage()
		os.Exit(2)
	}

	if enqueue {
		job, created, qerr := application.Services.Jobs.EnqueueIfIdle(dbctx.Context{Ctx: ctx}, jobType, payload)
		if qerr != nil {
			exit(qerr)
		}
		if !created {
			fmt.Fprintf(os.Stderr, "%s already queued or running\n", jobType)
		}
		printJSON(job)
		return
	}
	if err != nil {
		exit(err)
	}
	printJSON(out)
}

func printJSON(v any) {
	b, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(b))
}

func exit(err error) {
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
