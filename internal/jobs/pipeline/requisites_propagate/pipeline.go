package requisites_propagate

import (
	"context"
	"fmt"

	jobrt "github.com/yungbote/coursecatalog-backend/internal/jobs/runtime"
	"github.com/yungbote/coursecatalog-backend/internal/modules/requisites"
	"github.com/yungbote/coursecatalog-backend/internal/normalization"
)

const (
	TargetCourses    = "courses"
	TargetCourseSets = "course_sets"
)

var DefaultTargets = []string{TargetCourses, TargetCourseSets}

type Result struct {
	Courses    *requisites.PropagateCoursesOutput    `json:"courses,omitempty"`
	CourseSets *requisites.PropagateCourseSetsOutput `json:"course_sets,omitempty"`
}

func (p *Pipeline) Run(jc *jobrt.Context) error {
	if jc == nil || jc.Job == nil {
		return nil
	}
	if p == nil || p.log == nil {
		jc.Fail("validate", fmt.Errorf("requisites_propagate: pipeline not configured"))
		return nil
	}
	targets, err := ParseTargets(jc.PayloadStrings("targets"))
	if err != nil {
		jc.Fail("validate", err)
		return nil
	}

	res, err := Propagate(jc.Ctx, p.uc, targets, jc.Reporter(0, 99))
	if err != nil {
		jc.Fail("propagate", err)
		return nil
	}
	jc.Succeed("done", res)
	return nil
}

// ParseTargets validates target names; an empty list means every target.
func ParseTargets(names []string) ([]string, error) {
	if len(names) == 0 {
		return append([]string(nil), DefaultTargets...), nil
	}
	out := make([]string, 0, len(names))
	for _, n := range names {
		n = normalization.ParseInputString(n)
		switch n {
		case TargetCourses, TargetCourseSets:
			out = append(out, n)
		default:
			return nil, fmt.Errorf("unknown propagation target %q", n)
		}
	}
	return out, nil
}

// Propagate runs each target in its own transaction, in order. A failed
// target stops the run; targets already committed stay committed.
func Propagate(ctx context.Context, uc requisites.Usecases, targets []string, report func(stage string, pct int, msg string)) (Result, error) {
	var res Result
	for i, t := range targets {
		lo := i * 100 / len(targets)
		hi := (i + 1) * 100 / len(targets)
		sub := func(stage string, pct int, msg string) {
			if report != nil {
				report(stage, lo+(hi-lo)*pct/100, msg)
			}
		}
		switch t {
		case TargetCourses:
			sub("propagate_courses", 0, "Propagating requisites to courses")
			out, err := uc.PropagateCourses(ctx, sub)
			if err != nil {
				return res, err
			}
			res.Courses = &out
		case TargetCourseSets:
			sub("propagate_course_sets", 0, "Propagating requisites to course sets")
			out, err := uc.PropagateCourseSets(ctx, sub)
			if err != nil {
				return res, err
			}
			res.CourseSets = &out
		}
	}
	return res, nil
}
