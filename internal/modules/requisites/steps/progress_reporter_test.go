package steps

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type reportCall struct {
	stage string
	pct   int
	msg   string
}

func recordReports() (*[]reportCall, ReportFunc) {
	var calls []reportCall
	return &calls, func(stage string, pct int, msg string) {
		calls = append(calls, reportCall{stage, pct, msg})
	}
}

func TestProgressReporter_MonotonicAndThrottled(t *testing.T) {
	calls, fn := recordReports()
	p := newProgressReporter("import", fn, 10, time.Hour)

	p.Update(20, "batch 1")
	p.Update(15, "batch 2")
	p.Update(15, "batch 2")
	p.Update(150, "")

	assert.Equal(t, []reportCall{
		{"import", 20, "batch 1"},
		{"import", 20, "batch 2"},
		{"import", 99, "batch 2"},
	}, *calls)
}

func TestProgressReporter_UpdateRange(t *testing.T) {
	calls, fn := recordReports()
	p := newProgressReporter("propagate", fn, 0, time.Hour)

	p.UpdateRange(1, 4, 10, 50, "a")
	p.UpdateRange(4, 4, 10, 50, "b")
	p.UpdateRange(0, 0, 60, 90, "c")

	assert.Equal(t, []reportCall{
		{"propagate", 20, "a"},
		{"propagate", 50, "b"},
		{"propagate", 60, "c"},
	}, *calls)
}

func TestProgressReporter_NilSafe(t *testing.T) {
	var p *progressReporter
	p.Update(10, "x")
	p.UpdateRange(1, 2, 0, 100, "x")
	newProgressReporter("s", nil, 0, 0).Update(5, "x")
}
