package steps

import (
	"math"
	"strings"
	"sync"
	"time"
)

// ReportFunc receives coarse progress for the running job stage.
type ReportFunc func(stage string, pct int, message string)

// progressReporter throttles repeated reports and never lets pct move backwards.
type progressReporter struct {
	stage       string
	report      ReportFunc
	minInterval time.Duration
	lastPct     int
	lastMsg     string
	lastAt      time.Time
	mu          sync.Mutex
}

func newProgressReporter(stage string, report ReportFunc, base int, minInterval time.Duration) *progressReporter {
	if minInterval <= 0 {
		minInterval = 2 * time.Second
	}
	return &progressReporter{
		stage:       stage,
		report:      report,
		minInterval: minInterval,
		lastPct:     min(max(base, 0), 99),
	}
}

func (p *progressReporter) Update(pct int, msg string) {
	if p == nil || p.report == nil {
		return
	}
	pct = min(max(pct, 0), 99)
	now := time.Now()
	p.mu.Lock()
	if pct < p.lastPct {
		pct = p.lastPct
	}
	if strings.TrimSpace(msg) == "" {
		msg = p.lastMsg
	}
	if pct == p.lastPct && msg == p.lastMsg && !p.lastAt.IsZero() && now.Sub(p.lastAt) < p.minInterval {
		p.mu.Unlock()
		return
	}
	p.lastPct = pct
	p.lastMsg = msg
	p.lastAt = now
	p.mu.Unlock()
	p.report(p.stage, pct, msg)
}

// UpdateRange maps done/total onto the [start, end] percentage window.
func (p *progressReporter) UpdateRange(done, total, start, end int, msg string) {
	if p == nil {
		return
	}
	if end < start {
		end = start
	}
	if total <= 0 {
		p.Update(start, msg)
		return
	}
	done = min(max(done, 0), total)
	pct := start
	if span := end - start; span > 0 {
		pct = start + int(math.Round(float64(done)/float64(total)*float64(span)))
	}
	p.Update(pct, msg)
}

type reportCall struct {
	stage string
	pct   int
	msg   string
}

// deferredReports queues reports raised inside a transaction. Job progress is
// written through the connection pool, so it is replayed only after commit.
type deferredReports struct {
	mu    sync.Mutex
	calls []reportCall
}

func (d *deferredReports) report(stage string, pct int, msg string) {
	d.mu.Lock()
	d.calls = append(d.calls, reportCall{stage: stage, pct: pct, msg: msg})
	d.mu.Unlock()
}

func (d *deferredReports) flush(report ReportFunc) {
	if report == nil {
		return
	}
	d.mu.Lock()
	calls := d.calls
	d.calls = nil
	d.mu.Unlock()
	for _, c := range calls {
		report(c.stage, c.pct, c.msg)
	}
}
