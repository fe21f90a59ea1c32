// Package batch holds the two execution strategies used by the sync pipeline:
// RunInTransaction applies all-or-nothing, BestEffort isolates failures per item.
package batch

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/yungbote/coursecatalog-backend/internal/pkg/ctxutil"
	"github.com/yungbote/coursecatalog-backend/internal/pkg/dbctx"
	"github.com/yungbote/coursecatalog-backend/internal/pkg/logger"
)

const (
	DefaultBatchSize   = 50
	DefaultConcurrency = 10
)

// Summary is what best-effort jobs report instead of failing on the first error.
type Summary struct {
	Total          int `json:"total"`
	TotalSucceeded int `json:"totalSucceeded"`
	TotalFailed    int `json:"totalFailed"`
}

// AllFailed is the job failure rule: only a pass where nothing succeeded is a failure.
func (s Summary) AllFailed() bool {
	return s.Total > 0 && s.TotalSucceeded == 0
}

func (s Summary) Add(o Summary) Summary {
	return Summary{
		Total:          s.Total + o.Total,
		TotalSucceeded: s.TotalSucceeded + o.TotalSucceeded,
		TotalFailed:    s.TotalFailed + o.TotalFailed,
	}
}

// RunInTransaction runs fn inside a single transaction bounded by timeout.
// Any error from fn rolls back everything fn wrote.
func RunInTransaction(ctx context.Context, db *gorm.DB, timeout time.Duration, fn func(dbc dbctx.Context) error) error {
	ctx, cancel := ctxutil.Bounded(ctx, timeout)
	defer cancel()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(dbctx.Context{Ctx: ctx, Tx: tx})
	})
}

type Options struct {
	BatchSize   int
	Concurrency int
	// OnBatch is called after each batch with the number of items processed so far.
	OnBatch func(done, total int)
	Log     *logger.Logger
}

// BestEffort processes items in fixed-size batches. Items within a batch run
// concurrently; a failing or panicking item is logged under key(item) and
// counted, and never cancels its siblings.
func BestEffort[T any](ctx context.Context, items []T, opts Options, key func(T) string, fn func(ctx context.Context, item T) error) Summary {
	ctx = ctxutil.Default(ctx)
	size := opts.BatchSize
	if size <= 0 {
		size = DefaultBatchSize
	}
	conc := opts.Concurrency
	if conc <= 0 {
		conc = DefaultConcurrency
	}

	total := len(items)
	var succeeded, failed int64
	var logMu sync.Mutex

	for start := 0; start < total; start += size {
		end := min(start+size, total)

		var g errgroup.Group
		g.SetLimit(conc)
		for _, item := range items[start:end] {
			g.Go(func() error {
				err := runItem(ctx, item, fn)
				if err == nil {
					atomic.AddInt64(&succeeded, 1)
					return nil
				}
				atomic.AddInt64(&failed, 1)
				if opts.Log != nil {
					logMu.Lock()
					opts.Log.Warn("batch item failed", "key", key(item), "error", err)
					logMu.Unlock()
				}
				return nil
			})
		}
		_ = g.Wait()

		if opts.OnBatch != nil {
			opts.OnBatch(end, total)
		}
	}

	return Summary{
		Total:          total,
		TotalSucceeded: int(succeeded),
		TotalFailed:    int(failed),
	}
}

func runItem[T any](ctx context.Context, item T, fn func(ctx context.Context, item T) error) (err error) {
	if cerr := ctx.Err(); cerr != nil {
		return cerr
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return fn(ctx, item)
}
