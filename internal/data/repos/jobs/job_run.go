package jobs

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/coursecatalog-backend/internal/domain"
	jobstatus "github.com/yungbote/coursecatalog-backend/internal/domain/jobs"
	"github.com/yungbote/coursecatalog-backend/internal/pkg/dbctx"
	"github.com/yungbote/coursecatalog-backend/internal/pkg/logger"
)

// JobRunFilter narrows List. Empty slices match everything.
type JobRunFilter struct {
	Types    []string
	Statuses []string
	Limit    int
}

type JobRunRepo interface {
	Create(dbc dbctx.Context, jobs []*types.JobRun) ([]*types.JobRun, error)
	GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.JobRun, error)
	GetLatestByType(dbc dbctx.Context, jobType string) (*types.JobRun, error)
	List(dbc dbctx.Context, filter JobRunFilter) ([]*types.JobRun, error)
	ClaimNextRunnable(dbc dbctx.Context, maxAttempts int, retryDelay time.Duration, staleRunning time.Duration) (*types.JobRun, error)
	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error
	UpdateFieldsUnlessStatus(dbc dbctx.Context, id uuid.UUID, disallowedStatuses []string, updates map[string]interface{}) (bool, error)
	ExistsRunnable(dbc dbctx.Context, jobType string) (bool, error)
}

type jobRunRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewJobRunRepo(db *gorm.DB, baseLog *logger.Logger) JobRunRepo {
	return &jobRunRepo{
		db:  db,
		log: baseLog.With("repo", "JobRunRepo"),
	}
}

func (r *jobRunRepo) Create(dbc dbctx.Context, jobs []*types.JobRun) ([]*types.JobRun, error) {
	if len(jobs) == 0 {
		return []*types.JobRun{}, nil
	}
	if err := dbc.DB(r.db).Create(&jobs).Error; err != nil {
		return nil, err
	}
	return jobs, nil
}

func (r *jobRunRepo) GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.JobRun, error) {
	var out []*types.JobRun
	if len(ids) == 0 {
		return out, nil
	}
	err := dbc.DB(r.db).Where("id IN ?", ids).Find(&out).Error
	return out, err
}

// GetLatestByType returns nil when no job of jobType was ever enqueued.
func (r *jobRunRepo) GetLatestByType(dbc dbctx.Context, jobType string) (*types.JobRun, error) {
	if jobType == "" {
		return nil, nil
	}
	rows, err := r.List(dbc, JobRunFilter{Types: []string{jobType}, Limit: 1})
	if err != nil || len(rows) == 0 {
		return nil, err
	}
	return rows[0], nil
}

// List returns jobs newest first.
func (r *jobRunRepo) List(dbc dbctx.Context, filter JobRunFilter) ([]*types.JobRun, error) {
	q := dbc.DB(r.db).Model(&types.JobRun{})
	if len(filter.Types) > 0 {
		q = q.Where("job_type IN ?", filter.Types)
	}
	if len(filter.Statuses) > 0 {
		q = q.Where("status IN ?", filter.Statuses)
	}
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}
	var out []*types.JobRun
	err := q.Order("created_at DESC").Find(&out).Error
	return out, err
}

// runnable is the condition group for queued jobs, failed jobs with attempts
// left whose last error has cooled down, and running jobs whose heartbeat went
// stale. cond must be a NewDB session so each Where starts a fresh statement.
func runnable(cond *gorm.DB, maxAttempts int, retryCutoff, staleCutoff time.Time) *gorm.DB {
	retry := cond.Where("status = ? AND attempts < ?", jobstatus.StatusFailed, maxAttempts).
		Where(cond.Where("last_error_at IS NULL").Or("last_error_at < ?", retryCutoff))
	stale := cond.Where("status = ? AND heartbeat_at IS NOT NULL AND heartbeat_at < ?", jobstatus.StatusRunning, staleCutoff)
	return cond.Where("status = ?", jobstatus.StatusQueued).Or(retry).Or(stale)
}

// ClaimNextRunnable marks the oldest runnable job running and bumps its
// attempt count. It returns nil when nothing is runnable.
func (r *jobRunRepo) ClaimNextRunnable(dbc dbctx.Context, maxAttempts int, retryDelay time.Duration, staleRunning time.Duration) (*types.JobRun, error) {
	now := time.Now()
	var claimed *types.JobRun
	err := dbc.DB(r.db).Transaction(func(txx *gorm.DB) error {
		cond := txx.Session(&gorm.Session{NewDB: true})
		q := txx.Where(runnable(cond, maxAttempts, now.Add(-retryDelay), now.Add(-staleRunning)))
		if txx.Dialector.Name() == "postgres" {
			q = q.Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"})
		}
		var job types.JobRun
		err := q.Order("created_at ASC").
			First(&job).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		if err := txx.Model(&types.JobRun{}).
			Where("id = ?", job.ID).
			Updates(map[string]interface{}{
				"status":       jobstatus.StatusRunning,
				"attempts":     gorm.Expr("attempts + 1"),
				"locked_at":    now,
				"heartbeat_at": now,
				"updated_at":   now,
			}).Error; err != nil {
			return err
		}
		job.Status = jobstatus.StatusRunning
		job.Attempts++
		job.LockedAt = &now
		job.HeartbeatAt = &now
		claimed = &job
		return nil
	})
	if err != nil {
		return nil, err
	}
	if claimed != nil {
		r.log.Debug("claimed job", "job_id", claimed.ID, "job_type", claimed.JobType, "attempt", claimed.Attempts)
	}
	return claimed, nil
}

func stamp(updates map[string]interface{}) map[string]interface{} {
	if updates == nil {
		updates = map[string]interface{}{}
	}
	if _, ok := updates["updated_at"]; !ok {
		updates["updated_at"] = time.Now()
	}
	return updates
}

func (r *jobRunRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
	if id == uuid.Nil {
		return nil
	}
	return dbc.DB(r.db).
		Model(&types.JobRun{}).
		Where("id = ?", id).
		Updates(stamp(updates)).Error
}

// UpdateFieldsUnlessStatus applies updates only while the row's status is not
// one of disallowedStatuses. It reports whether a row was written.
func (r *jobRunRepo) UpdateFieldsUnlessStatus(dbc dbctx.Context, id uuid.UUID, disallowedStatuses []string, updates map[string]interface{}) (bool, error) {
	if id == uuid.Nil {
		return false, nil
	}
	q := dbc.DB(r.db).
		Model(&types.JobRun{}).
		Where("id = ?", id)
	if len(disallowedStatuses) > 0 {
		q = q.Where("status NOT IN ?", disallowedStatuses)
	}
	res := q.Updates(stamp(updates))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// ExistsRunnable reports whether a job of jobType is queued or running.
func (r *jobRunRepo) ExistsRunnable(dbc dbctx.Context, jobType string) (bool, error) {
	if jobType == "" {
		return false, nil
	}
	var count int64
	if err := dbc.DB(r.db).
		Model(&types.JobRun{}).
		Where("job_type = ? AND status IN ?", jobType, []string{jobstatus.StatusQueued, jobstatus.StatusRunning}).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}
