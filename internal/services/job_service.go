package services

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/yungbote/coursecatalog-backend/internal/data/repos"
	"github.com/yungbote/coursecatalog-backend/internal/data/repos/dberr"
	types "github.com/yungbote/coursecatalog-backend/internal/domain"
	"github.com/yungbote/coursecatalog-backend/internal/domain/jobs"
	"github.com/yungbote/coursecatalog-backend/internal/pkg/ctxutil"
	"github.com/yungbote/coursecatalog-backend/internal/pkg/dbctx"
	apperr "github.com/yungbote/coursecatalog-backend/internal/pkg/errors"
	"github.com/yungbote/coursecatalog-backend/internal/pkg/logger"
)

// JobService writes job_run rows for the polling worker to claim.
type JobService interface {
	Enqueue(dbc dbctx.Context, jobType string, entityType string, entityID *uuid.UUID, payload map[string]any) (*types.JobRun, error)
	// EnqueueIfIdle enqueues unless a job of the same type is already queued or running.
	EnqueueIfIdle(dbc dbctx.Context, jobType string, payload map[string]any) (*types.JobRun, bool, error)
	Get(dbc dbctx.Context, jobID uuid.UUID) (*types.JobRun, error)
	GetLatestByType(dbc dbctx.Context, jobType string) (*types.JobRun, error)
	Cancel(dbc dbctx.Context, jobID uuid.UUID) (*types.JobRun, error)
	Restart(dbc dbctx.Context, jobID uuid.UUID) (*types.JobRun, error)
}

type jobService struct {
	log    *logger.Logger
	repo   repos.JobRunRepo
	notify JobNotifier
}

func NewJobService(baseLog *logger.Logger, repo repos.JobRunRepo, notify JobNotifier) JobService {
	return &jobService{
		log:    baseLog.With("service", "JobService"),
		repo:   repo,
		notify: notify,
	}
}

func (s *jobService) Enqueue(dbc dbctx.Context, jobType string, entityType string, entityID *uuid.UUID, payload map[string]any) (*types.JobRun, error) {
	jobType = strings.TrimSpace(jobType)
	if jobType == "" {
		return nil, apperr.Invalid("jobs.enqueue", "missing job_type")
	}
	if payload == nil {
		payload = map[string]any{}
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, apperr.Invalid("jobs.enqueue", "payload is not JSON-encodable: "+err.Error())
	}

	now := time.Now()
	job := &types.JobRun{
		ID:         uuid.New(),
		JobType:    jobType,
		EntityType: entityType,
		EntityID:   entityID,
		Status:     jobs.StatusQueued,
		Stage:      "queued",
		Message:    "Queued",
		Payload:    datatypes.JSON(b),
		Result:     datatypes.JSON([]byte(`{}`)),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if _, err := s.repo.Create(dbctx.Context{Ctx: ctxutil.Default(dbc.Ctx), Tx: dbc.Tx}, []*types.JobRun{job}); err != nil {
		return nil, fmt.Errorf("create job: %w", dberr.MapError("jobs.enqueue", err))
	}
	if s.notify != nil {
		s.notify.JobCreated(job)
	}
	return job, nil
}

func (s *jobService) EnqueueIfIdle(dbc dbctx.Context, jobType string, payload map[string]any) (*types.JobRun, bool, error) {
	has, err := s.repo.ExistsRunnable(dbc, jobType)
	if err != nil {
		return nil, false, dberr.MapError("jobs.enqueue_if_idle", err)
	}
	if has {
		s.log.Debug("job already pending; skipping enqueue", "job_type", jobType)
		return nil, false, nil
	}
	job, err := s.Enqueue(dbc, jobType, "", nil, payload)
	if err != nil {
		return nil, false, err
	}
	return job, true, nil
}

func (s *jobService) Get(dbc dbctx.Context, jobID uuid.UUID) (*types.JobRun, error) {
	const op = "jobs.get"
	if jobID == uuid.Nil {
		return nil, apperr.Invalid(op, "missing job id")
	}
	rows, err := s.repo.GetByIDs(dbc, []uuid.UUID{jobID})
	if err != nil {
		return nil, dberr.MapError(op, err)
	}
	if len(rows) == 0 || rows[0] == nil {
		return nil, apperr.NotFound(op, fmt.Sprintf("job %s not found", jobID))
	}
	return rows[0], nil
}

func (s *jobService) GetLatestByType(dbc dbctx.Context, jobType string) (*types.JobRun, error) {
	const op = "jobs.get_latest"
	job, err := s.repo.GetLatestByType(dbc, jobType)
	if err != nil {
		return nil, dberr.MapError(op, err)
	}
	if job == nil {
		return nil, apperr.NotFound(op, fmt.Sprintf("no %s job", jobType))
	}
	return job, nil
}

func isTerminal(status string) bool {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case jobs.StatusSucceeded, jobs.StatusFailed, jobs.StatusCanceled:
		return true
	default:
		return false
	}
}

// Cancel marks a pending or running job canceled. Terminal jobs are returned unchanged.
// A running handler keeps going, but its progress and result writes are rejected.
func (s *jobService) Cancel(dbc dbctx.Context, jobID uuid.UUID) (*types.JobRun, error) {
	job, err := s.Get(dbc, jobID)
	if err != nil {
		return nil, err
	}
	if isTerminal(job.Status) {
		return job, nil
	}
	now := time.Now().UTC()
	if err := s.repo.UpdateFields(dbc, jobID, map[string]interface{}{
		"status":       jobs.StatusCanceled,
		"message":      "Canceled",
		"locked_at":    nil,
		"heartbeat_at": now,
		"updated_at":   now,
	}); err != nil {
		return nil, dberr.MapError("jobs.cancel", err)
	}
	job.Status = jobs.StatusCanceled
	job.Message = "Canceled"
	job.LockedAt = nil
	job.HeartbeatAt = &now
	job.UpdatedAt = now
	if s.notify != nil {
		s.notify.JobCanceled(job)
	}
	return job, nil
}

// Restart requeues a failed or canceled job with its attempt count reset.
func (s *jobService) Restart(dbc dbctx.Context, jobID uuid.UUID) (*types.JobRun, error) {
	const op = "jobs.restart"
	job, err := s.Get(dbc, jobID)
	if err != nil {
		return nil, err
	}
	switch job.Status {
	case jobs.StatusFailed, jobs.StatusCanceled:
	default:
		return nil, apperr.Invalid(op, fmt.Sprintf("job %s is %s", jobID, job.Status))
	}
	now := time.Now().UTC()
	if err := s.repo.UpdateFields(dbc, jobID, map[string]interface{}{
		"status":        jobs.StatusQueued,
		"stage":         "queued",
		"progress":      0,
		"message":       "Queued",
		"error":         "",
		"attempts":      0,
		"last_error_at": nil,
		"locked_at":     nil,
		"updated_at":    now,
	}); err != nil {
		return nil, dberr.MapError(op, err)
	}
	job.Status = jobs.StatusQueued
	job.Stage = "queued"
	job.Progress = 0
	job.Message = "Queued"
	job.Error = ""
	job.Attempts = 0
	job.LastErrorAt = nil
	job.LockedAt = nil
	job.UpdatedAt = now
	if s.notify != nil {
		s.notify.JobCreated(job)
	}
	return job, nil
}
