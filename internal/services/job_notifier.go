package services

import (
	"context"
	"time"

	"github.com/yungbote/coursecatalog-backend/internal/clients/redis"
	types "github.com/yungbote/coursecatalog-backend/internal/domain"
	"github.com/yungbote/coursecatalog-backend/internal/domain/jobs"
	"github.com/yungbote/coursecatalog-backend/internal/pkg/ctxutil"
	"github.com/yungbote/coursecatalog-backend/internal/pkg/logger"
)

// JobNotifier is the side channel for job lifecycle transitions. Delivery is
// best-effort and never fails the job.
type JobNotifier interface {
	JobCreated(job *types.JobRun)
	JobProgress(job *types.JobRun, stage string, progress int, message string)
	JobFailed(job *types.JobRun, stage string, errorMessage string)
	JobDone(job *types.JobRun)
	JobCanceled(job *types.JobRun)
}

type logJobNotifier struct {
	log *logger.Logger
}

// NewLogJobNotifier writes every transition to the structured log.
func NewLogJobNotifier(baseLog *logger.Logger) JobNotifier {
	return &logJobNotifier{log: baseLog.With("service", "JobNotifier")}
}

func (n *logJobNotifier) JobCreated(job *types.JobRun) {
	n.log.Info("job created", "job_id", job.ID, "job_type", job.JobType)
}

func (n *logJobNotifier) JobProgress(job *types.JobRun, stage string, progress int, message string) {
	n.log.Debug("job progress", "job_id", job.ID, "job_type", job.JobType, "stage", stage, "progress", progress, "message", message)
}

func (n *logJobNotifier) JobFailed(job *types.JobRun, stage string, errorMessage string) {
	n.log.Warn("job failed", "job_id", job.ID, "job_type", job.JobType, "stage", stage, "error", errorMessage)
}

func (n *logJobNotifier) JobDone(job *types.JobRun) {
	n.log.Info("job succeeded", "job_id", job.ID, "job_type", job.JobType)
}

func (n *logJobNotifier) JobCanceled(job *types.JobRun) {
	n.log.Info("job canceled", "job_id", job.ID, "job_type", job.JobType)
}

type redisJobNotifier struct {
	log     *logger.Logger
	events  redis.JobEvents
	timeout time.Duration
}

// NewRedisJobNotifier publishes every transition as a JobRunEvent.
func NewRedisJobNotifier(baseLog *logger.Logger, events redis.JobEvents) JobNotifier {
	return &redisJobNotifier{
		log:     baseLog.With("service", "RedisJobNotifier"),
		events:  events,
		timeout: 2 * time.Second,
	}
}

func (n *redisJobNotifier) publish(kind types.JobEventKind, job *types.JobRun) {
	if n.events == nil || job == nil {
		return
	}
	ctx, cancel := ctxutil.Bounded(context.Background(), n.timeout)
	defer cancel()
	if err := n.events.Publish(ctx, jobs.NewJobRunEvent(kind, job)); err != nil {
		n.log.Warn("publish job event failed", "job_id", job.ID, "kind", kind, "error", err)
	}
}

func (n *redisJobNotifier) JobCreated(job *types.JobRun) { n.publish(jobs.JobEventCreated, job) }

func (n *redisJobNotifier) JobProgress(job *types.JobRun, stage string, progress int, message string) {
	n.publish(jobs.JobEventProgress, job)
}

func (n *redisJobNotifier) JobFailed(job *types.JobRun, stage string, errorMessage string) {
	n.publish(jobs.JobEventFailed, job)
}

func (n *redisJobNotifier) JobDone(job *types.JobRun) { n.publish(jobs.JobEventSucceeded, job) }

func (n *redisJobNotifier) JobCanceled(job *types.JobRun) { n.publish(jobs.JobEventCanceled, job) }

type multiJobNotifier []JobNotifier

// NewMultiJobNotifier fans out to every non-nil notifier in order.
func NewMultiJobNotifier(notifiers ...JobNotifier) JobNotifier {
	out := make(multiJobNotifier, 0, len(notifiers))
	for _, n := range notifiers {
		if n != nil {
			out = append(out, n)
		}
	}
	return out
}

func (m multiJobNotifier) JobCreated(job *types.JobRun) {
	for _, n := range m {
		n.JobCreated(job)
	}
}

func (m multiJobNotifier) JobProgress(job *types.JobRun, stage string, progress int, message string) {
	for _, n := range m {
		n.JobProgress(job, stage, progress, message)
	}
}

func (m multiJobNotifier) JobFailed(job *types.JobRun, stage string, errorMessage string) {
	for _, n := range m {
		n.JobFailed(job, stage, errorMessage)
	}
}

func (m multiJobNotifier) JobDone(job *types.JobRun) {
	for _, n := range m {
		n.JobDone(job)
	}
}

func (m multiJobNotifier) JobCanceled(job *types.JobRun) {
	for _, n := range m {
		n.JobCanceled(job)
	}
}
