package jobs

import (
	"time"

	"github.com/google/uuid"
)

type JobEventKind string

const (
	JobEventCreated   JobEventKind = "created"
	JobEventProgress  JobEventKind = "progress"
	JobEventFailed    JobEventKind = "failed"
	JobEventSucceeded JobEventKind = "succeeded"
	JobEventCanceled  JobEventKind = "canceled"
)

// JobRunEvent is the message published to external progress observers.
// It is a snapshot of the job_run row at the moment of the transition.
type JobRunEvent struct {
	JobID      uuid.UUID    `json:"job_id"`
	JobType    string       `json:"job_type"`
	EntityType string       `json:"entity_type,omitempty"`
	Kind       JobEventKind `json:"kind"`
	Status     string       `json:"status"`
	Stage      string       `json:"stage"`
	Progress   int          `json:"progress"`
	Message    string       `json:"message,omitempty"`
	Error      string       `json:"error,omitempty"`
	At         time.Time    `json:"at"`
}

func NewJobRunEvent(kind JobEventKind, job *JobRun) JobRunEvent {
	ev := JobRunEvent{Kind: kind, At: time.Now().UTC()}
	if job == nil {
		return ev
	}
	ev.JobID = job.ID
	ev.JobType = job.JobType
	ev.EntityType = job.EntityType
	ev.Status = job.Status
	ev.Stage = job.Stage
	ev.Progress = job.Progress
	ev.Message = job.Message
	ev.Error = job.Error
	return ev
}
