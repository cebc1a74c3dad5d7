package models

import "time"

// JobStatus is the lifecycle state of a conversion job.
// Transitions are Queued -> Processing -> {Done | Error}, exactly once.
type JobStatus string

const (
	JobQueued     JobStatus = "queued"
	JobProcessing JobStatus = "processing"
	JobDone       JobStatus = "done"
	JobError      JobStatus = "error"
)

// Terminal reports whether s is a final state.
func (s JobStatus) Terminal() bool {
	return s == JobDone || s == JobError
}

// JobView is the immutable snapshot of a job returned to status pollers.
type JobView struct {
	ID          string    `json:"job_id"`
	Status      JobStatus `json:"status"`
	Percent     int       `json:"percent"`
	Message     string    `json:"message,omitempty"`
	ResultFile  string    `json:"filename,omitempty"`
	ErrorDetail string    `json:"error,omitempty"`
	CreatedAt   time.Time `json:"-"`
}
