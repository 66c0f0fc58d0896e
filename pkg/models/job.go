package models

import "strings"

// JobState is the client-side view of a backend extraction task.
type JobState string

const (
	JobPending   JobState = "pending"
	JobRunning   JobState = "running"
	JobSucceeded JobState = "succeeded"
	JobFailed    JobState = "failed"
)

// Terminal reports whether the server has finished the job.
func (s JobState) Terminal() bool {
	return s == JobSucceeded || s == JobFailed
}

// ParseJobState maps the task states reported by the server. Anything the
// client does not recognise is treated as still running.
func ParseJobState(raw string) JobState {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "PENDING":
		return JobPending
	case "SUCCESS":
		return JobSucceeded
	case "FAILURE":
		return JobFailed
	default:
		return JobRunning
	}
}

// Job is ephemeral: it only exists while a poller watches it.
type Job struct {
	ID      string
	OrderID int64
	State   JobState
	Error   string
}
