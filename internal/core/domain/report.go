package domain

import "time"

// TaskStatus is the settled outcome of one scheduled job.
type TaskStatus string

const (
	TaskStatusOK    TaskStatus = "ok"
	TaskStatusError TaskStatus = "error"
)

// TaskOutcome is one entry of a run report. Exactly one of Result or Error is set.
type TaskOutcome struct {
	Task       string     `json:"task"`
	Status     TaskStatus `json:"status"`
	Result     any        `json:"result,omitempty"`
	Error      string     `json:"error,omitempty"`
	DurationMS int64      `json:"duration_ms"`
}

// RunReport is the aggregated output of one scheduler invocation.
type RunReport struct {
	Timestamp  time.Time     `json:"timestamp"`
	DurationMS int64         `json:"duration_ms"`
	Summary    []TaskOutcome `json:"summary"`
}

// HasErrors returns true if any task settled with an error.
func (r *RunReport) HasErrors() bool {
	for _, o := range r.Summary {
		if o.Status == TaskStatusError {
			return true
		}
	}
	return false
}

// Outcome returns the entry for the named task.
func (r *RunReport) Outcome(task string) (TaskOutcome, bool) {
	for _, o := range r.Summary {
		if o.Task == task {
			return o, true
		}
	}
	return TaskOutcome{}, false
}
