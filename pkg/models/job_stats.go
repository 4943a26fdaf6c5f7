package models

import "time"

// JobStats tracks run statistics for one named job. Only the job's own
// execution path writes these fields (single writer per job name).
type JobStats struct {
	Name          string        `json:"name"`
	Running       bool          `json:"running"`
	LastScheduled *time.Time    `json:"last_scheduled,omitempty"`
	LastStarted   *time.Time    `json:"last_started,omitempty"`
	LastCompleted *time.Time    `json:"last_completed,omitempty"`
	LastError     string        `json:"last_error,omitempty"`
	LastDuration  time.Duration `json:"last_duration_ns"`
	AvgDuration   time.Duration `json:"avg_duration_ns"`
	TotalRuns     int64         `json:"total_runs"`
}
