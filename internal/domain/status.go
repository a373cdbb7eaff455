package domain

import "time"

// Run stages reported by RunStatus.Stage besides the pipeline stage names.
const (
	StageIdle   = "idle"
	StageDone   = "done"
	StageFailed = "failed"
)

// RunStatus is a snapshot of a pipeline run.
type RunStatus struct {
	Stage      string     `json:"stage"`
	Fires      int        `json:"fires"`
	StartedAt  *time.Time `json:"started_at,omitempty"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	Error      string     `json:"error,omitempty"`
}
