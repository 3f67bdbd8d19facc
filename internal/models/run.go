package models

import "time"

// RunStatus is the lifecycle status of a recorded run
type RunStatus string

// RunStatus constants
const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// RunRecord is the persisted history entry of one analysis run
type RunRecord struct {
	ID             string              `json:"id"`
	Status         RunStatus           `json:"status"`
	Variant        AnalysisVariant     `json:"variant"`
	Request        AnalysisRequest     `json:"request"`
	Report         *ConsolidatedReport `json:"report,omitempty"`
	Error          string              `json:"error,omitempty"`
	LastPercentage int                 `json:"last_percentage"`
	LastMessage    string              `json:"last_message"`
	StartedAt      time.Time           `json:"started_at"`
	FinishedAt     time.Time           `json:"finished_at,omitempty"`
}

// Duration returns how long the run took, or has been running
func (r *RunRecord) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return time.Since(r.StartedAt)
	}
	return r.FinishedAt.Sub(r.StartedAt)
}
