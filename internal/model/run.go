package model

import "time"

// Ingestion paths driven by the scheduler.
const (
	PathMonthly = "monthly"
	PathHourly  = "hourly"
)

// Run outcomes recorded in the ingest_run log.
const (
	RunAppended = "appended"
	RunReplaced = "replaced"
	RunNoData   = "no_data"
	RunFailed   = "failed"
)

// IngestRun is one audit-log entry per task type per ingestion cycle.
type IngestRun struct {
	ID         int64     `json:"id"`
	RunID      string    `json:"run_id"`
	Path       string    `json:"path"`
	TaskType   TaskType  `json:"task_type"`
	Outcome    string    `json:"outcome"`
	RowsAdded  int       `json:"rows_added"`
	Error      string    `json:"error,omitempty"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}
