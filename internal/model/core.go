package model

import (
	"fmt"
	"time"
)

// TaskType names an ingested statistic.
type TaskType string

const (
	TaskHourlyConnection  TaskType = "hourly_connection"
	TaskMonthlyDownloads  TaskType = "monthly_downloads"
	TaskMonthlySubmission TaskType = "monthly_submission"
)

// AllTaskTypes returns every task type in a stable order.
func AllTaskTypes() []TaskType {
	return []TaskType{TaskHourlyConnection, TaskMonthlyDownloads, TaskMonthlySubmission}
}

// ParseTaskType validates s against the fixed enum.
func ParseTaskType(s string) (TaskType, error) {
	for _, t := range AllTaskTypes() {
		if string(t) == s {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown task type %q", s)
}

// IsMonthly reports whether the feed is keyed by month.
func (t TaskType) IsMonthly() bool {
	return t == TaskMonthlyDownloads || t == TaskMonthlySubmission
}

// TaskStatus is the success flag stored with every task row.
type TaskStatus int

const (
	StatusFail    TaskStatus = 0
	StatusSuccess TaskStatus = 1
)

// ExtractionTask is one append-only row of the extraction_task table.
// Only the newest successful row per TaskType is current.
type ExtractionTask struct {
	ID          int64      `json:"id"`
	RunID       string     `json:"run_id"`
	TaskType    TaskType   `json:"task_type"`
	Status      TaskStatus `json:"status"`
	Result      Document   `json:"result"`
	CreatedTime time.Time  `json:"created_time"`
}

// TaskSummary is an ExtractionTask without its result payload.
type TaskSummary struct {
	ID          int64      `json:"id"`
	RunID       string     `json:"run_id"`
	TaskType    TaskType   `json:"task_type"`
	Status      TaskStatus `json:"status"`
	Rows        int        `json:"rows"`
	LastKey     string     `json:"last_key,omitempty"`
	CreatedTime time.Time  `json:"created_time"`
}

// Summary drops the result and keeps its shape.
func (t *ExtractionTask) Summary() TaskSummary {
	last, _ := t.Result.LastKey()
	return TaskSummary{
		ID:          t.ID,
		RunID:       t.RunID,
		TaskType:    t.TaskType,
		Status:      t.Status,
		Rows:        t.Result.Len(),
		LastKey:     last,
		CreatedTime: t.CreatedTime,
	}
}
