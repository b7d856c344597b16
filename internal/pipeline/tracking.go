package pipeline

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"go-usage-stats/internal/logging"
	"go-usage-stats/internal/model"
)

// RunStore persists the ingestion audit log.
type RunStore interface {
	SaveRun(ctx context.Context, run *model.IngestRun) error
}

// RunTracker writes one ingest_run entry per task type per cycle. A nil
// tracker, or one without a store, only logs.
type RunTracker struct {
	store RunStore
	now   func() time.Time
	log   *logrus.Entry
}

// NewRunTracker creates a tracker over store.
func NewRunTracker(store RunStore) *RunTracker {
	return &RunTracker{
		store: store,
		now:   time.Now,
		log:   logging.Component("tracker"),
	}
}

// Record stores the outcome of a finished run. Tracking failures are
// logged and never fail the ingestion.
func (t *RunTracker) Record(ctx context.Context, res IngestResult, runErr error) {
	if t == nil || t.store == nil {
		return
	}

	finished := t.now().UTC()
	errText := ""
	if runErr != nil {
		errText = runErr.Error()
	}
	for _, task := range res.Tasks {
		run := &model.IngestRun{
			RunID:      res.RunID,
			Path:       res.Path,
			TaskType:   task.TaskType,
			Outcome:    task.Outcome,
			RowsAdded:  task.RowsAdded,
			Error:      errText,
			StartedAt:  res.StartedAt,
			FinishedAt: finished,
		}
		if err := t.store.SaveRun(ctx, run); err != nil {
			t.log.WithFields(logrus.Fields{
				"run_id":    res.RunID,
				"task_type": task.TaskType,
			}).WithError(err).Warn("failed to record ingest run")
		}
	}
}
