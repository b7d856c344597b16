package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"go-usage-stats/internal/model"
)

// TaskOutcome is what one ingestion did for one task type.
type TaskOutcome struct {
	TaskType  model.TaskType `json:"task_type"`
	Outcome   string         `json:"outcome"`
	RowsAdded int            `json:"rows_added"`
}

// IngestResult summarises one run of an ingestion path.
type IngestResult struct {
	RunID     string        `json:"run_id"`
	Path      string        `json:"path"`
	StartedAt time.Time     `json:"started_at"`
	Tasks     []TaskOutcome `json:"tasks"`
}

// Wrote reports whether any task row was inserted.
func (r IngestResult) Wrote() bool {
	for _, t := range r.Tasks {
		if t.Outcome == model.RunAppended || t.Outcome == model.RunReplaced {
			return true
		}
	}
	return false
}

// differ returns the differencer for the feed of taskType.
func differ(taskType model.TaskType) func(csvText, marker string) (model.Delta, error) {
	if taskType.IsMonthly() {
		return DiffMonthly
	}
	return DiffHourly
}

// IngestMonthly fetches both monthly feeds concurrently and stores the new
// rows of each. Either both task rows are written or neither is.
func (i *Ingestor) IngestMonthly(ctx context.Context) (IngestResult, error) {
	res := i.newResult(model.PathMonthly)
	log := i.log.WithField("run_id", res.RunID).WithField("path", res.Path)

	var downloads, submissions string
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		text, err := i.fetchCSV(gctx, i.sources.MonthlyDownloadsURL())
		downloads = text
		return err
	})
	g.Go(func() error {
		text, err := i.fetchCSV(gctx, i.sources.MonthlySubmissionsURL())
		submissions = text
		return err
	})
	if err := g.Wait(); err != nil {
		return i.fail(ctx, res, err, model.TaskMonthlyDownloads, model.TaskMonthlySubmission)
	}

	var rows []*model.ExtractionTask
	for _, feed := range []struct {
		taskType model.TaskType
		text     string
	}{
		{model.TaskMonthlyDownloads, downloads},
		{model.TaskMonthlySubmission, submissions},
	} {
		task, outcome, err := i.prepare(ctx, res.RunID, feed.taskType, feed.text)
		if err != nil {
			return i.fail(ctx, res, err, model.TaskMonthlyDownloads, model.TaskMonthlySubmission)
		}
		res.Tasks = append(res.Tasks, outcome)
		if task != nil {
			rows = append(rows, task)
		}
	}

	if len(rows) > 0 {
		if err := i.store.InsertTasks(ctx, rows...); err != nil {
			return i.fail(ctx, res, fmt.Errorf("store monthly tasks: %w", err),
				model.TaskMonthlyDownloads, model.TaskMonthlySubmission)
		}
	}

	log.WithField("tasks", res.Tasks).Info("monthly ingestion finished")
	i.tracker.Record(ctx, res, nil)
	return res, nil
}

// IngestHourly fetches the hourly feed for the UTC date of now and stores
// its new rows.
func (i *Ingestor) IngestHourly(ctx context.Context, now time.Time) (IngestResult, error) {
	res := i.newResult(model.PathHourly)
	log := i.log.WithField("run_id", res.RunID).WithField("path", res.Path)

	text, err := i.fetchCSV(ctx, i.sources.HourlyURL(now))
	if err != nil {
		return i.fail(ctx, res, err, model.TaskHourlyConnection)
	}

	task, outcome, err := i.prepare(ctx, res.RunID, model.TaskHourlyConnection, text)
	if err != nil {
		return i.fail(ctx, res, err, model.TaskHourlyConnection)
	}
	if task != nil {
		if err := i.store.InsertTasks(ctx, task); err != nil {
			return i.fail(ctx, res, fmt.Errorf("store hourly task: %w", err), model.TaskHourlyConnection)
		}
	}
	res.Tasks = []TaskOutcome{outcome}

	log.WithField("tasks", res.Tasks).Info("hourly ingestion finished")
	i.tracker.Record(ctx, res, nil)
	return res, nil
}

// prepare diffs one feed against the stored document and builds the row to
// insert. A nil task means the feed had nothing new.
func (i *Ingestor) prepare(ctx context.Context, runID string, taskType model.TaskType, text string) (*model.ExtractionTask, TaskOutcome, error) {
	outcome := TaskOutcome{TaskType: taskType, Outcome: model.RunNoData}

	base, err := i.latestDocument(ctx, taskType)
	if err != nil {
		return nil, outcome, fmt.Errorf("load %s: %w", taskType, err)
	}
	marker, _ := base.LastKey()

	delta, err := differ(taskType)(text, marker)
	if err != nil {
		return nil, outcome, fmt.Errorf("diff %s: %w", taskType, err)
	}
	if delta.Empty() {
		i.log.WithField("task_type", taskType).WithField("marker", marker).Info("no new data")
		return nil, outcome, nil
	}

	doc, err := CSVToDocument(delta.CSV())
	if err != nil {
		return nil, outcome, fmt.Errorf("convert %s: %w", taskType, err)
	}

	result := doc
	outcome.Outcome = model.RunReplaced
	if delta.Mode == model.ModeAppend {
		if result, err = Merge(base, doc); err != nil {
			return nil, outcome, fmt.Errorf("merge %s: %w", taskType, err)
		}
		outcome.Outcome = model.RunAppended
	}
	outcome.RowsAdded = doc.Len()

	return &model.ExtractionTask{
		RunID:       runID,
		TaskType:    taskType,
		Status:      model.StatusSuccess,
		Result:      result,
		CreatedTime: i.now().UTC(),
	}, outcome, nil
}

// fetchCSV returns the body of a successful GET.
func (i *Ingestor) fetchCSV(ctx context.Context, url string) (string, error) {
	resp, err := i.fetcher.Fetch(ctx, url)
	if err != nil {
		return "", err
	}
	if !resp.OK() {
		return "", fmt.Errorf("%w: %s returned %d", ErrSourceNotOK, url, resp.StatusCode)
	}
	return resp.Text(), nil
}

func (i *Ingestor) newResult(path string) IngestResult {
	return IngestResult{RunID: uuid.NewString(), Path: path, StartedAt: i.now().UTC()}
}

// fail marks every task of the path failed, records the run and returns err.
func (i *Ingestor) fail(ctx context.Context, res IngestResult, err error, types ...model.TaskType) (IngestResult, error) {
	res.Tasks = res.Tasks[:0]
	for _, t := range types {
		res.Tasks = append(res.Tasks, TaskOutcome{TaskType: t, Outcome: model.RunFailed})
	}
	i.log.WithField("run_id", res.RunID).WithField("path", res.Path).WithError(err).Error("ingestion failed")
	i.tracker.Record(ctx, res, err)
	return res, err
}
