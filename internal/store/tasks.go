package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go-usage-stats/internal/model"
)

const taskColumns = `id, run_id, task_type, status, result, created_time`

// LatestTask returns the newest successful row of taskType.
func (s *Store) LatestTask(ctx context.Context, taskType model.TaskType) (*model.ExtractionTask, error) {
	row := s.db.QueryRowContext(ctx, s.rebind(`SELECT `+taskColumns+` FROM extraction_task
		WHERE task_type = ? AND status = ? ORDER BY id DESC LIMIT 1`), string(taskType), int(model.StatusSuccess))

	task, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", taskType, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("latest %s: %w", taskType, err)
	}
	return task, nil
}

// LatestTasks summarises the current row of every task type that has one.
func (s *Store) LatestTasks(ctx context.Context) ([]model.TaskSummary, error) {
	out := []model.TaskSummary{}
	for _, t := range model.AllTaskTypes() {
		task, err := s.LatestTask(ctx, t)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, task.Summary())
	}
	return out, nil
}

// TaskHistory returns up to limit rows of taskType, newest first.
func (s *Store) TaskHistory(ctx context.Context, taskType model.TaskType, limit int) ([]*model.ExtractionTask, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx, s.rebind(`SELECT `+taskColumns+` FROM extraction_task
		WHERE task_type = ? ORDER BY id DESC LIMIT ?`), string(taskType), limit)
	if err != nil {
		return nil, fmt.Errorf("history %s: %w", taskType, err)
	}
	defer rows.Close()

	var tasks []*model.ExtractionTask
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	return tasks, rows.Err()
}

// InsertTasks appends all tasks in one transaction and sets their IDs.
// Every result is validated first; an invalid one writes nothing.
func (s *Store) InsertTasks(ctx context.Context, tasks ...*model.ExtractionTask) error {
	if len(tasks) == 0 {
		return nil
	}
	results := make([]string, len(tasks))
	for i, t := range tasks {
		raw, err := encodeResult(t.Result)
		if err != nil {
			return fmt.Errorf("%s: %w", t.TaskType, err)
		}
		results[i] = raw
		if t.CreatedTime.IsZero() {
			t.CreatedTime = time.Now().UTC()
		}
	}

	query := s.rebind(`INSERT INTO extraction_task (run_id, task_type, status, result, created_time)
		VALUES (?, ?, ?, ?, ?)`)
	if s.dialect.returning {
		query += ` RETURNING id`
	}

	err := s.TransactionContext(ctx, func(tx *sql.Tx) error {
		for i, t := range tasks {
			args := []any{t.RunID, string(t.TaskType), int(t.Status), results[i], t.CreatedTime.UTC()}
			id, err := s.insert(ctx, tx, query, args...)
			if err != nil {
				return fmt.Errorf("failed to insert %s task: %w", t.TaskType, err)
			}
			t.ID = id
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.log.WithField("tasks", len(tasks)).Debug("task rows inserted")
	return nil
}

// insert runs an INSERT and returns the generated id.
func (s *Store) insert(ctx context.Context, tx *sql.Tx, query string, args ...any) (int64, error) {
	if s.dialect.returning {
		var id int64
		err := tx.QueryRowContext(ctx, query, args...).Scan(&id)
		return id, err
	}
	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTask(sc scanner) (*model.ExtractionTask, error) {
	var (
		t        model.ExtractionTask
		taskType string
		status   int
		raw      string
	)
	if err := sc.Scan(&t.ID, &t.RunID, &taskType, &status, &raw, &t.CreatedTime); err != nil {
		return nil, err
	}
	doc, err := decodeResult(raw)
	if err != nil {
		return nil, fmt.Errorf("task %d: %w", t.ID, err)
	}
	t.TaskType = model.TaskType(taskType)
	t.Status = model.TaskStatus(status)
	t.Result = doc
	t.CreatedTime = t.CreatedTime.UTC()
	return &t, nil
}
