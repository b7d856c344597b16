package store

import (
	"context"
	"database/sql"
	"fmt"

	"go-usage-stats/internal/model"
)

// SaveRun appends one ingest_run entry and sets its ID.
func (s *Store) SaveRun(ctx context.Context, run *model.IngestRun) error {
	query := s.rebind(`INSERT INTO ingest_run
		(run_id, path, task_type, outcome, rows_added, error, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if s.dialect.returning {
		query += ` RETURNING id`
	}

	return s.TransactionContext(ctx, func(tx *sql.Tx) error {
		id, err := s.insert(ctx, tx, query,
			run.RunID,
			run.Path,
			string(run.TaskType),
			run.Outcome,
			run.RowsAdded,
			run.Error,
			run.StartedAt.UTC(),
			run.FinishedAt.UTC(),
		)
		if err != nil {
			return fmt.Errorf("failed to insert ingest run: %w", err)
		}
		run.ID = id
		return nil
	})
}

// ListRuns returns up to limit audit entries, newest first.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]*model.IngestRun, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx, s.rebind(`SELECT id, run_id, path, task_type, outcome, rows_added, error, started_at, finished_at
		FROM ingest_run ORDER BY id DESC LIMIT ?`), limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	runs := []*model.IngestRun{}
	for rows.Next() {
		var (
			r        model.IngestRun
			taskType string
		)
		if err := rows.Scan(&r.ID, &r.RunID, &r.Path, &taskType, &r.Outcome, &r.RowsAdded, &r.Error, &r.StartedAt, &r.FinishedAt); err != nil {
			return nil, err
		}
		r.TaskType = model.TaskType(taskType)
		r.StartedAt = r.StartedAt.UTC()
		r.FinishedAt = r.FinishedAt.UTC()
		runs = append(runs, &r)
	}
	return runs, rows.Err()
}
