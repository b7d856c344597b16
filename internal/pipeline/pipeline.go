// Package pipeline fetches the usage statistics CSV feeds, works out which
// rows are new, and stores the merged column documents as task rows.
package pipeline

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"go-usage-stats/internal/config"
	"go-usage-stats/internal/logging"
	"go-usage-stats/internal/model"
	"go-usage-stats/internal/store"
)

// TaskStore is the persistence the ingestion paths need.
type TaskStore interface {
	// LatestTask returns the newest successful row of a task type or
	// store.ErrNotFound.
	LatestTask(ctx context.Context, taskType model.TaskType) (*model.ExtractionTask, error)

	// InsertTasks appends rows atomically: all of them or none.
	InsertTasks(ctx context.Context, tasks ...*model.ExtractionTask) error
}

// Ingestor runs the monthly and hourly ingestion paths.
type Ingestor struct {
	fetcher CSVFetcher
	store   TaskStore
	sources config.SourceConfig
	tracker *RunTracker
	now     func() time.Time
	log     *logrus.Entry
}

// NewIngestor wires an Ingestor. tracker may be nil.
func NewIngestor(fetcher CSVFetcher, st TaskStore, sources config.SourceConfig, tracker *RunTracker) *Ingestor {
	return &Ingestor{
		fetcher: fetcher,
		store:   st,
		sources: sources,
		tracker: tracker,
		now:     time.Now,
		log:     logging.Component("ingestor"),
	}
}

// latestDocument returns the stored document of taskType, the zero
// Document when none is stored.
func (i *Ingestor) latestDocument(ctx context.Context, taskType model.TaskType) (model.Document, error) {
	task, err := i.store.LatestTask(ctx, taskType)
	if errors.Is(err, store.ErrNotFound) {
		return model.Document{}, nil
	}
	if err != nil {
		return model.Document{}, err
	}
	return task.Result, nil
}
