package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"go-usage-stats/internal/logging"
	"go-usage-stats/internal/model"
	"go-usage-stats/internal/store"
	"go-usage-stats/pkg/utils"
)

// Export formats.
const (
	FormatJSON = "json"
	FormatCSV  = "csv"
)

// ExportResult describes one file written or read by Export/Seed.
type ExportResult struct {
	TaskType   model.TaskType `json:"task_type"`
	Path       string         `json:"path"`
	Rows       int            `json:"rows"`
	ExportedAt time.Time      `json:"exported_at"`
}

// ExportDocuments writes the current document of every task type to
// <dir>/<task_type>.json (or .csv). Task types with nothing stored are
// skipped.
func ExportDocuments(ctx context.Context, st TaskStore, om *utils.OutputManager, format string) ([]ExportResult, error) {
	if format != FormatJSON && format != FormatCSV {
		return nil, fmt.Errorf("unsupported export format %q", format)
	}
	if err := om.EnsureOutputDirExists(); err != nil {
		return nil, err
	}
	log := logging.Component("export")

	var results []ExportResult
	for _, t := range model.AllTaskTypes() {
		task, err := st.LatestTask(ctx, t)
		if errors.Is(err, store.ErrNotFound) {
			log.WithField("task_type", t).Info("nothing stored, skipping")
			continue
		}
		if err != nil {
			return results, fmt.Errorf("load %s: %w", t, err)
		}

		var data []byte
		if format == FormatCSV {
			text, err := DocumentToCSV(task.Result)
			if err != nil {
				return results, fmt.Errorf("render %s: %w", t, err)
			}
			data = []byte(text)
		} else if data, err = json.Marshal(task.Result); err != nil {
			return results, fmt.Errorf("encode %s: %w", t, err)
		}

		path := om.GetOutputFilePath(string(t), "."+format)
		if err := om.WriteFile(path, data); err != nil {
			return results, fmt.Errorf("write %s: %w", path, err)
		}
		results = append(results, ExportResult{TaskType: t, Path: path, Rows: task.Result.Len(), ExportedAt: time.Now().UTC()})
		log.WithField("task_type", t).WithField("path", path).Info("exported")
	}
	return results, nil
}

// SeedDocuments performs the initial bulk load from <dir>/<task_type>.json
// or .csv for every task type that has no stored row yet. All seeded rows
// are inserted in one transaction.
func SeedDocuments(ctx context.Context, st TaskStore, om *utils.OutputManager) ([]ExportResult, error) {
	log := logging.Component("seed")
	runID := uuid.NewString()

	var (
		tasks   []*model.ExtractionTask
		results []ExportResult
	)
	for _, t := range model.AllTaskTypes() {
		_, err := st.LatestTask(ctx, t)
		if err == nil {
			log.WithField("task_type", t).Info("already stored, not seeding")
			continue
		}
		if !errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("check %s: %w", t, err)
		}

		doc, path, err := readSeedFile(om, t)
		if err != nil {
			return nil, err
		}
		if path == "" {
			continue
		}
		tasks = append(tasks, &model.ExtractionTask{
			RunID:       runID,
			TaskType:    t,
			Status:      model.StatusSuccess,
			Result:      doc,
			CreatedTime: time.Now().UTC(),
		})
		results = append(results, ExportResult{TaskType: t, Path: path, Rows: doc.Len(), ExportedAt: time.Now().UTC()})
	}

	if len(tasks) == 0 {
		return nil, nil
	}
	if err := st.InsertTasks(ctx, tasks...); err != nil {
		return nil, fmt.Errorf("store seed documents: %w", err)
	}
	log.WithField("run_id", runID).WithField("tasks", len(tasks)).Info("seeded")
	return results, nil
}

// readSeedFile loads the JSON file of t, falling back to CSV. An empty path
// means neither exists.
func readSeedFile(om *utils.OutputManager, t model.TaskType) (model.Document, string, error) {
	for _, ext := range []string{"." + FormatJSON, "." + FormatCSV} {
		path := om.GetOutputFilePath(string(t), ext)
		if !om.Exists(path) {
			continue
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return model.Document{}, "", err
		}

		var doc model.Document
		switch om.GetFileType(path) {
		case FormatJSON:
			if err := json.Unmarshal(data, &doc); err != nil {
				return model.Document{}, "", fmt.Errorf("decode %s: %w", path, err)
			}
		case FormatCSV:
			if doc, err = CSVToDocument(string(data)); err != nil {
				return model.Document{}, "", fmt.Errorf("%s: %w", path, err)
			}
		}
		if err := doc.Validate(); err != nil {
			return model.Document{}, "", fmt.Errorf("%s: %w", path, err)
		}
		return doc, path, nil
	}
	return model.Document{}, "", nil
}
