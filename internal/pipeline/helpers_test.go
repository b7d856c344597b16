package pipeline

import (
	"context"
	"errors"
	"sync"
	"testing"

	"go-usage-stats/internal/config"
	"go-usage-stats/internal/model"
	"go-usage-stats/internal/store"
)

// memStore is an in-memory TaskStore and RunStore.
type memStore struct {
	mu        sync.Mutex
	tasks     []*model.ExtractionTask
	runs      []*model.IngestRun
	inserts   int
	insertErr error
}

func (m *memStore) LatestTask(_ context.Context, t model.TaskType) (*model.ExtractionTask, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.tasks) - 1; i >= 0; i-- {
		if m.tasks[i].TaskType == t && m.tasks[i].Status == model.StatusSuccess {
			cp := *m.tasks[i]
			cp.Result = cp.Result.Clone()
			return &cp, nil
		}
	}
	return nil, store.ErrNotFound
}

func (m *memStore) InsertTasks(_ context.Context, tasks ...*model.ExtractionTask) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.insertErr != nil {
		return m.insertErr
	}
	m.inserts++
	for _, t := range tasks {
		t.ID = int64(len(m.tasks) + 1)
		m.tasks = append(m.tasks, t)
	}
	return nil
}

func (m *memStore) SaveRun(_ context.Context, run *model.IngestRun) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	run.ID = int64(len(m.runs) + 1)
	m.runs = append(m.runs, run)
	return nil
}

func (m *memStore) rowCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.tasks)
}

// seed stores doc as the current document of t.
func (m *memStore) seed(t *testing.T, taskType model.TaskType, doc model.Document) {
	t.Helper()
	if err := m.InsertTasks(context.Background(), &model.ExtractionTask{
		TaskType: taskType, Status: model.StatusSuccess, Result: doc,
	}); err != nil {
		t.Fatal(err)
	}
	m.inserts = 0
}

// stubFetcher answers from a URL map.
type stubFetcher struct {
	mu        sync.Mutex
	responses map[string]*FetchResponse
	errs      map[string]error
	calls     []string
}

func (f *stubFetcher) Fetch(_ context.Context, url string) (*FetchResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, url)
	if err, ok := f.errs[url]; ok {
		return nil, err
	}
	if r, ok := f.responses[url]; ok {
		return r, nil
	}
	return nil, errors.New("no stub for " + url)
}

func testSources() config.SourceConfig {
	s := config.Default().Source
	s.BaseURL = "http://stats.test"
	return s
}

func ok(body string) *FetchResponse {
	return &FetchResponse{StatusCode: 200, Body: []byte(body)}
}

func mustDoc(t *testing.T, columns []string, rows ...[]any) model.Document {
	t.Helper()
	d, err := model.DocumentFromRows(columns, rows...)
	if err != nil {
		t.Fatal(err)
	}
	return d
}
