// Package handler serves the stored usage statistics over HTTP.
package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"go-usage-stats/internal/logging"
	"go-usage-stats/internal/model"
)

// StatsReader is the read side of the store.
type StatsReader interface {
	LatestTask(ctx context.Context, taskType model.TaskType) (*model.ExtractionTask, error)
	LatestTasks(ctx context.Context) ([]model.TaskSummary, error)
	TaskHistory(ctx context.Context, taskType model.TaskType, limit int) ([]*model.ExtractionTask, error)
	ListRuns(ctx context.Context, limit int) ([]*model.IngestRun, error)
	Health(ctx context.Context) error
}

// Handler holds the HTTP handlers. Concurrent reads of the same task type
// share one database query.
type Handler struct {
	store StatsReader
	group singleflight.Group
	log   *logrus.Entry
}

// New creates a Handler over store.
func New(store StatsReader) *Handler {
	return &Handler{store: store, log: logging.Component("api")}
}

// latest loads the current row of t, collapsing concurrent callers.
func (h *Handler) latest(ctx context.Context, t model.TaskType) (*model.ExtractionTask, error) {
	// Shared across callers, so one cancelled request must not fail the others.
	ctx = context.WithoutCancel(ctx)
	v, err, _ := h.group.Do("latest:"+string(t), func() (interface{}, error) {
		return h.store.LatestTask(ctx, t)
	})
	if err != nil {
		return nil, err
	}
	return v.(*model.ExtractionTask), nil
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// queryLimit parses ?limit=, falling back to def.
func queryLimit(r *http.Request, def int) (int, bool) {
	s := r.URL.Query().Get("limit")
	if s == "" {
		return def, true
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}
