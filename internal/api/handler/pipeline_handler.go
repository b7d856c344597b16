package handler

import (
	"net/http"
	"strings"

	"go-usage-stats/internal/model"
)

const defaultLimit = 100

// ListTasks returns the current row of every task type
// @Summary List current tasks
// @Description Summary (no payload) of the newest successful row per task type
// @Tags tasks
// @Produce json
// @Success 200 {object} map[string]interface{} "Task summaries"
// @Failure 502 {object} map[string]interface{} "Store unavailable"
// @Router /api/v1/tasks [get]
func (h *Handler) ListTasks(w http.ResponseWriter, r *http.Request) {
	tasks, err := h.store.LatestTasks(r.Context())
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"tasks": tasks,
		"count": len(tasks),
	})
}

// GetTaskHistory lists stored rows of one task type
// @Summary Task history
// @Description Append-only row history of a task type, newest first, without payloads
// @Tags tasks
// @Produce json
// @Param type path string true "Task type"
// @Param limit query int false "Maximum rows" default(100)
// @Success 200 {object} map[string]interface{} "Task summaries"
// @Failure 400 {object} map[string]interface{} "Invalid task type or limit"
// @Failure 502 {object} map[string]interface{} "Store unavailable"
// @Router /api/v1/tasks/{type}/history [get]
func (h *Handler) GetTaskHistory(w http.ResponseWriter, r *http.Request) {
	t, ok := taskTypeFromPath(w, r.URL.Path, "/history")
	if !ok {
		return
	}
	limit, ok := queryLimit(r, defaultLimit)
	if !ok {
		writeError(w, http.StatusBadRequest, "limit must be a positive integer")
		return
	}

	tasks, err := h.store.TaskHistory(r.Context(), t, limit)
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	summaries := make([]model.TaskSummary, 0, len(tasks))
	for _, task := range tasks {
		summaries = append(summaries, task.Summary())
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"task_type": t,
		"history":   summaries,
		"count":     len(summaries),
	})
}

// GetTaskRows returns the latest rows of the current document
// @Summary Task rows
// @Description Most recent rows of the current document of a task type, in column order
// @Tags tasks
// @Produce json
// @Param type path string true "Task type"
// @Param limit query int false "Maximum rows" default(100)
// @Success 200 {object} map[string]interface{} "Rows"
// @Failure 400 {object} map[string]interface{} "Invalid task type or limit"
// @Failure 502 {object} map[string]interface{} "Store unavailable"
// @Router /api/v1/tasks/{type}/rows [get]
func (h *Handler) GetTaskRows(w http.ResponseWriter, r *http.Request) {
	t, ok := taskTypeFromPath(w, r.URL.Path, "/rows")
	if !ok {
		return
	}
	limit, ok := queryLimit(r, defaultLimit)
	if !ok {
		writeError(w, http.StatusBadRequest, "limit must be a positive integer")
		return
	}

	resp := map[string]interface{}{
		"task_type": t,
		"columns":   []string{},
		"rows":      [][]any{},
		"count":     0,
	}
	task, err := h.latest(r.Context(), t)
	if err != nil && !isNotFound(err) {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	if err == nil {
		rows := task.Result.Rows()
		if len(rows) > limit {
			rows = rows[len(rows)-limit:]
		}
		resp["columns"] = task.Result.Columns()
		resp["rows"] = rows
		resp["count"] = len(rows)
		resp["run_id"] = task.RunID
	}
	writeJSON(w, http.StatusOK, resp)
}

// ListRuns returns the ingestion audit log
// @Summary Ingestion runs
// @Description One entry per task type per ingestion cycle, newest first
// @Tags runs
// @Produce json
// @Param limit query int false "Maximum entries" default(100)
// @Success 200 {object} map[string]interface{} "Runs"
// @Failure 400 {object} map[string]interface{} "Invalid limit"
// @Failure 502 {object} map[string]interface{} "Store unavailable"
// @Router /api/v1/runs [get]
func (h *Handler) ListRuns(w http.ResponseWriter, r *http.Request) {
	limit, ok := queryLimit(r, defaultLimit)
	if !ok {
		writeError(w, http.StatusBadRequest, "limit must be a positive integer")
		return
	}
	runs, err := h.store.ListRuns(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"runs":  runs,
		"count": len(runs),
	})
}

// Health reports database connectivity
// @Summary Health check
// @Tags health
// @Produce json
// @Success 200 {object} map[string]interface{} "ok"
// @Failure 503 {object} map[string]interface{} "Database unreachable"
// @Router /health [get]
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Health(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// taskTypeFromPath extracts {type} from /api/v1/tasks/{type}<suffix>,
// writing a 400 when it is not a known task type.
func taskTypeFromPath(w http.ResponseWriter, path, suffix string) (model.TaskType, bool) {
	name := strings.TrimPrefix(path, "/api/v1/tasks/")
	name = strings.TrimSuffix(name, suffix)
	t, err := model.ParseTaskType(name)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return "", false
	}
	return t, true
}
