package handler

import (
	"errors"
	"net/http"

	"go-usage-stats/internal/model"
	"go-usage-stats/internal/pipeline"
	"go-usage-stats/internal/store"
)

// GetHourlyUsage returns the current hourly connection document
// @Summary Hourly connection counts
// @Description Column-oriented document of today's hourly connection counts per node. Empty object when nothing is stored.
// @Tags stats
// @Produce json
// @Success 200 {object} map[string]interface{} "Column document"
// @Failure 502 {object} map[string]interface{} "Store unavailable"
// @Router /get_hourly_usage [get]
func (h *Handler) GetHourlyUsage(w http.ResponseWriter, r *http.Request) {
	h.serveDocument(w, r, model.TaskHourlyConnection)
}

// GetMonthlySubmissions returns the current monthly submissions document
// @Summary Monthly submissions
// @Description Column-oriented document of monthly submission counts. Empty object when nothing is stored.
// @Tags stats
// @Produce json
// @Success 200 {object} map[string]interface{} "Column document"
// @Failure 502 {object} map[string]interface{} "Store unavailable"
// @Router /get_monthly_submissions [get]
func (h *Handler) GetMonthlySubmissions(w http.ResponseWriter, r *http.Request) {
	h.serveDocument(w, r, model.TaskMonthlySubmission)
}

// GetMonthlyDownloads returns the current monthly downloads document
// @Summary Monthly downloads
// @Description Column-oriented document of monthly download counts. Empty object when nothing is stored.
// @Tags stats
// @Produce json
// @Success 200 {object} map[string]interface{} "Column document"
// @Failure 502 {object} map[string]interface{} "Store unavailable"
// @Router /get_monthly_downloads [get]
func (h *Handler) GetMonthlyDownloads(w http.ResponseWriter, r *http.Request) {
	h.serveDocument(w, r, model.TaskMonthlyDownloads)
}

func isNotFound(err error) bool { return errors.Is(err, store.ErrNotFound) }

func (h *Handler) serveDocument(w http.ResponseWriter, r *http.Request, t model.TaskType) {
	task, err := h.latest(r.Context(), t)
	if isNotFound(err) {
		writeJSON(w, http.StatusOK, map[string]interface{}{})
		return
	}
	if err != nil {
		h.log.WithField("task_type", t).WithError(err).Error("failed to load document")
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, task.Result)
}

// GetGlobalSum sums a task's statistics per time bucket
// @Summary Global sum by time group
// @Description Sum of every statistic column of the current document, bucketed by year, month, day or hour of the key.
// @Tags stats
// @Produce json
// @Param task query string true "Task type (alias: model)" Enums(hourly_connection, monthly_downloads, monthly_submission)
// @Param time_group query string true "Bucket size" Enums(year, month, day, hour)
// @Success 200 {array} pipeline.GroupSum
// @Failure 400 {object} map[string]interface{} "Invalid parameters"
// @Failure 502 {object} map[string]interface{} "Store unavailable"
// @Router /api/get_global_sum [get]
func (h *Handler) GetGlobalSum(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	name := q.Get("task")
	if name == "" {
		name = q.Get("model")
	}
	group := q.Get("time_group")

	if name == "" || group == "" {
		writeError(w, http.StatusBadRequest, "Missing required parameters")
		return
	}
	if !pipeline.ValidTimeGroup(group) {
		writeError(w, http.StatusBadRequest, "Invalid time_group, use year, month, or day")
		return
	}
	t, err := model.ParseTaskType(name)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid task type: "+name)
		return
	}

	task, err := h.latest(r.Context(), t)
	if isNotFound(err) {
		writeJSON(w, http.StatusOK, []pipeline.GroupSum{})
		return
	}
	if err != nil {
		h.log.WithField("task_type", t).WithError(err).Error("failed to load document")
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	sums, err := pipeline.SumByTimeGroup(task.Result, group)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, sums)
}
