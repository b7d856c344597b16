package api

import (
	httpSwagger "github.com/swaggo/http-swagger"

	"go-usage-stats/internal/api/handler"
	"go-usage-stats/pkg/router"
)

func RegisterRoutes(r *router.Router, h *handler.Handler) {
	// Endpoints read by the dashboard.
	r.GET("/get_hourly_usage", h.GetHourlyUsage)
	r.GET("/get_monthly_submissions", h.GetMonthlySubmissions)
	r.GET("/get_monthly_downloads", h.GetMonthlyDownloads)
	r.GET("/api/get_global_sum", h.GetGlobalSum)

	r.GET("/api/v1/tasks", h.ListTasks)
	// More specific routes first
	r.GET("/api/v1/tasks/*/history", h.GetTaskHistory)
	r.GET("/api/v1/tasks/*/rows", h.GetTaskRows)
	r.GET("/api/v1/runs", h.ListRuns)
	r.GET("/health", h.Health)

	r.GET("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")).ServeHTTP)
}
