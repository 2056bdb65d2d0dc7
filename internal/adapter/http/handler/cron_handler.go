package handler

import (
	"net/http"

	"condo-automation/internal/core/domain"
	"condo-automation/internal/core/ports"
	"condo-automation/pkg/response"

	"github.com/gin-gonic/gin"
)

// CronHandler exposes the scheduler to external cron triggers.
type CronHandler struct {
	scheduler ports.SchedulerService
}

// NewCronHandler creates a new CronHandler.
func NewCronHandler(scheduler ports.SchedulerService) *CronHandler {
	return &CronHandler{scheduler: scheduler}
}

// RunAll handles GET|POST /api/v1/cron/run. Job failures are reported inside the
// 200 body; only authentication ever fails the request. The report is the whole
// body, not wrapped in the response envelope.
func (h *CronHandler) RunAll(c *gin.Context) {
	report := h.scheduler.RunAll(c.Request.Context())
	c.JSON(http.StatusOK, report)
}

// RunTask handles GET|POST /api/v1/cron/run/:task.
func (h *CronHandler) RunTask(c *gin.Context) {
	report, err := h.scheduler.RunOne(c.Request.Context(), c.Param("task"))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// Health handles GET /health. A degraded result answers 503 with the full body.
func Health(svc ports.HealthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		result := svc.Check(c.Request.Context())
		status := http.StatusOK
		if result.Status == domain.HealthDegraded {
			status = http.StatusServiceUnavailable
		}
		response.JSON(c, status, result)
	}
}
