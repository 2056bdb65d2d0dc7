package handler

import (
	"condo-automation/internal/adapter/http/middleware"
	"condo-automation/internal/core/ports"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// RouterDeps holds all dependencies needed to set up routes.
type RouterDeps struct {
	Scheduler  ports.SchedulerService
	Health     ports.HealthService
	CronSecret string
	Gatherer   prometheus.Gatherer // nil = /metrics disabled
	Logger     zerolog.Logger
}

// SetupRouter initialises the Gin engine with all routes and middleware.
func SetupRouter(deps RouterDeps) *gin.Engine {
	r := gin.New()

	r.Use(middleware.RequestID())
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(middleware.MaxBodySize(64 << 10))

	r.GET("/health", Health(deps.Health))

	if deps.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})))
	}

	cron := NewCronHandler(deps.Scheduler)
	v1 := r.Group("/api/v1")
	run := v1.Group("/cron/run", middleware.CronAuth(deps.CronSecret, deps.Logger))
	{
		run.GET("", cron.RunAll)
		run.POST("", cron.RunAll)
		run.GET("/:task", cron.RunTask)
		run.POST("/:task", cron.RunTask)
	}

	return r
}
