package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"condo-automation/config"
	"condo-automation/internal/adapter/channel"
	httpHandler "condo-automation/internal/adapter/http/handler"
	"condo-automation/internal/adapter/provider"
	pgStorage "condo-automation/internal/adapter/storage/postgres"
	redisStorage "condo-automation/internal/adapter/storage/redis"
	"condo-automation/internal/core/ports"
	"condo-automation/internal/service"
	"condo-automation/pkg/logger"
	"condo-automation/pkg/metrics"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

func main() {
	// .env is optional; real deployments use the environment.
	_ = godotenv.Load()

	cfg, err := config.Load(os.Getenv("CONDO_CONFIG_FILE"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Log.Level, cfg.Log.Pretty)
	gin.SetMode(cfg.Server.Mode)

	log.Info().
		Str("mode", cfg.Server.Mode).
		Int("port", cfg.Server.Port).
		Msg("Starting condo automation engine")

	ctx := context.Background()

	pool, err := pgStorage.NewPool(ctx, cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	paymentRepo := pgStorage.NewPaymentRepo(pool)
	notificationRepo := pgStorage.NewNotificationRepo(pool)
	systemLogRepo := pgStorage.NewSystemLogRepo(pool)

	checkers := []ports.HealthChecker{pgStorage.NewHealthCheck(pool)}

	ledger := provider.NewLedgerClient(cfg.Provider, &http.Client{})
	if !cfg.Provider.Configured() {
		log.Warn().Msg("Payment provider token not set; reconciliation calls will fail")
	}
	checkers = append(checkers, ledger)

	var claims ports.DispatchClaimStore
	if cfg.Redis.Enabled {
		rdb, err := redisStorage.NewClient(ctx, cfg.Redis, log)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to Redis")
		}
		defer rdb.Close()
		claims = redisStorage.NewDispatchClaimStore(rdb)
		checkers = append(checkers, redisStorage.NewHealthCheck(rdb))
	} else {
		checkers = append(checkers, channel.NotConfigured("redis"))
	}

	channels := channel.FromConfig(cfg.Channels, &http.Client{})
	checkers = append(checkers, channels.Checkers...)

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	jobMetrics := metrics.NewJobMetrics(reg)

	logSvc := service.NewSystemLogService(systemLogRepo, log)

	probe := service.NewHealthProbe(checkers, logSvc, cfg.Health.Timeout, log)

	reconciler, err := service.NewPaymentReconciler(service.PaymentReconcilerParams{
		Payments:        paymentRepo,
		Ledger:          ledger,
		Logs:            logSvc,
		Metrics:         jobMetrics,
		Lookback:        cfg.Reconcile.Lookback,
		ProviderTimeout: cfg.Provider.Timeout,
		Logger:          log,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to build payment reconciler")
	}

	dispatcher, err := service.NewNotificationDispatcher(service.NotificationDispatcherParams{
		Notifications: notificationRepo,
		Senders:       channels.Senders,
		Claims:        claims,
		Logs:          logSvc,
		Metrics:       jobMetrics,
		BatchSize:     cfg.Dispatch.BatchSize,
		SendTimeout:   cfg.Dispatch.SendTimeout,
		ClaimTTL:      cfg.Dispatch.ClaimTTL,
		Logger:        log,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to build notification dispatcher")
	}

	sweep, err := service.NewMaintenanceSweep(service.MaintenanceSweepParams{
		Payments: paymentRepo,
		Logs:     logSvc,
		Metrics:  jobMetrics,
		Lookback: cfg.Reconcile.Lookback,
		Batch:    cfg.Reconcile.AgedOutBatch,
		Logger:   log,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to build maintenance sweep")
	}

	scheduler := service.NewScheduler([]ports.Job{probe, reconciler, dispatcher, sweep}, jobMetrics, log)
	log.Info().Strs("jobs", scheduler.Names()).Int("health_checks", len(checkers)).Msg("Scheduler ready")

	router := httpHandler.SetupRouter(httpHandler.RouterDeps{
		Scheduler:  scheduler,
		Health:     probe,
		CronSecret: cfg.Cron.Secret,
		Gatherer:   reg,
		Logger:     log,
	})

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	// A run in flight gets time to settle its records.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}
