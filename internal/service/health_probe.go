package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"condo-automation/internal/core/domain"
	"condo-automation/internal/core/ports"

	"github.com/rs/zerolog"
	"github.com/sourcegraph/conc/pool"
)

// JobHealthCheck is the scheduler name of the health probe.
const JobHealthCheck = "health_check"

const defaultHealthTimeout = 5 * time.Second

// HealthProbe checks every external dependency independently.
// It implements ports.HealthService and ports.Job.
type HealthProbe struct {
	checkers []ports.HealthChecker
	logs     ports.SystemLogService
	timeout  time.Duration
	now      func() time.Time
	log      zerolog.Logger
}

// NewHealthProbe creates a probe over checkers. timeout applies to each check.
func NewHealthProbe(checkers []ports.HealthChecker, logs ports.SystemLogService, timeout time.Duration, log zerolog.Logger) *HealthProbe {
	if timeout <= 0 {
		timeout = defaultHealthTimeout
	}
	return &HealthProbe{
		checkers: checkers,
		logs:     logs,
		timeout:  timeout,
		now:      time.Now,
		log:      log,
	}
}

func (p *HealthProbe) Name() string { return JobHealthCheck }

// Check probes all dependencies concurrently and derives the overall status.
// Nothing is persisted.
func (p *HealthProbe) Check(ctx context.Context) domain.HealthCheckResult {
	checks := make([]domain.DependencyCheck, len(p.checkers))

	wp := pool.New()
	for i, c := range p.checkers {
		wp.Go(func() {
			checks[i] = p.checkOne(ctx, c)
		})
	}
	wp.Wait()

	return domain.HealthCheckResult{
		Status:       domain.DeriveOverallHealth(checks),
		Dependencies: checks,
		CheckedAt:    p.now().UTC(),
	}
}

// Run checks and writes the audit rows: one summary and, when something failed,
// an error-level alert naming the failed dependencies.
func (p *HealthProbe) Run(ctx context.Context) (any, error) {
	result := p.Check(ctx)

	p.logs.LogOrIgnore(ctx, domain.NewSystemLog(domain.LogLevelInfo, JobHealthCheck,
		fmt.Sprintf("health check completed: %s", result.Status),
		map[string]any{"status": result.Status, "dependencies": result.Dependencies},
		result.CheckedAt))

	if failed := result.FailedDependencies(); len(failed) > 0 {
		p.logs.LogOrIgnore(ctx, domain.NewSystemLog(domain.LogLevelError, JobHealthCheck,
			"dependencies failing: "+strings.Join(failed, ","),
			map[string]any{"failed": strings.Join(failed, ",")},
			result.CheckedAt))
	}

	return result, nil
}

func (p *HealthProbe) checkOne(ctx context.Context, c ports.HealthChecker) (dc domain.DependencyCheck) {
	start := time.Now()
	dc.Name = c.Name()

	defer func() {
		if r := recover(); r != nil {
			dc.Status = domain.DependencyError
			dc.Error = fmt.Sprintf("panic: %v", r)
			p.log.Error().Interface("panic", r).Str("dependency", dc.Name).Msg("health checker panicked")
		}
		dc.LatencyMS = time.Since(start).Milliseconds()
	}()

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	var (
		status domain.DependencyStatus
		err    error
	)
	if sc, ok := c.(ports.StatusChecker); ok {
		status, err = sc.Check(ctx)
	} else {
		err = c.Ping(ctx)
		status = domain.DependencyOK
	}

	switch {
	case errors.Is(err, ports.ErrNotConfigured):
		dc.Status = domain.DependencyNotConfigured
	case err != nil:
		dc.Status = domain.DependencyError
		dc.Error = err.Error()
	case !status.IsRecognized():
		dc.Status = domain.DependencyUnknown
	default:
		dc.Status = status
	}
	return dc
}
