package service

import (
	"context"
	"fmt"
	"time"

	"condo-automation/internal/core/domain"
	"condo-automation/internal/core/ports"
	"condo-automation/pkg/apperror"
	"condo-automation/pkg/logger"
	"condo-automation/pkg/metrics"

	"github.com/rs/zerolog"
	"go.uber.org/multierr"
)

// JobMaintenanceSweep is the scheduler name of the aged-out payment sweep.
const JobMaintenanceSweep = "maintenance_sweep"

const defaultAgedOutBatch = 100

// SweepResult is the per-run tally of the maintenance sweep.
type SweepResult struct {
	AgedOut int `json:"aged_out"`
	Errors  int `json:"errors"`
}

// MaintenanceSweepParams configures the maintenance sweep.
type MaintenanceSweepParams struct {
	Payments ports.PaymentRepository
	Logs     ports.SystemLogService
	Metrics  *metrics.JobMetrics
	Lookback time.Duration
	Batch    int
	Logger   zerolog.Logger
}

// MaintenanceSweep flags pending payments that fell out of the reconciler's
// lookback window so they surface for manual follow-up. Status is left untouched.
type MaintenanceSweep struct {
	payments ports.PaymentRepository
	logs     ports.SystemLogService
	metrics  *metrics.JobMetrics
	lookback time.Duration
	batch    int
	now      func() time.Time
	log      zerolog.Logger
}

// NewMaintenanceSweep builds the sweep job.
func NewMaintenanceSweep(params MaintenanceSweepParams) (*MaintenanceSweep, error) {
	if params.Payments == nil {
		return nil, fmt.Errorf("payment repository required")
	}
	if params.Logs == nil {
		return nil, fmt.Errorf("system log service required")
	}
	lookback := params.Lookback
	if lookback <= 0 {
		lookback = defaultReconcileLookback
	}
	batch := params.Batch
	if batch <= 0 {
		batch = defaultAgedOutBatch
	}
	return &MaintenanceSweep{
		payments: params.Payments,
		logs:     params.Logs,
		metrics:  params.Metrics,
		lookback: lookback,
		batch:    batch,
		now:      time.Now,
		log:      logger.ForJob(params.Logger, JobMaintenanceSweep),
	}, nil
}

func (m *MaintenanceSweep) Name() string { return JobMaintenanceSweep }

func (m *MaintenanceSweep) Run(ctx context.Context) (any, error) {
	now := m.now().UTC()
	cutoff := now.Add(-m.lookback)

	aged, err := m.payments.ListAgedOut(ctx, cutoff, m.batch)
	if err != nil {
		return nil, apperror.ErrCandidateQuery(err)
	}

	var (
		result SweepResult
		errs   error
	)
	for i := range aged {
		ok, err := m.payments.MarkAgedOut(ctx, aged[i].ID, now)
		if err != nil {
			result.Errors++
			errs = multierr.Append(errs, fmt.Errorf("payment %s: %w", aged[i].ID, err))
			continue
		}
		if ok {
			result.AgedOut++
		}
	}
	if errs != nil {
		m.log.Warn().Err(errs).Int("errors", result.Errors).Msg("some aged-out payments could not be flagged")
	}

	m.metrics.AddRecords(JobMaintenanceSweep, "aged_out", result.AgedOut)
	m.metrics.AddRecords(JobMaintenanceSweep, "error", result.Errors)

	if result.AgedOut > 0 || result.Errors > 0 {
		m.logs.LogOrIgnore(ctx, domain.NewSystemLog(domain.LogLevelWarning, JobMaintenanceSweep,
			fmt.Sprintf("%d pending payments aged out of the %s reconciliation window", result.AgedOut, m.lookback),
			map[string]any{
				"aged_out": result.AgedOut,
				"errors":   result.Errors,
				"cutoff":   cutoff.Format(time.RFC3339),
			}, now))
	}
	return result, nil
}
