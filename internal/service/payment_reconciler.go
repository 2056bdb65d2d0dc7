package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"condo-automation/internal/core/domain"
	"condo-automation/internal/core/ports"
	"condo-automation/pkg/apperror"
	"condo-automation/pkg/logger"
	"condo-automation/pkg/metrics"

	"github.com/rs/zerolog"
	"go.uber.org/multierr"
)

// JobPaymentReconciliation is the scheduler name of the payment reconciler.
const JobPaymentReconciliation = "payment_reconciliation"

const (
	defaultReconcileLookback = 72 * time.Hour
	defaultProviderTimeout   = 10 * time.Second
)

// ReconcileResult is the per-run tally of the payment reconciler.
type ReconcileResult struct {
	Processed int `json:"processed"`
	Updated   int `json:"updated"`
	Expired   int `json:"expired"`
	Skipped   int `json:"skipped"`
	Unmapped  int `json:"unmapped"`
	Errors    int `json:"errors"`
	// UnmappedStatuses lists the distinct raw provider values that had no mapping.
	UnmappedStatuses []string `json:"unmapped_statuses,omitempty"`
}

// PaymentReconcilerParams configures the payment reconciler.
type PaymentReconcilerParams struct {
	Payments        ports.PaymentRepository
	Ledger          ports.LedgerClient
	Logs            ports.SystemLogService
	Metrics         *metrics.JobMetrics
	Lookback        time.Duration
	ProviderTimeout time.Duration
	Logger          zerolog.Logger
}

// PaymentReconciler brings pending payment intents in line with the provider.
type PaymentReconciler struct {
	payments        ports.PaymentRepository
	ledger          ports.LedgerClient
	logs            ports.SystemLogService
	metrics         *metrics.JobMetrics
	lookback        time.Duration
	providerTimeout time.Duration
	now             func() time.Time
	log             zerolog.Logger
}

// NewPaymentReconciler builds the reconciler job.
func NewPaymentReconciler(params PaymentReconcilerParams) (*PaymentReconciler, error) {
	if params.Payments == nil {
		return nil, fmt.Errorf("payment repository required")
	}
	if params.Ledger == nil {
		return nil, fmt.Errorf("ledger client required")
	}
	if params.Logs == nil {
		return nil, fmt.Errorf("system log service required")
	}
	lookback := params.Lookback
	if lookback <= 0 {
		lookback = defaultReconcileLookback
	}
	timeout := params.ProviderTimeout
	if timeout <= 0 {
		timeout = defaultProviderTimeout
	}
	return &PaymentReconciler{
		payments:        params.Payments,
		ledger:          params.Ledger,
		logs:            params.Logs,
		metrics:         params.Metrics,
		lookback:        lookback,
		providerTimeout: timeout,
		now:             time.Now,
		log:             logger.ForJob(params.Logger, JobPaymentReconciliation),
	}, nil
}

func (r *PaymentReconciler) Name() string { return JobPaymentReconciliation }

type reconcileOutcome int

const (
	outcomeUnchanged reconcileOutcome = iota
	outcomeUpdated
	outcomeExpired
	outcomeSkipped
	outcomeUnmapped
)

// Run reconciles every candidate in sequence. Per-record failures are tallied and
// never abort the run; only a failure to list candidates is returned.
func (r *PaymentReconciler) Run(ctx context.Context) (any, error) {
	now := r.now().UTC()
	cutoff := now.Add(-r.lookback)

	candidates, err := r.payments.ListReconcilable(ctx, cutoff, now)
	if err != nil {
		r.logs.LogOrIgnore(ctx, domain.NewSystemLog(domain.LogLevelError, JobPaymentReconciliation,
			"failed to list reconcilable payments", map[string]any{"error": err.Error()}, now))
		return nil, apperror.ErrCandidateQuery(err)
	}

	var (
		result   ReconcileResult
		errs     error
		unmapped = map[string]struct{}{}
	)
	for i := range candidates {
		p := &candidates[i]
		if !p.WithinLookback(cutoff) {
			continue
		}
		result.Processed++

		outcome, raw, err := r.reconcileOne(ctx, p, now)
		if err != nil {
			result.Errors++
			errs = multierr.Append(errs, fmt.Errorf("payment %s: %w", p.ID, err))
			r.log.Warn().Err(err).Str("payment_id", p.ID.String()).Msg("payment reconciliation failed")
			continue
		}
		switch outcome {
		case outcomeUpdated:
			result.Updated++
		case outcomeExpired:
			result.Expired++
		case outcomeSkipped:
			result.Skipped++
		case outcomeUnmapped:
			result.Unmapped++
			unmapped[raw] = struct{}{}
		}
	}

	for s := range unmapped {
		result.UnmappedStatuses = append(result.UnmappedStatuses, s)
	}
	sort.Strings(result.UnmappedStatuses)

	r.record(result)
	r.audit(ctx, result, errs, now)
	return result, nil
}

func (r *PaymentReconciler) reconcileOne(ctx context.Context, p *domain.PaymentIntent, now time.Time) (outcome reconcileOutcome, raw string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic: %v", rec)
		}
	}()

	if p.Status != domain.PaymentStatusPending {
		return outcomeSkipped, "", nil
	}

	// Expiration is local and wins over anything the provider says.
	if p.IsExpired(now) {
		applied, err := r.payments.ApplyTransition(ctx,
			domain.NewPaymentTransition(p.ID, domain.PaymentStatusExpired, now, nil))
		if err != nil {
			return outcomeUnchanged, "", fmt.Errorf("expire: %w", err)
		}
		if !applied {
			return outcomeUnchanged, "", nil
		}
		return outcomeExpired, "", nil
	}

	if !p.HasProviderID() {
		return outcomeSkipped, "", nil
	}

	callCtx, cancel := context.WithTimeout(ctx, r.providerTimeout)
	raw, err = r.ledger.GetPaymentStatus(callCtx, *p.ProviderPaymentID)
	cancel()
	if err != nil {
		return outcomeUnchanged, "", err
	}

	mapped, kind := domain.MapProviderStatus(raw)
	switch kind {
	case domain.ProviderStatusInFlight:
		return outcomeUnchanged, raw, nil
	case domain.ProviderStatusUnmapped:
		r.log.Warn().Str("payment_id", p.ID.String()).Str("provider_status", raw).Msg("unmapped provider status")
		return outcomeUnmapped, raw, nil
	}
	if mapped == p.Status {
		return outcomeUnchanged, raw, nil
	}

	applied, err := r.payments.ApplyTransition(ctx, domain.NewPaymentTransition(p.ID, mapped, now, map[string]any{
		domain.MetaReconciledAt:   now.Format(time.RFC3339),
		domain.MetaProviderStatus: raw,
	}))
	if err != nil {
		return outcomeUnchanged, raw, fmt.Errorf("apply %s: %w", mapped, err)
	}
	if !applied {
		// Another writer settled it first.
		return outcomeUnchanged, raw, nil
	}
	return outcomeUpdated, raw, nil
}

func (r *PaymentReconciler) record(result ReconcileResult) {
	r.metrics.AddRecords(JobPaymentReconciliation, "updated", result.Updated)
	r.metrics.AddRecords(JobPaymentReconciliation, "expired", result.Expired)
	r.metrics.AddRecords(JobPaymentReconciliation, "skipped", result.Skipped)
	r.metrics.AddRecords(JobPaymentReconciliation, "unmapped", result.Unmapped)
	r.metrics.AddRecords(JobPaymentReconciliation, "error", result.Errors)
}

func (r *PaymentReconciler) audit(ctx context.Context, result ReconcileResult, errs error, now time.Time) {
	level := domain.LogLevelInfo
	details := map[string]any{
		"processed": result.Processed,
		"updated":   result.Updated,
		"expired":   result.Expired,
		"skipped":   result.Skipped,
		"unmapped":  result.Unmapped,
		"errors":    result.Errors,
	}
	if errs != nil {
		level = domain.LogLevelWarning
		details["error_detail"] = errorSummary(errs)
	}
	r.logs.LogOrIgnore(ctx, domain.NewSystemLog(level, JobPaymentReconciliation,
		fmt.Sprintf("payment reconciliation completed: %d processed, %d updated, %d expired, %d errors",
			result.Processed, result.Updated, result.Expired, result.Errors),
		details, now))

	if result.Unmapped > 0 {
		r.logs.LogOrIgnore(ctx, domain.NewSystemLog(domain.LogLevelWarning, JobPaymentReconciliation,
			fmt.Sprintf("unmapped provider statuses: %d payments left pending", result.Unmapped),
			map[string]any{"statuses": result.UnmappedStatuses, "count": result.Unmapped},
			now))
	}
}

const maxErrorDetails = 10

// errorSummary flattens a multierr into at most maxErrorDetails messages.
func errorSummary(err error) []string {
	all := multierr.Errors(err)
	out := make([]string, 0, min(len(all), maxErrorDetails))
	for _, e := range all {
		if len(out) == maxErrorDetails {
			break
		}
		out = append(out, e.Error())
	}
	return out
}

