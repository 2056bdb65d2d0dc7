package service

import (
	"context"
	"fmt"
	"time"
	"unicode/utf8"

	"condo-automation/internal/core/domain"
	"condo-automation/internal/core/ports"
	"condo-automation/pkg/apperror"
	"condo-automation/pkg/logger"
	"condo-automation/pkg/metrics"

	"github.com/rs/zerolog"
	"github.com/sourcegraph/conc/pool"
)

// JobNotificationDispatch is the scheduler name of the notification dispatcher.
const JobNotificationDispatch = "notification_dispatch"

const (
	defaultDispatchBatch = 50
	defaultSendTimeout   = 10 * time.Second
	defaultClaimTTL      = 10 * time.Minute
	maxFailureReasonLen  = 500
)

// ReasonChannelNotConfigured is stored on records whose channel has no sender.
const ReasonChannelNotConfigured = "channel not configured"

// DispatchResult is the per-run tally of the notification dispatcher.
type DispatchResult struct {
	Processed   int  `json:"processed"`
	Successes   int  `json:"successes"`
	Failures    int  `json:"failures"`
	Skipped     int  `json:"skipped"`
	NothingToDo bool `json:"nothing_to_do,omitempty"`
}

// NotificationDispatcherParams configures the notification dispatcher.
type NotificationDispatcherParams struct {
	Notifications ports.NotificationRepository
	Senders       []ports.ChannelSender
	// Claims is optional. Without it, overlapping runs are only guarded by the
	// conditional status update.
	Claims      ports.DispatchClaimStore
	Logs        ports.SystemLogService
	Metrics     *metrics.JobMetrics
	BatchSize   int
	SendTimeout time.Duration
	ClaimTTL    time.Duration
	Logger      zerolog.Logger
}

// NotificationDispatcher sends due notifications concurrently, one unit per record.
type NotificationDispatcher struct {
	notifications ports.NotificationRepository
	senders       map[domain.NotificationChannel]ports.ChannelSender
	claims        ports.DispatchClaimStore
	logs          ports.SystemLogService
	metrics       *metrics.JobMetrics
	batchSize     int
	sendTimeout   time.Duration
	claimTTL      time.Duration
	now           func() time.Time
	log           zerolog.Logger
}

// NewNotificationDispatcher builds the dispatcher job.
func NewNotificationDispatcher(params NotificationDispatcherParams) (*NotificationDispatcher, error) {
	if params.Notifications == nil {
		return nil, fmt.Errorf("notification repository required")
	}
	if params.Logs == nil {
		return nil, fmt.Errorf("system log service required")
	}
	senders := make(map[domain.NotificationChannel]ports.ChannelSender, len(params.Senders))
	for _, s := range params.Senders {
		senders[s.Channel()] = s
	}
	batch := params.BatchSize
	if batch <= 0 {
		batch = defaultDispatchBatch
	}
	sendTimeout := params.SendTimeout
	if sendTimeout <= 0 {
		sendTimeout = defaultSendTimeout
	}
	claimTTL := params.ClaimTTL
	if claimTTL <= 0 {
		claimTTL = defaultClaimTTL
	}
	return &NotificationDispatcher{
		notifications: params.Notifications,
		senders:       senders,
		claims:        params.Claims,
		logs:          params.Logs,
		metrics:       params.Metrics,
		batchSize:     batch,
		sendTimeout:   sendTimeout,
		claimTTL:      claimTTL,
		now:           time.Now,
		log:           logger.ForJob(params.Logger, JobNotificationDispatch),
	}, nil
}

func (d *NotificationDispatcher) Name() string { return JobNotificationDispatch }

type dispatchOutcome int

const (
	dispatchSent dispatchOutcome = iota
	dispatchFailed
	dispatchSkipped
)

// Run dispatches at most one batch of due notifications. Each record settles on
// its own; the dispatcher only counts the outcomes.
func (d *NotificationDispatcher) Run(ctx context.Context) (any, error) {
	now := d.now().UTC()

	due, err := d.notifications.ListDue(ctx, now, d.batchSize)
	if err != nil {
		d.logs.LogOrIgnore(ctx, domain.NewSystemLog(domain.LogLevelError, JobNotificationDispatch,
			"failed to list due notifications", map[string]any{"error": err.Error()}, now))
		return nil, apperror.ErrCandidateQuery(err)
	}
	if len(due) == 0 {
		return DispatchResult{NothingToDo: true}, nil
	}

	outcomes := make([]dispatchOutcome, len(due))
	wp := pool.New().WithMaxGoroutines(min(len(due), d.batchSize))
	for i := range due {
		wp.Go(func() {
			outcomes[i] = d.dispatchOne(ctx, &due[i], now)
		})
	}
	wp.Wait()

	result := DispatchResult{Processed: len(due)}
	for _, o := range outcomes {
		switch o {
		case dispatchSent:
			result.Successes++
		case dispatchFailed:
			result.Failures++
		case dispatchSkipped:
			result.Skipped++
		}
	}

	d.metrics.AddRecords(JobNotificationDispatch, "sent", result.Successes)
	d.metrics.AddRecords(JobNotificationDispatch, "failed", result.Failures)
	d.metrics.AddRecords(JobNotificationDispatch, "skipped", result.Skipped)

	level := domain.LogLevelInfo
	if result.Failures > 0 {
		level = domain.LogLevelWarning
	}
	d.logs.LogOrIgnore(ctx, domain.NewSystemLog(level, JobNotificationDispatch,
		fmt.Sprintf("notification dispatch completed: %d processed, %d sent, %d failed, %d skipped",
			result.Processed, result.Successes, result.Failures, result.Skipped),
		map[string]any{
			"processed": result.Processed,
			"successes": result.Successes,
			"failures":  result.Failures,
			"skipped":   result.Skipped,
		}, now))

	return result, nil
}

func (d *NotificationDispatcher) dispatchOne(ctx context.Context, n *domain.NotificationRecord, now time.Time) (outcome dispatchOutcome) {
	log := d.log.With().
		Str("notification_id", n.ID.String()).
		Str("channel", string(n.Channel)).
		Logger()

	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("notification dispatch panicked")
			outcome = d.fail(ctx, n, now, fmt.Sprintf("panic: %v", r), log)
		}
	}()

	if d.claims != nil {
		claimed, err := d.claims.Claim(ctx, n.ID, d.claimTTL)
		switch {
		case err != nil:
			log.Warn().Err(err).Msg("dispatch claim unavailable; sending unguarded")
		case !claimed:
			log.Debug().Msg("notification already claimed; skipping")
			return dispatchSkipped
		}
	}

	sender, ok := d.senders[n.Channel]
	if !ok {
		return d.fail(ctx, n, now, ReasonChannelNotConfigured, log)
	}

	sendCtx, cancel := context.WithTimeout(ctx, d.sendTimeout)
	err := sender.Send(sendCtx, *n)
	cancel()
	if err != nil {
		return d.fail(ctx, n, now, err.Error(), log)
	}

	if _, err := d.notifications.MarkSent(ctx, n.ID, now); err != nil {
		log.Error().Err(err).Msg("notification sent but status update failed")
		return dispatchFailed
	}
	return dispatchSent
}

func (d *NotificationDispatcher) fail(ctx context.Context, n *domain.NotificationRecord, now time.Time, reason string, log zerolog.Logger) dispatchOutcome {
	reason = truncateReason(reason, maxFailureReasonLen)
	log.Warn().Str("reason", reason).Msg("notification dispatch failed")
	if _, err := d.notifications.MarkFailed(ctx, n.ID, now, reason); err != nil {
		log.Error().Err(err).Msg("failed to mark notification failed")
	}
	return dispatchFailed
}

// truncateReason cuts s to at most limit bytes without splitting a rune.
func truncateReason(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	i := limit
	for i > 0 && !utf8.RuneStart(s[i]) {
		i--
	}
	return s[:i]
}
