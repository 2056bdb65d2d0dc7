package ports

import (
	"context"
	"time"

	"condo-automation/internal/core/domain"

	"github.com/google/uuid"
)

// LedgerClient is the external payment provider.
type LedgerClient interface {
	// GetPaymentStatus returns the raw provider status for a provider payment id.
	GetPaymentStatus(ctx context.Context, providerPaymentID string) (string, error)
}

// ChannelSender delivers a notification over one channel.
type ChannelSender interface {
	Channel() domain.NotificationChannel
	Send(ctx context.Context, n domain.NotificationRecord) error
}

// DispatchClaimStore guards against dispatching the same notification twice when
// invocations overlap or are retried.
type DispatchClaimStore interface {
	// Claim returns true if the caller now owns the notification for ttl.
	Claim(ctx context.Context, notificationID uuid.UUID, ttl time.Duration) (bool, error)
}

// Job is one scheduled task the master scheduler fans out to.
type Job interface {
	Name() string
	Run(ctx context.Context) (any, error)
}

// SchedulerService runs scheduled jobs and aggregates their outcomes.
type SchedulerService interface {
	RunAll(ctx context.Context) domain.RunReport
	RunOne(ctx context.Context, task string) (domain.RunReport, error)
}

// HealthService reports dependency health without persisting anything.
type HealthService interface {
	Check(ctx context.Context) domain.HealthCheckResult
}

// SystemLogService writes audit rows without ever failing the caller.
type SystemLogService interface {
	LogOrIgnore(ctx context.Context, entry *domain.SystemLog)
}
