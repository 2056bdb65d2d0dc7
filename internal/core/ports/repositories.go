package ports

import (
	"context"
	"time"

	"condo-automation/internal/core/domain"

	"github.com/google/uuid"
)

// PaymentRepository defines persistence operations for payment intents.
// Every write is a single-row conditional update guarded by status = pending,
// so re-applying a transition is a no-op that reports applied = false.
type PaymentRepository interface {
	// ListReconcilable returns pending intents created at or after cutoff that either
	// carry a provider id or are already past their expiration at now.
	ListReconcilable(ctx context.Context, cutoff, now time.Time) ([]domain.PaymentIntent, error)
	// ApplyTransition moves a pending intent into a terminal state and merges metadata.
	ApplyTransition(ctx context.Context, t domain.PaymentTransition) (applied bool, err error)
	// ListAgedOut returns pending intents created before cutoff that were not yet flagged.
	ListAgedOut(ctx context.Context, cutoff time.Time, limit int) ([]domain.PaymentIntent, error)
	// MarkAgedOut merges aged_out_at into the metadata of a still-pending intent.
	MarkAgedOut(ctx context.Context, id uuid.UUID, at time.Time) (bool, error)
}

// NotificationRepository defines persistence operations for delivery notifications.
type NotificationRepository interface {
	// ListDue returns at most limit pending records scheduled at or before now,
	// oldest first.
	ListDue(ctx context.Context, now time.Time, limit int) ([]domain.NotificationRecord, error)
	MarkSent(ctx context.Context, id uuid.UUID, processedAt time.Time) (bool, error)
	MarkFailed(ctx context.Context, id uuid.UUID, processedAt time.Time, reason string) (bool, error)
}

// AutomationSettingsRepository defines persistence for per-tenant automation settings.
type AutomationSettingsRepository interface {
	// GetOrCreate returns the tenant's settings, inserting defaults when absent.
	GetOrCreate(ctx context.Context, defaults domain.AutomationSettings) (*domain.AutomationSettings, error)
}

// SystemLogRepository is the append-only audit sink.
type SystemLogRepository interface {
	Create(ctx context.Context, entry *domain.SystemLog) error
}
