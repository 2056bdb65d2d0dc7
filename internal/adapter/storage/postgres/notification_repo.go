package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"condo-automation/internal/core/domain"

	"github.com/google/uuid"
)

// NotificationRepo implements ports.NotificationRepository over delivery_notifications.
type NotificationRepo struct {
	pool Pool
}

// NewNotificationRepo creates a new NotificationRepo.
func NewNotificationRepo(pool Pool) *NotificationRepo {
	return &NotificationRepo{pool: pool}
}

// ListDue fetches up to limit pending notifications scheduled at or before now.
func (r *NotificationRepo) ListDue(ctx context.Context, now time.Time, limit int) ([]domain.NotificationRecord, error) {
	query := `SELECT id, tenant_id, recipient, channel, payload, status, scheduled_at,
		processed_at, failure_reason, created_at
		FROM delivery_notifications
		WHERE status = 'pending' AND scheduled_at <= $1
		ORDER BY scheduled_at ASC
		LIMIT $2`

	rows, err := r.pool.Query(ctx, query, now, limit)
	if err != nil {
		return nil, fmt.Errorf("list due notifications: %w", err)
	}
	defer rows.Close()

	var records []domain.NotificationRecord
	for rows.Next() {
		var (
			n       domain.NotificationRecord
			payload []byte
		)
		err := rows.Scan(
			&n.ID, &n.TenantID, &n.Recipient, &n.Channel, &payload, &n.Status, &n.ScheduledAt,
			&n.ProcessedAt, &n.FailureReason, &n.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan notification row: %w", err)
		}
		if len(payload) > 0 {
			if err := json.Unmarshal(payload, &n.Payload); err != nil {
				return nil, fmt.Errorf("notification %s payload: %w", n.ID, err)
			}
		}
		records = append(records, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate notification rows: %w", err)
	}
	return records, nil
}

// MarkSent records a successful delivery. Returns false if the row was not pending.
func (r *NotificationRepo) MarkSent(ctx context.Context, id uuid.UUID, processedAt time.Time) (bool, error) {
	query := `UPDATE delivery_notifications
		SET status = 'sent', processed_at = $2, failure_reason = NULL
		WHERE id = $1 AND status = 'pending'`

	tag, err := r.pool.Exec(ctx, query, id, processedAt)
	if err != nil {
		return false, fmt.Errorf("mark notification sent: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// MarkFailed records a failed delivery with its reason.
func (r *NotificationRepo) MarkFailed(ctx context.Context, id uuid.UUID, processedAt time.Time, reason string) (bool, error) {
	query := `UPDATE delivery_notifications
		SET status = 'failed', processed_at = $2, failure_reason = $3
		WHERE id = $1 AND status = 'pending'`

	tag, err := r.pool.Exec(ctx, query, id, processedAt, reason)
	if err != nil {
		return false, fmt.Errorf("mark notification failed: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}
