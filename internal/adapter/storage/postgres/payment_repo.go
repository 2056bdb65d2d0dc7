package postgres

import (
	"context"
	"fmt"
	"time"

	"condo-automation/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

const paymentColumns = `id, tenant_id, amount::text, status, provider_payment_id, expires_at,
		created_at, updated_at, paid_at, metadata`

// PaymentRepo implements ports.PaymentRepository.
type PaymentRepo struct {
	pool Pool
}

// NewPaymentRepo creates a new PaymentRepo.
func NewPaymentRepo(pool Pool) *PaymentRepo {
	return &PaymentRepo{pool: pool}
}

// ListReconcilable fetches pending intents created at or after cutoff that carry a
// provider id or have already expired.
func (r *PaymentRepo) ListReconcilable(ctx context.Context, cutoff, now time.Time) ([]domain.PaymentIntent, error) {
	query := `SELECT ` + paymentColumns + `
		FROM payments
		WHERE status = 'pending' AND created_at >= $1
			AND (provider_payment_id IS NOT NULL OR (expires_at IS NOT NULL AND expires_at < $2))
		ORDER BY created_at ASC`

	rows, err := r.pool.Query(ctx, query, cutoff, now)
	if err != nil {
		return nil, fmt.Errorf("list reconcilable payments: %w", err)
	}
	return collectPayments(rows)
}

// ApplyTransition moves a pending intent into its target state. The metadata patch is
// merged with jsonb || so keys not in the patch survive. Returns false when the row
// was no longer pending.
func (r *PaymentRepo) ApplyTransition(ctx context.Context, t domain.PaymentTransition) (bool, error) {
	patch, err := encodeJSONB(t.Metadata)
	if err != nil {
		return false, err
	}

	query := `UPDATE payments
		SET status = $2, paid_at = $3, updated_at = $4,
			metadata = COALESCE(metadata, '{}'::jsonb) || $5::jsonb
		WHERE id = $1 AND status = 'pending'`

	tag, err := r.pool.Exec(ctx, query, t.PaymentID, t.To, t.PaidAt, t.UpdatedAt, patch)
	if err != nil {
		return false, fmt.Errorf("apply payment transition: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// ListAgedOut fetches pending intents older than cutoff that were not flagged yet.
func (r *PaymentRepo) ListAgedOut(ctx context.Context, cutoff time.Time, limit int) ([]domain.PaymentIntent, error) {
	query := `SELECT ` + paymentColumns + `
		FROM payments
		WHERE status = 'pending' AND created_at < $1
			AND metadata->>'aged_out_at' IS NULL
		ORDER BY created_at ASC
		LIMIT $2`

	rows, err := r.pool.Query(ctx, query, cutoff, limit)
	if err != nil {
		return nil, fmt.Errorf("list aged-out payments: %w", err)
	}
	return collectPayments(rows)
}

// MarkAgedOut stamps aged_out_at into metadata without touching status.
func (r *PaymentRepo) MarkAgedOut(ctx context.Context, id uuid.UUID, at time.Time) (bool, error) {
	query := `UPDATE payments
		SET metadata = COALESCE(metadata, '{}'::jsonb) || jsonb_build_object('aged_out_at', $2::text)
		WHERE id = $1 AND status = 'pending' AND metadata->>'aged_out_at' IS NULL`

	tag, err := r.pool.Exec(ctx, query, id, at.UTC().Format(time.RFC3339))
	if err != nil {
		return false, fmt.Errorf("mark payment aged out: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func collectPayments(rows pgx.Rows) ([]domain.PaymentIntent, error) {
	defer rows.Close()

	var payments []domain.PaymentIntent
	for rows.Next() {
		var (
			p        domain.PaymentIntent
			amount   string
			metadata []byte
		)
		err := rows.Scan(
			&p.ID, &p.TenantID, &amount, &p.Status, &p.ProviderPaymentID, &p.ExpiresAt,
			&p.CreatedAt, &p.UpdatedAt, &p.PaidAt, &metadata,
		)
		if err != nil {
			return nil, fmt.Errorf("scan payment row: %w", err)
		}
		if p.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, fmt.Errorf("parse payment %s amount: %w", p.ID, err)
		}
		if p.Metadata, err = decodeJSONB(metadata); err != nil {
			return nil, fmt.Errorf("payment %s metadata: %w", p.ID, err)
		}
		payments = append(payments, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate payment rows: %w", err)
	}
	return payments, nil
}
