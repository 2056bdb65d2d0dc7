package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentStatus represents the lifecycle state of a payment intent.
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusPaid      PaymentStatus = "paid"
	PaymentStatusFailed    PaymentStatus = "failed"
	PaymentStatusExpired   PaymentStatus = "expired"
	PaymentStatusCancelled PaymentStatus = "cancelled"
)

// Metadata keys written by the reconciliation sweeps.
const (
	MetaReconciledAt   = "reconciled_at"
	MetaProviderStatus = "provider_status"
	MetaAgedOutAt      = "aged_out_at"
)

// IsTerminal returns true if no further transition is permitted from this status.
func (s PaymentStatus) IsTerminal() bool {
	switch s {
	case PaymentStatusPaid, PaymentStatusFailed, PaymentStatusExpired, PaymentStatusCancelled:
		return true
	}
	return false
}

// CanTransitionTo reports whether moving from s to next is allowed.
// Only pending moves, and only into a terminal state.
func (s PaymentStatus) CanTransitionTo(next PaymentStatus) bool {
	return s == PaymentStatusPending && next.IsTerminal()
}

// PaymentIntent represents one expected inbound payment.
type PaymentIntent struct {
	ID                uuid.UUID       `json:"id"`
	TenantID          uuid.UUID       `json:"tenant_id"`
	Amount            decimal.Decimal `json:"amount"`
	Status            PaymentStatus   `json:"status"`
	ProviderPaymentID *string         `json:"provider_payment_id,omitempty"`
	ExpiresAt         *time.Time      `json:"expires_at,omitempty"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
	PaidAt            *time.Time      `json:"paid_at,omitempty"`
	Metadata          map[string]any  `json:"metadata,omitempty"`
}

// HasProviderID returns true once the provider has assigned an id.
func (p *PaymentIntent) HasProviderID() bool {
	return p.ProviderPaymentID != nil && *p.ProviderPaymentID != ""
}

// IsExpired returns true if the expiration timestamp is set and strictly before now.
func (p *PaymentIntent) IsExpired(now time.Time) bool {
	return p.ExpiresAt != nil && p.ExpiresAt.Before(now)
}

// WithinLookback reports whether the intent was created at or after cutoff.
// The boundary is inclusive.
func (p *PaymentIntent) WithinLookback(cutoff time.Time) bool {
	return !p.CreatedAt.Before(cutoff)
}

// PaymentTransition describes a single conditional status change on a pending intent.
type PaymentTransition struct {
	PaymentID uuid.UUID
	To        PaymentStatus
	PaidAt    *time.Time
	UpdatedAt time.Time
	// Metadata is merged into the existing map; existing keys not named here survive.
	Metadata map[string]any
}

// NewPaymentTransition builds a transition, setting PaidAt iff the target is paid.
func NewPaymentTransition(id uuid.UUID, to PaymentStatus, now time.Time, metadata map[string]any) PaymentTransition {
	t := PaymentTransition{
		PaymentID: id,
		To:        to,
		UpdatedAt: now,
		Metadata:  metadata,
	}
	if to == PaymentStatusPaid {
		paidAt := now
		t.PaidAt = &paidAt
	}
	return t
}
