package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestPaymentStatus_IsTerminal(t *testing.T) {
	tests := []struct {
		name   string
		status PaymentStatus
		want   bool
	}{
		{"pending", PaymentStatusPending, false},
		{"paid", PaymentStatusPaid, true},
		{"failed", PaymentStatusFailed, true},
		{"expired", PaymentStatusExpired, true},
		{"cancelled", PaymentStatusCancelled, true},
		{"unknown", PaymentStatus("refunded"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.status.IsTerminal())
		})
	}
}

func TestPaymentStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		name string
		from PaymentStatus
		to   PaymentStatus
		want bool
	}{
		{"pending to paid", PaymentStatusPending, PaymentStatusPaid, true},
		{"pending to expired", PaymentStatusPending, PaymentStatusExpired, true},
		{"pending to pending", PaymentStatusPending, PaymentStatusPending, false},
		{"paid to failed", PaymentStatusPaid, PaymentStatusFailed, false},
		{"expired to pending", PaymentStatusExpired, PaymentStatusPending, false},
		{"cancelled to paid", PaymentStatusCancelled, PaymentStatusPaid, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestPaymentIntent_IsExpired(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	assert.False(t, (&PaymentIntent{}).IsExpired(now), "nil expiration never expires")
	assert.True(t, (&PaymentIntent{ExpiresAt: &past}).IsExpired(now))
	assert.False(t, (&PaymentIntent{ExpiresAt: &future}).IsExpired(now))
	assert.False(t, (&PaymentIntent{ExpiresAt: &now}).IsExpired(now), "expiring exactly now is not yet expired")
}

func TestPaymentIntent_WithinLookback(t *testing.T) {
	cutoff := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	atCutoff := &PaymentIntent{CreatedAt: cutoff}
	justBefore := &PaymentIntent{CreatedAt: cutoff.Add(-time.Nanosecond)}
	after := &PaymentIntent{CreatedAt: cutoff.Add(time.Second)}

	assert.True(t, atCutoff.WithinLookback(cutoff), "boundary is inclusive")
	assert.False(t, justBefore.WithinLookback(cutoff))
	assert.True(t, after.WithinLookback(cutoff))
}

func TestPaymentIntent_HasProviderID(t *testing.T) {
	empty := ""
	id := "mp-123"

	assert.False(t, (&PaymentIntent{}).HasProviderID())
	assert.False(t, (&PaymentIntent{ProviderPaymentID: &empty}).HasProviderID())
	assert.True(t, (&PaymentIntent{ProviderPaymentID: &id}).HasProviderID())
}

func TestNewPaymentTransition_PaidAtOnlyWhenPaid(t *testing.T) {
	now := time.Now().UTC()
	id := uuid.New()

	paid := NewPaymentTransition(id, PaymentStatusPaid, now, nil)
	if assert.NotNil(t, paid.PaidAt) {
		assert.Equal(t, now, *paid.PaidAt)
	}

	for _, s := range []PaymentStatus{PaymentStatusFailed, PaymentStatusCancelled, PaymentStatusExpired} {
		tr := NewPaymentTransition(id, s, now, nil)
		assert.Nil(t, tr.PaidAt, "status %s must not carry paid_at", s)
		assert.Equal(t, now, tr.UpdatedAt)
	}
}

func TestNotificationRecord_IsDue(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		record NotificationRecord
		want   bool
	}{
		{"pending in past", NotificationRecord{Status: NotificationStatusPending, ScheduledAt: now.Add(-time.Minute)}, true},
		{"pending exactly now", NotificationRecord{Status: NotificationStatusPending, ScheduledAt: now}, true},
		{"pending in future", NotificationRecord{Status: NotificationStatusPending, ScheduledAt: now.Add(time.Minute)}, false},
		{"already sent", NotificationRecord{Status: NotificationStatusSent, ScheduledAt: now.Add(-time.Minute)}, false},
		{"failed", NotificationRecord{Status: NotificationStatusFailed, ScheduledAt: now.Add(-time.Minute)}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.record.IsDue(now))
		})
	}
}

func TestDeriveOverallHealth(t *testing.T) {
	tests := []struct {
		name   string
		checks []DependencyCheck
		want   OverallHealth
	}{
		{"all ok", []DependencyCheck{{Status: DependencyOK}, {Status: DependencyOK}}, HealthHealthy},
		{"ok and not configured", []DependencyCheck{{Status: DependencyOK}, {Status: DependencyNotConfigured}}, HealthHealthy},
		{"one error", []DependencyCheck{{Status: DependencyOK}, {Status: DependencyError}}, HealthDegraded},
		{"error wins over unknown", []DependencyCheck{{Status: DependencyUnknown}, {Status: DependencyError}}, HealthDegraded},
		{"unknown", []DependencyCheck{{Status: DependencyOK}, {Status: DependencyUnknown}}, HealthWarning},
		{"empty", nil, HealthHealthy},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DeriveOverallHealth(tt.checks))
		})
	}
}

func TestHealthCheckResult_FailedDependencies(t *testing.T) {
	r := &HealthCheckResult{Dependencies: []DependencyCheck{
		{Name: "postgresql", Status: DependencyError},
		{Name: "redis", Status: DependencyOK},
		{Name: "payment_provider", Status: DependencyError},
	}}

	assert.Equal(t, []string{"postgresql", "payment_provider"}, r.FailedDependencies())
}

func TestRunReport_HasErrorsAndOutcome(t *testing.T) {
	r := &RunReport{Summary: []TaskOutcome{
		{Task: "health_check", Status: TaskStatusOK},
		{Task: "notification_dispatch", Status: TaskStatusError, Error: "boom"},
	}}

	assert.True(t, r.HasErrors())
	o, ok := r.Outcome("notification_dispatch")
	assert.True(t, ok)
	assert.Equal(t, "boom", o.Error)

	_, ok = r.Outcome("missing")
	assert.False(t, ok)
}

func TestDefaultAutomationSettings(t *testing.T) {
	tenant := uuid.New()
	now := time.Now().UTC()
	s := DefaultAutomationSettings(tenant, now)

	assert.Equal(t, tenant, s.TenantID)
	assert.True(t, s.ReminderEnabled)
	assert.Equal(t, 5, s.LateFeeDays)
	assert.Equal(t, "2", s.LateFeePercentage.String())
	assert.Equal(t, "0.0333", s.DailyInterestRate.String())
	assert.False(t, s.AutoChargeEnabled)
	assert.Equal(t, now, s.CreatedAt)
}

func TestStatusConstants(t *testing.T) {
	assert.Equal(t, PaymentStatus("pending"), PaymentStatusPending)
	assert.Equal(t, NotificationStatus("sent"), NotificationStatusSent)
	assert.Equal(t, NotificationChannel("whatsapp"), ChannelWhatsApp)
	assert.Equal(t, DependencyStatus("not_configured"), DependencyNotConfigured)
}

func TestMapProviderStatus(t *testing.T) {
	tests := []struct {
		raw    string
		status PaymentStatus
		kind   ProviderStatusKind
	}{
		{"approved", PaymentStatusPaid, ProviderStatusMapped},
		{"rejected", PaymentStatusFailed, ProviderStatusMapped},
		{"cancelled", PaymentStatusCancelled, ProviderStatusMapped},
		{" Approved ", PaymentStatusPaid, ProviderStatusMapped},
		{"pending", "", ProviderStatusInFlight},
		{"in_process", "", ProviderStatusInFlight},
		{"in_mediation", "", ProviderStatusInFlight},
		{"authorized", "", ProviderStatusInFlight},
		{"refunded", "", ProviderStatusUnmapped},
		{"charged_back", "", ProviderStatusUnmapped},
		{"", "", ProviderStatusUnmapped},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			status, kind := MapProviderStatus(tt.raw)
			assert.Equal(t, tt.status, status)
			assert.Equal(t, tt.kind, kind)
		})
	}
}
