package postgres

import (
	"context"
	"fmt"

	"condo-automation/internal/core/domain"

	"github.com/shopspring/decimal"
)

// AutomationSettingsRepo implements ports.AutomationSettingsRepository.
type AutomationSettingsRepo struct {
	pool Pool
}

// NewAutomationSettingsRepo creates a new AutomationSettingsRepo.
func NewAutomationSettingsRepo(pool Pool) *AutomationSettingsRepo {
	return &AutomationSettingsRepo{pool: pool}
}

// GetOrCreate inserts defaults when the tenant has no row, then reads the row back.
// Concurrent first accesses race on the unique tenant_id and both read the winner.
func (r *AutomationSettingsRepo) GetOrCreate(ctx context.Context, d domain.AutomationSettings) (*domain.AutomationSettings, error) {
	insert := `INSERT INTO automation_settings (tenant_id,
		reminder_enabled, reminder_days,
		late_fee_enabled, late_fee_days, late_fee_percentage, daily_interest_rate,
		auto_charge_enabled, auto_charge_days,
		delinquency_report_enabled, delinquency_report_days,
		email_enabled, whatsapp_enabled, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6::numeric, $7::numeric, $8, $9, $10, $11, $12, $13, $14, $15)
		ON CONFLICT (tenant_id) DO NOTHING`

	_, err := r.pool.Exec(ctx, insert, d.TenantID,
		d.ReminderEnabled, d.ReminderDays,
		d.LateFeeEnabled, d.LateFeeDays, d.LateFeePercentage.String(), d.DailyInterestRate.String(),
		d.AutoChargeEnabled, d.AutoChargeDays,
		d.DelinquencyReportEnabled, d.DelinquencyReportDays,
		d.EmailEnabled, d.WhatsAppEnabled, d.CreatedAt, d.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert default automation settings: %w", err)
	}

	query := `SELECT tenant_id,
		reminder_enabled, reminder_days,
		late_fee_enabled, late_fee_days, late_fee_percentage::text, daily_interest_rate::text,
		auto_charge_enabled, auto_charge_days,
		delinquency_report_enabled, delinquency_report_days,
		email_enabled, whatsapp_enabled, created_at, updated_at
		FROM automation_settings WHERE tenant_id = $1`

	var (
		s          domain.AutomationSettings
		pct, daily string
	)
	err = r.pool.QueryRow(ctx, query, d.TenantID).Scan(&s.TenantID,
		&s.ReminderEnabled, &s.ReminderDays,
		&s.LateFeeEnabled, &s.LateFeeDays, &pct, &daily,
		&s.AutoChargeEnabled, &s.AutoChargeDays,
		&s.DelinquencyReportEnabled, &s.DelinquencyReportDays,
		&s.EmailEnabled, &s.WhatsAppEnabled, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("get automation settings: %w", err)
	}
	if s.LateFeePercentage, err = decimal.NewFromString(pct); err != nil {
		return nil, fmt.Errorf("parse late_fee_percentage: %w", err)
	}
	if s.DailyInterestRate, err = decimal.NewFromString(daily); err != nil {
		return nil, fmt.Errorf("parse daily_interest_rate: %w", err)
	}
	return &s, nil
}
