package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AutomationSettings is the per-tenant billing automation configuration.
// Percentages are expressed in percent (2 means 2%).
type AutomationSettings struct {
	TenantID uuid.UUID `json:"tenant_id"`

	ReminderEnabled bool `json:"reminder_enabled"`
	ReminderDays    int  `json:"reminder_days"`

	LateFeeEnabled    bool            `json:"late_fee_enabled"`
	LateFeeDays       int             `json:"late_fee_days"`
	LateFeePercentage decimal.Decimal `json:"late_fee_percentage"`
	DailyInterestRate decimal.Decimal `json:"daily_interest_rate"`

	AutoChargeEnabled bool `json:"auto_charge_enabled"`
	AutoChargeDays    int  `json:"auto_charge_days"`

	DelinquencyReportEnabled bool `json:"delinquency_report_enabled"`
	DelinquencyReportDays    int  `json:"delinquency_report_days"`

	EmailEnabled    bool `json:"email_enabled"`
	WhatsAppEnabled bool `json:"whatsapp_enabled"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DefaultAutomationSettings returns the settings a tenant gets on first access.
func DefaultAutomationSettings(tenantID uuid.UUID, now time.Time) AutomationSettings {
	return AutomationSettings{
		TenantID:                 tenantID,
		ReminderEnabled:          true,
		ReminderDays:             3,
		LateFeeEnabled:           true,
		LateFeeDays:              5,
		LateFeePercentage:        decimal.NewFromInt(2),
		DailyInterestRate:        decimal.RequireFromString("0.0333"),
		AutoChargeEnabled:        false,
		AutoChargeDays:           10,
		DelinquencyReportEnabled: true,
		DelinquencyReportDays:    30,
		EmailEnabled:             true,
		WhatsAppEnabled:          false,
		CreatedAt:                now,
		UpdatedAt:                now,
	}
}

// AutomationAction is one billing action the evaluator may decide is due.
type AutomationAction string

const (
	ActionReminder          AutomationAction = "reminder"
	ActionLateFee           AutomationAction = "late_fee"
	ActionAutoCharge        AutomationAction = "auto_charge"
	ActionDelinquencyReport AutomationAction = "delinquency_report"
)
