package service

import (
	"condo-automation/internal/core/domain"

	"github.com/shopspring/decimal"
)

var (
	hundred = decimal.NewFromInt(100)
	zero    = decimal.Zero
)

// Invoice is the part of an invoice the automation rules look at.
type Invoice struct {
	// AgeDays is the number of days since the due date. Negative means not yet due.
	AgeDays        int
	Principal      decimal.Decimal
	LateFeeApplied bool
}

// Evaluation lists the due actions and, when a late fee is due, its amount.
type Evaluation struct {
	Actions []domain.AutomationAction `json:"actions"`
	LateFee decimal.Decimal           `json:"late_fee"`
}

// Has reports whether action is due.
func (e Evaluation) Has(action domain.AutomationAction) bool {
	for _, a := range e.Actions {
		if a == action {
			return true
		}
	}
	return false
}

// EvaluateInvoice decides which actions are due for inv. It has no side effects;
// persisting the outcome is the caller's job.
func EvaluateInvoice(s domain.AutomationSettings, inv Invoice) Evaluation {
	ev := Evaluation{Actions: []domain.AutomationAction{}, LateFee: zero}
	if inv.AgeDays < 0 {
		return ev
	}

	if s.ReminderEnabled && inv.AgeDays >= s.ReminderDays {
		ev.Actions = append(ev.Actions, domain.ActionReminder)
	}
	if s.LateFeeEnabled && !inv.LateFeeApplied && inv.AgeDays >= s.LateFeeDays {
		ev.Actions = append(ev.Actions, domain.ActionLateFee)
		ev.LateFee = LateFee(s, inv.Principal, inv.AgeDays)
	}
	if s.AutoChargeEnabled && inv.AgeDays >= s.AutoChargeDays {
		ev.Actions = append(ev.Actions, domain.ActionAutoCharge)
	}
	if s.DelinquencyReportEnabled && inv.AgeDays >= s.DelinquencyReportDays {
		ev.Actions = append(ev.Actions, domain.ActionDelinquencyReport)
	}
	return ev
}

// LateFee returns principal × pct/100 + principal × daily/100 × days past the
// late-fee threshold. The flat part applies once; interest accrues only after the
// threshold. Rates are clamped to [0, 100] and a negative principal yields zero.
func LateFee(s domain.AutomationSettings, principal decimal.Decimal, ageDays int) decimal.Decimal {
	if principal.IsNegative() || principal.IsZero() {
		return zero
	}
	pct := clampPercent(s.LateFeePercentage)
	daily := clampPercent(s.DailyInterestRate)

	flat := principal.Mul(pct).Div(hundred)
	overdue := max(0, ageDays-s.LateFeeDays)
	interest := principal.Mul(daily).Div(hundred).Mul(decimal.NewFromInt(int64(overdue)))
	return flat.Add(interest)
}

func clampPercent(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return zero
	}
	if d.GreaterThan(hundred) {
		return hundred
	}
	return d
}
