package proration

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/liyaqa/billing/internal/types"
)

// PlanChangeParams holds the input for prorating a mid-period plan change.
// The billing period is half-open: [CurrentPeriodStart, CurrentPeriodEnd).
type PlanChangeParams struct {
	SubscriptionID     string
	CurrentPeriodStart time.Time
	CurrentPeriodEnd   time.Time
	EffectiveDate      time.Time
	BillingCycle       types.BillingCycle

	// Full-period prices of the old and new plans, VAT exclusive.
	OldPrice decimal.Decimal
	NewPrice decimal.Decimal
}

// PlanChangeResult is the prorated outcome of a plan change. NetAmount is
// the VAT-exclusive charge for the remainder of the period; a zero or
// negative difference produces no charge.
type PlanChangeResult struct {
	NetAmount      decimal.Decimal `json:"net_amount"`
	TotalDays      int             `json:"total_days"`
	RemainingDays  int             `json:"remaining_days"`
	ShouldInvoice  bool            `json:"should_invoice"`
	PeriodStart    time.Time       `json:"period_start"`
	PeriodEnd      time.Time       `json:"period_end"`
	EffectiveDate  time.Time       `json:"effective_date"`
	SubscriptionID string          `json:"subscription_id"`
}
