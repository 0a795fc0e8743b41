package proration

import (
	"context"

	"github.com/shopspring/decimal"

	ierr "github.com/liyaqa/billing/internal/errors"
	"github.com/liyaqa/billing/internal/types"
)

// Calculator computes the prorated charge for a plan change.
type Calculator interface {
	Calculate(ctx context.Context, params PlanChangeParams) (*PlanChangeResult, error)
}

// NewCalculator returns the day-based proration calculator. Days are
// counted on UTC calendar dates over half-open ranges; partial days at
// the effective date count as remaining.
func NewCalculator() Calculator {
	return &dayBasedCalculator{}
}

type dayBasedCalculator struct{}

func (c *dayBasedCalculator) Calculate(ctx context.Context, params PlanChangeParams) (*PlanChangeResult, error) {
	if err := validateParams(params); err != nil {
		return nil, err
	}

	totalDays := types.DaysBetween(params.CurrentPeriodStart, params.CurrentPeriodEnd)
	remainingDays := types.DaysBetween(params.EffectiveDate, params.CurrentPeriodEnd)

	result := &PlanChangeResult{
		TotalDays:      totalDays,
		RemainingDays:  remainingDays,
		NetAmount:      decimal.Zero,
		PeriodStart:    params.CurrentPeriodStart,
		PeriodEnd:      params.CurrentPeriodEnd,
		EffectiveDate:  params.EffectiveDate,
		SubscriptionID: params.SubscriptionID,
	}

	if remainingDays <= 0 {
		return result, nil
	}

	// Keep full precision through the intermediate math and round once
	// at the end. Downgrades and no-op changes produce no charge: the
	// tenant keeps the higher tier until the period ends.
	diff := params.NewPrice.Sub(params.OldPrice)
	net := diff.
		Div(decimal.NewFromInt(int64(totalDays))).
		Mul(decimal.NewFromInt(int64(remainingDays))).
		Round(2)

	if net.IsPositive() {
		result.NetAmount = net
		result.ShouldInvoice = true
	}
	return result, nil
}

func validateParams(params PlanChangeParams) error {
	if !params.CurrentPeriodEnd.After(params.CurrentPeriodStart) {
		return ierr.NewError("billing period end must be after start").
			WithHintf("got [%s, %s)", params.CurrentPeriodStart, params.CurrentPeriodEnd).
			Mark(ierr.ErrValidation)
	}
	if params.EffectiveDate.Before(params.CurrentPeriodStart) {
		return ierr.NewError("effective date precedes the billing period").
			WithHintf("effective date %s, period start %s", params.EffectiveDate, params.CurrentPeriodStart).
			Mark(ierr.ErrValidation)
	}
	if params.EffectiveDate.After(params.CurrentPeriodEnd) {
		return ierr.NewError("effective date is past the billing period").
			WithHintf("effective date %s, period end %s", params.EffectiveDate, params.CurrentPeriodEnd).
			Mark(ierr.ErrValidation)
	}
	if params.OldPrice.IsNegative() || params.NewPrice.IsNegative() {
		return ierr.NewError("plan prices cannot be negative").
			Mark(ierr.ErrValidation)
	}
	return nil
}
