package proration

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ierr "github.com/liyaqa/billing/internal/errors"
	"github.com/liyaqa/billing/internal/types"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func params(periodStart, periodEnd, effective time.Time, oldPrice, newPrice string) PlanChangeParams {
	return PlanChangeParams{
		SubscriptionID:     "subs_1",
		CurrentPeriodStart: periodStart,
		CurrentPeriodEnd:   periodEnd,
		EffectiveDate:      effective,
		BillingCycle:       types.BillingCycleMonthly,
		OldPrice:           decimal.RequireFromString(oldPrice),
		NewPrice:           decimal.RequireFromString(newPrice),
	}
}

func TestCalculateUpgrade(t *testing.T) {
	calc := NewCalculator()

	// 30-day period, upgrade halfway: 15 remaining days of the 300 price
	// difference = 150.00
	result, err := calc.Calculate(context.Background(), params(
		date(2026, time.April, 1), date(2026, time.May, 1), date(2026, time.April, 16),
		"300.00", "600.00"))
	require.NoError(t, err)

	assert.Equal(t, 30, result.TotalDays)
	assert.Equal(t, 15, result.RemainingDays)
	assert.True(t, result.ShouldInvoice)
	assert.True(t, result.NetAmount.Equal(decimal.RequireFromString("150.00")),
		"net = %s", result.NetAmount)
}

func TestCalculateRoundsOnceAtEnd(t *testing.T) {
	calc := NewCalculator()

	// 31-day period, 10 remaining days, 100.00 difference:
	// 100/31*10 = 32.258... rounds to 32.26
	result, err := calc.Calculate(context.Background(), params(
		date(2026, time.January, 1), date(2026, time.February, 1), date(2026, time.January, 22),
		"200.00", "300.00"))
	require.NoError(t, err)

	assert.Equal(t, 31, result.TotalDays)
	assert.Equal(t, 10, result.RemainingDays)
	assert.True(t, result.NetAmount.Equal(decimal.RequireFromString("32.26")),
		"net = %s", result.NetAmount)
}

func TestCalculateDowngradeProducesNoCharge(t *testing.T) {
	calc := NewCalculator()

	result, err := calc.Calculate(context.Background(), params(
		date(2026, time.April, 1), date(2026, time.May, 1), date(2026, time.April, 16),
		"600.00", "300.00"))
	require.NoError(t, err)

	assert.False(t, result.ShouldInvoice)
	assert.True(t, result.NetAmount.IsZero())
}

func TestCalculateSamePriceProducesNoCharge(t *testing.T) {
	calc := NewCalculator()

	result, err := calc.Calculate(context.Background(), params(
		date(2026, time.April, 1), date(2026, time.May, 1), date(2026, time.April, 16),
		"300.00", "300.00"))
	require.NoError(t, err)

	assert.False(t, result.ShouldInvoice)
}

func TestCalculateAtPeriodEnd(t *testing.T) {
	calc := NewCalculator()

	// No remaining days, nothing to charge
	result, err := calc.Calculate(context.Background(), params(
		date(2026, time.April, 1), date(2026, time.May, 1), date(2026, time.May, 1),
		"300.00", "600.00"))
	require.NoError(t, err)

	assert.Equal(t, 0, result.RemainingDays)
	assert.False(t, result.ShouldInvoice)
}

func TestCalculateValidation(t *testing.T) {
	calc := NewCalculator()

	t.Run("effective date before period", func(t *testing.T) {
		_, err := calc.Calculate(context.Background(), params(
			date(2026, time.April, 1), date(2026, time.May, 1), date(2026, time.March, 1),
			"300.00", "600.00"))
		assert.True(t, ierr.IsValidation(err))
	})

	t.Run("effective date past period", func(t *testing.T) {
		_, err := calc.Calculate(context.Background(), params(
			date(2026, time.April, 1), date(2026, time.May, 1), date(2026, time.June, 1),
			"300.00", "600.00"))
		assert.True(t, ierr.IsValidation(err))
	})

	t.Run("inverted period", func(t *testing.T) {
		_, err := calc.Calculate(context.Background(), params(
			date(2026, time.May, 1), date(2026, time.April, 1), date(2026, time.April, 15),
			"300.00", "600.00"))
		assert.True(t, ierr.IsValidation(err))
	})
}
