package subscription

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ierr "github.com/liyaqa/billing/internal/errors"
	"github.com/liyaqa/billing/internal/types"
)

func testContext() context.Context {
	ctx := context.Background()
	ctx = types.SetTenantID(ctx, "tenant-1")
	ctx = types.SetUserID(ctx, "user-1")
	return ctx
}

func TestNewTrial(t *testing.T) {
	now := time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)

	sub, err := NewTrial(testContext(), "plan_basic", types.BillingCycleMonthly, now, 14)
	require.NoError(t, err)

	assert.Equal(t, types.SubscriptionStatusTrial, sub.SubscriptionStatus)
	assert.Equal(t, "tenant-1", sub.TenantID)
	assert.True(t, sub.CurrentPeriodStart.Equal(now))
	assert.True(t, sub.CurrentPeriodEnd.Equal(now.AddDate(0, 1, 0)))
	require.NotNil(t, sub.TrialEndsAt)
	assert.True(t, sub.TrialEndsAt.Equal(now.AddDate(0, 0, 14)))
	assert.True(t, sub.NextBillingDate().Equal(sub.CurrentPeriodEnd))
}

func TestNewActive(t *testing.T) {
	now := time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)

	sub, err := NewActive(testContext(), "plan_basic", types.BillingCycleAnnual, now)
	require.NoError(t, err)

	assert.Equal(t, types.SubscriptionStatusActive, sub.SubscriptionStatus)
	assert.Nil(t, sub.TrialEndsAt)
	assert.True(t, sub.CurrentPeriodEnd.Equal(now.AddDate(1, 0, 0)))
	require.NoError(t, sub.Validate())
}

func TestActivate(t *testing.T) {
	now := time.Now().UTC()
	sub, err := NewTrial(testContext(), "plan_basic", types.BillingCycleMonthly, now, 14)
	require.NoError(t, err)

	require.NoError(t, sub.Activate(now))
	assert.Equal(t, types.SubscriptionStatusActive, sub.SubscriptionStatus)

	// Activating again is rejected
	err = sub.Activate(now)
	assert.True(t, ierr.IsInvalidOperation(err))
}

func TestRenew(t *testing.T) {
	start := time.Date(2026, time.January, 15, 0, 0, 0, 0, time.UTC)
	sub, err := NewActive(testContext(), "plan_basic", types.BillingCycleMonthly, start)
	require.NoError(t, err)

	oldEnd := sub.CurrentPeriodEnd
	require.NoError(t, sub.Renew())

	assert.True(t, sub.CurrentPeriodStart.Equal(oldEnd), "new period starts where the old one ended")
	assert.True(t, sub.CurrentPeriodEnd.Equal(oldEnd.AddDate(0, 1, 0)))
	assert.Equal(t, types.SubscriptionStatusActive, sub.SubscriptionStatus)
}

func TestRenewTrialBecomesActive(t *testing.T) {
	now := time.Now().UTC()
	sub, err := NewTrial(testContext(), "plan_basic", types.BillingCycleMonthly, now, 14)
	require.NoError(t, err)

	require.NoError(t, sub.Renew())
	assert.Equal(t, types.SubscriptionStatusActive, sub.SubscriptionStatus)
}

func TestCancel(t *testing.T) {
	now := time.Now().UTC()
	sub, err := NewActive(testContext(), "plan_basic", types.BillingCycleMonthly, now)
	require.NoError(t, err)

	require.NoError(t, sub.Cancel("too expensive", now))
	assert.Equal(t, types.SubscriptionStatusCancelled, sub.SubscriptionStatus)
	require.NotNil(t, sub.CancellationReason)
	assert.Equal(t, "too expensive", *sub.CancellationReason)
	assert.NotNil(t, sub.CancelledAt)

	// Cancelling a terminal subscription is an explicit error
	err = sub.Cancel("again", now)
	assert.True(t, ierr.IsInvalidOperation(err))

	// As is renewing or changing plan
	assert.True(t, ierr.IsInvalidOperation(sub.Renew()))
	assert.True(t, ierr.IsInvalidOperation(sub.ChangePlan("plan_pro")))
}

func TestExpire(t *testing.T) {
	now := time.Now().UTC()

	active, err := NewActive(testContext(), "plan_basic", types.BillingCycleMonthly, now)
	require.NoError(t, err)
	require.NoError(t, active.Expire())
	assert.Equal(t, types.SubscriptionStatusExpired, active.SubscriptionStatus)

	trial, err := NewTrial(testContext(), "plan_basic", types.BillingCycleMonthly, now, 14)
	require.NoError(t, err)
	assert.True(t, ierr.IsInvalidOperation(trial.Expire()), "trial subscriptions do not expire")
}

func TestChangePlan(t *testing.T) {
	now := time.Now().UTC()
	sub, err := NewActive(testContext(), "plan_basic", types.BillingCycleMonthly, now)
	require.NoError(t, err)

	periodStart, periodEnd := sub.CurrentPeriodStart, sub.CurrentPeriodEnd
	require.NoError(t, sub.ChangePlan("plan_pro"))

	assert.Equal(t, "plan_pro", sub.PlanID)
	assert.True(t, sub.CurrentPeriodStart.Equal(periodStart), "plan change keeps the billing period")
	assert.True(t, sub.CurrentPeriodEnd.Equal(periodEnd))
}
