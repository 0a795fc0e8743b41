package subscription

import (
	"context"
	"time"

	ierr "github.com/liyaqa/billing/internal/errors"
	"github.com/liyaqa/billing/internal/types"
)

// TenantSubscription is a tenant's hold on a plan. A tenant may carry at
// most one subscription that is not CANCELLED or EXPIRED. The billing
// period is half-open: [CurrentPeriodStart, CurrentPeriodEnd).
type TenantSubscription struct {
	ID                 string                   `db:"id" json:"id"`
	PlanID             string                   `db:"plan_id" json:"plan_id"`
	BillingCycle       types.BillingCycle       `db:"billing_cycle" json:"billing_cycle"`
	SubscriptionStatus types.SubscriptionStatus `db:"subscription_status" json:"subscription_status"`
	CurrentPeriodStart time.Time                `db:"current_period_start" json:"current_period_start"`
	CurrentPeriodEnd   time.Time                `db:"current_period_end" json:"current_period_end"`
	TrialEndsAt        *time.Time               `db:"trial_ends_at" json:"trial_ends_at,omitempty"`
	CancellationReason *string                  `db:"cancellation_reason" json:"cancellation_reason,omitempty"`
	CancelledAt        *time.Time               `db:"cancelled_at" json:"cancelled_at,omitempty"`
	types.BaseModel
}

// NextBillingDate is when the subscription is due its next invoice,
// derived from the current period end.
func (s *TenantSubscription) NextBillingDate() time.Time {
	return s.CurrentPeriodEnd
}

// NewTrial creates a TRIAL subscription starting now, with the trial window
// overlaid on the first billing period.
func NewTrial(ctx context.Context, planID string, cycle types.BillingCycle, now time.Time, trialDays int) (*TenantSubscription, error) {
	sub, err := newSubscription(ctx, planID, cycle, now)
	if err != nil {
		return nil, err
	}
	trialEnd := now.AddDate(0, 0, trialDays)
	sub.SubscriptionStatus = types.SubscriptionStatusTrial
	sub.TrialEndsAt = &trialEnd
	return sub, nil
}

// NewActive creates an ACTIVE subscription starting now, without a trial.
func NewActive(ctx context.Context, planID string, cycle types.BillingCycle, now time.Time) (*TenantSubscription, error) {
	sub, err := newSubscription(ctx, planID, cycle, now)
	if err != nil {
		return nil, err
	}
	sub.SubscriptionStatus = types.SubscriptionStatusActive
	return sub, nil
}

func newSubscription(ctx context.Context, planID string, cycle types.BillingCycle, now time.Time) (*TenantSubscription, error) {
	if err := cycle.Validate(); err != nil {
		return nil, err
	}
	periodEnd, err := types.NextBillingDate(now, cycle)
	if err != nil {
		return nil, err
	}
	return &TenantSubscription{
		ID:                 types.GenerateUUIDWithPrefix(types.UUID_PREFIX_SUBSCRIPTION),
		PlanID:             planID,
		BillingCycle:       cycle,
		CurrentPeriodStart: now,
		CurrentPeriodEnd:   periodEnd,
		BaseModel:          types.GetDefaultBaseModel(ctx),
	}, nil
}

// Activate moves a TRIAL subscription to ACTIVE, ending the trial.
func (s *TenantSubscription) Activate(now time.Time) error {
	if s.SubscriptionStatus != types.SubscriptionStatusTrial {
		return ierr.NewError("only trial subscriptions can be activated").
			WithHintf("subscription %s is %s", s.ID, s.SubscriptionStatus).
			Mark(ierr.ErrInvalidOperation)
	}
	s.SubscriptionStatus = types.SubscriptionStatusActive
	s.TrialEndsAt = &now
	return nil
}

// Renew shifts the billing period forward by one cycle: the new period
// starts where the old one ended. A TRIAL subscription renews into ACTIVE.
func (s *TenantSubscription) Renew() error {
	if s.SubscriptionStatus.IsTerminal() {
		return ierr.NewError("cannot renew a terminal subscription").
			WithHintf("subscription %s is %s", s.ID, s.SubscriptionStatus).
			Mark(ierr.ErrInvalidOperation)
	}

	newStart := s.CurrentPeriodEnd
	newEnd, err := types.NextBillingDate(newStart, s.BillingCycle)
	if err != nil {
		return err
	}

	s.CurrentPeriodStart = newStart
	s.CurrentPeriodEnd = newEnd
	s.SubscriptionStatus = types.SubscriptionStatusActive
	return nil
}

// Cancel is terminal. Cancelling an already-terminal subscription is an
// explicit error, not a no-op.
func (s *TenantSubscription) Cancel(reason string, now time.Time) error {
	if s.SubscriptionStatus.IsTerminal() {
		return ierr.NewError("subscription already terminal").
			WithHintf("subscription %s is %s", s.ID, s.SubscriptionStatus).
			Mark(ierr.ErrInvalidOperation)
	}
	s.SubscriptionStatus = types.SubscriptionStatusCancelled
	s.CancellationReason = &reason
	s.CancelledAt = &now
	return nil
}

// Expire is the system-driven terminal transition for an ACTIVE
// subscription whose period lapsed without renewal.
func (s *TenantSubscription) Expire() error {
	if s.SubscriptionStatus != types.SubscriptionStatusActive {
		return ierr.NewError("only active subscriptions can expire").
			WithHintf("subscription %s is %s", s.ID, s.SubscriptionStatus).
			Mark(ierr.ErrInvalidOperation)
	}
	s.SubscriptionStatus = types.SubscriptionStatusExpired
	return nil
}

// ChangePlan swaps the plan reference. Status and period are untouched;
// proration is the invoicing engine's concern.
func (s *TenantSubscription) ChangePlan(newPlanID string) error {
	if s.SubscriptionStatus.IsTerminal() {
		return ierr.NewError("cannot change plan on a terminal subscription").
			WithHintf("subscription %s is %s", s.ID, s.SubscriptionStatus).
			Mark(ierr.ErrInvalidOperation)
	}
	s.PlanID = newPlanID
	return nil
}

func (s *TenantSubscription) Validate() error {
	if !s.CurrentPeriodEnd.After(s.CurrentPeriodStart) {
		return ierr.NewError("current period end must be after start").
			Mark(ierr.ErrValidation)
	}
	if err := s.BillingCycle.Validate(); err != nil {
		return err
	}
	return s.SubscriptionStatus.Validate()
}
