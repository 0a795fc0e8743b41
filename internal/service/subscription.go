package service

import (
	"context"
	"time"

	"github.com/liyaqa/billing/internal/domain/subscription"
	ierr "github.com/liyaqa/billing/internal/errors"
	"github.com/liyaqa/billing/internal/types"
)

// SubscriptionService owns the subscription state machine for a tenant:
// TRIAL and ACTIVE are live, CANCELLED and EXPIRED are terminal. A tenant
// holds at most one live subscription.
type SubscriptionService interface {
	Subscribe(ctx context.Context, req *SubscribeRequest) (*subscription.TenantSubscription, error)
	Activate(ctx context.Context, tenantID string) (*subscription.TenantSubscription, error)
	Cancel(ctx context.Context, tenantID, reason string) (*subscription.TenantSubscription, error)
	Renew(ctx context.Context, tenantID string) (*subscription.TenantSubscription, error)
	ChangePlan(ctx context.Context, tenantID, newPlanID string) (*subscription.TenantSubscription, error)
	GetSubscription(ctx context.Context, id string) (*subscription.TenantSubscription, error)
	GetActiveSubscription(ctx context.Context, tenantID string) (*subscription.TenantSubscription, error)
	GetExpiringSubscriptions(ctx context.Context, withinDays int) ([]*subscription.TenantSubscription, error)
	ExpireLapsed(ctx context.Context) (int, error)
}

type subscriptionService struct {
	ServiceParams
	invoicingService InvoicingService
}

func NewSubscriptionService(params ServiceParams) SubscriptionService {
	return &subscriptionService{
		ServiceParams:    params,
		invoicingService: NewInvoicingService(params),
	}
}

// SubscribeRequest opens a subscription for a tenant.
type SubscribeRequest struct {
	TenantID     string             `json:"tenant_id"`
	PlanID       string             `json:"plan_id"`
	BillingCycle types.BillingCycle `json:"billing_cycle"`
	StartTrial   bool               `json:"start_trial"`
}

func (r *SubscribeRequest) Validate() error {
	if r.TenantID == "" {
		return ierr.NewError("tenant id is required").
			Mark(ierr.ErrValidation)
	}
	if r.PlanID == "" {
		return ierr.NewError("plan id is required").
			Mark(ierr.ErrValidation)
	}
	return r.BillingCycle.Validate()
}

func (s *subscriptionService) Subscribe(ctx context.Context, req *SubscribeRequest) (*subscription.TenantSubscription, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	ctx = types.SetTenantID(ctx, req.TenantID)

	if _, err := s.PlanRepo.Get(ctx, req.PlanID); err != nil {
		return nil, err
	}

	existing, err := s.SubRepo.GetActiveByTenant(ctx, req.TenantID)
	if err != nil && !ierr.IsNotFound(err) {
		return nil, err
	}
	if existing != nil {
		return nil, ierr.WithError(subscription.ErrActiveSubscriptionExists).
			WithHintf("tenant %s already has subscription %s in status %s", req.TenantID, existing.ID, existing.SubscriptionStatus).
			Mark(ierr.ErrAlreadyExists)
	}

	now := time.Now().UTC()
	var sub *subscription.TenantSubscription
	if req.StartTrial {
		sub, err = subscription.NewTrial(ctx, req.PlanID, req.BillingCycle, now, s.Config.Billing.TrialDays)
	} else {
		sub, err = subscription.NewActive(ctx, req.PlanID, req.BillingCycle, now)
	}
	if err != nil {
		return nil, err
	}

	if err := s.SubRepo.Create(ctx, sub); err != nil {
		return nil, err
	}

	s.Logger.Infow("created subscription",
		"subscription_id", sub.ID,
		"tenant_id", sub.TenantID,
		"plan_id", sub.PlanID,
		"subscription_status", sub.SubscriptionStatus,
	)
	publishEvent(ctx, s.ServiceParams, types.WebhookEventSubscriptionCreated, sub)
	return sub, nil
}

func (s *subscriptionService) Activate(ctx context.Context, tenantID string) (*subscription.TenantSubscription, error) {
	ctx = types.SetTenantID(ctx, tenantID)
	sub, err := s.SubRepo.GetActiveByTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	if err := sub.Activate(time.Now().UTC()); err != nil {
		return nil, err
	}
	if err := s.SubRepo.Update(ctx, sub); err != nil {
		return nil, err
	}

	publishEvent(ctx, s.ServiceParams, types.WebhookEventSubscriptionActivated, sub)
	return sub, nil
}

func (s *subscriptionService) Cancel(ctx context.Context, tenantID, reason string) (*subscription.TenantSubscription, error) {
	ctx = types.SetTenantID(ctx, tenantID)
	// Look up regardless of status so cancelling an already-terminal
	// subscription surfaces an invalid-operation error, not a not-found.
	sub, err := s.SubRepo.GetLatestByTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	if err := sub.Cancel(reason, time.Now().UTC()); err != nil {
		return nil, err
	}
	if err := s.SubRepo.Update(ctx, sub); err != nil {
		return nil, err
	}

	s.Logger.Infow("cancelled subscription",
		"subscription_id", sub.ID,
		"tenant_id", sub.TenantID,
		"reason", reason,
	)
	publishEvent(ctx, s.ServiceParams, types.WebhookEventSubscriptionCancelled, sub)
	return sub, nil
}

func (s *subscriptionService) Renew(ctx context.Context, tenantID string) (*subscription.TenantSubscription, error) {
	ctx = types.SetTenantID(ctx, tenantID)
	sub, err := s.SubRepo.GetActiveByTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	if err := sub.Renew(); err != nil {
		return nil, err
	}
	if err := s.SubRepo.Update(ctx, sub); err != nil {
		return nil, err
	}

	publishEvent(ctx, s.ServiceParams, types.WebhookEventSubscriptionRenewed, sub)
	return sub, nil
}

// ChangePlan swaps the tenant's plan mid-period. An upgrade, where the new
// plan costs more for the subscription's cycle, is invoiced pro rata for
// the remainder of the period. A downgrade takes effect immediately but is
// only billed at the new price from the next renewal.
func (s *subscriptionService) ChangePlan(ctx context.Context, tenantID, newPlanID string) (*subscription.TenantSubscription, error) {
	ctx = types.SetTenantID(ctx, tenantID)
	sub, err := s.SubRepo.GetActiveByTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if sub.SubscriptionStatus != types.SubscriptionStatusActive {
		return nil, ierr.NewError("only active subscriptions can change plan").
			WithHintf("subscription %s is %s", sub.ID, sub.SubscriptionStatus).
			Mark(ierr.ErrInvalidOperation)
	}
	if sub.PlanID == newPlanID {
		return sub, nil
	}

	oldPlan, err := s.PlanRepo.Get(ctx, sub.PlanID)
	if err != nil {
		return nil, err
	}
	newPlan, err := s.PlanRepo.Get(ctx, newPlanID)
	if err != nil {
		return nil, err
	}

	effectiveDate := time.Now().UTC()
	err = s.DB.WithTx(ctx, func(txCtx context.Context) error {
		if _, err := s.invoicingService.GenerateProratedInvoice(txCtx, sub, oldPlan, newPlan, effectiveDate); err != nil {
			return err
		}
		if err := sub.ChangePlan(newPlanID); err != nil {
			return err
		}
		return s.SubRepo.Update(txCtx, sub)
	})
	if err != nil {
		return nil, err
	}

	s.Logger.Infow("changed subscription plan",
		"subscription_id", sub.ID,
		"tenant_id", sub.TenantID,
		"old_plan_id", oldPlan.ID,
		"new_plan_id", newPlan.ID,
	)
	publishEvent(ctx, s.ServiceParams, types.WebhookEventSubscriptionPlanChanged, sub)
	return sub, nil
}

func (s *subscriptionService) GetSubscription(ctx context.Context, id string) (*subscription.TenantSubscription, error) {
	return s.SubRepo.Get(ctx, id)
}

func (s *subscriptionService) GetActiveSubscription(ctx context.Context, tenantID string) (*subscription.TenantSubscription, error) {
	return s.SubRepo.GetActiveByTenant(ctx, tenantID)
}

// GetExpiringSubscriptions lists ACTIVE subscriptions whose period ends
// within the given number of days. Read-only, used for renewal reminders.
// Trials are excluded; they convert rather than expire.
func (s *subscriptionService) GetExpiringSubscriptions(ctx context.Context, withinDays int) ([]*subscription.TenantSubscription, error) {
	cutoff := time.Now().UTC().AddDate(0, 0, withinDays)
	return s.SubRepo.List(ctx, &types.SubscriptionFilter{
		SubscriptionStatus:     []types.SubscriptionStatus{types.SubscriptionStatusActive},
		CurrentPeriodEndWithin: &cutoff,
	})
}

// ExpireLapsed moves ACTIVE subscriptions whose period ended without a
// renewal to EXPIRED. Per-item failures are logged and skipped.
func (s *subscriptionService) ExpireLapsed(ctx context.Context) (int, error) {
	now := time.Now().UTC()
	subs, err := s.SubRepo.List(ctx, &types.SubscriptionFilter{
		SubscriptionStatus:     []types.SubscriptionStatus{types.SubscriptionStatusActive},
		CurrentPeriodEndBefore: &now,
	})
	if err != nil {
		return 0, err
	}

	count := 0
	for _, sub := range subs {
		tenantCtx := types.SetTenantID(ctx, sub.TenantID)
		if err := sub.Expire(); err != nil {
			s.Logger.Errorw("skipping subscription in expiry sweep",
				"subscription_id", sub.ID,
				"error", err,
			)
			continue
		}
		if err := s.SubRepo.Update(tenantCtx, sub); err != nil {
			s.Logger.Errorw("failed to persist expired subscription",
				"subscription_id", sub.ID,
				"error", err,
			)
			continue
		}
		publishEvent(tenantCtx, s.ServiceParams, types.WebhookEventSubscriptionExpired, sub)
		count++
	}

	s.Logger.Infow("expiry sweep complete", "expired", count, "candidates", len(subs))
	return count, nil
}
