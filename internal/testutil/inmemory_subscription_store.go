package testutil

import (
	"context"

	"github.com/liyaqa/billing/internal/domain/subscription"
	"github.com/liyaqa/billing/internal/types"
)

// InMemorySubscriptionStore implements subscription.Repository
type InMemorySubscriptionStore struct {
	*InMemoryStore[*subscription.TenantSubscription]
}

// NewInMemorySubscriptionStore creates a new in-memory subscription store
func NewInMemorySubscriptionStore() *InMemorySubscriptionStore {
	return &InMemorySubscriptionStore{
		InMemoryStore: NewInMemoryStore[*subscription.TenantSubscription](),
	}
}

func copySubscription(sub *subscription.TenantSubscription) *subscription.TenantSubscription {
	if sub == nil {
		return nil
	}
	c := *sub
	return &c
}

func (s *InMemorySubscriptionStore) Create(ctx context.Context, sub *subscription.TenantSubscription) error {
	return s.InMemoryStore.Create(ctx, sub.ID, copySubscription(sub))
}

func (s *InMemorySubscriptionStore) Get(ctx context.Context, id string) (*subscription.TenantSubscription, error) {
	sub, err := s.InMemoryStore.Get(ctx, id)
	if err != nil {
		return nil, subscription.ErrSubscriptionNotFound
	}
	return copySubscription(sub), nil
}

func (s *InMemorySubscriptionStore) GetActiveByTenant(ctx context.Context, tenantID string) (*subscription.TenantSubscription, error) {
	subs, err := s.InMemoryStore.List(ctx, nil, func(_ context.Context, sub *subscription.TenantSubscription, _ interface{}) bool {
		return sub.TenantID == tenantID && !sub.SubscriptionStatus.IsTerminal()
	}, nil)
	if err != nil || len(subs) == 0 {
		return nil, subscription.ErrSubscriptionNotFound
	}
	return copySubscription(subs[0]), nil
}

func (s *InMemorySubscriptionStore) GetLatestByTenant(ctx context.Context, tenantID string) (*subscription.TenantSubscription, error) {
	subs, err := s.InMemoryStore.List(ctx, nil, func(_ context.Context, sub *subscription.TenantSubscription, _ interface{}) bool {
		return sub.TenantID == tenantID
	}, func(a, b *subscription.TenantSubscription) bool {
		return a.CreatedAt.Before(b.CreatedAt)
	})
	if err != nil || len(subs) == 0 {
		return nil, subscription.ErrSubscriptionNotFound
	}
	return copySubscription(subs[len(subs)-1]), nil
}

func (s *InMemorySubscriptionStore) Update(ctx context.Context, sub *subscription.TenantSubscription) error {
	if err := s.InMemoryStore.Update(ctx, sub.ID, copySubscription(sub)); err != nil {
		return subscription.ErrSubscriptionNotFound
	}
	return nil
}

func (s *InMemorySubscriptionStore) List(ctx context.Context, filter *types.SubscriptionFilter) ([]*subscription.TenantSubscription, error) {
	subs, err := s.InMemoryStore.List(ctx, filter, subscriptionFilterFn, func(a, b *subscription.TenantSubscription) bool {
		return a.CreatedAt.Before(b.CreatedAt)
	})
	if err != nil {
		return nil, err
	}

	result := make([]*subscription.TenantSubscription, len(subs))
	for i, sub := range subs {
		result[i] = copySubscription(sub)
	}
	return result, nil
}

func subscriptionFilterFn(_ context.Context, sub *subscription.TenantSubscription, rawFilter interface{}) bool {
	filter, ok := rawFilter.(*types.SubscriptionFilter)
	if !ok || filter == nil {
		return true
	}

	if filter.TenantID != "" && sub.TenantID != filter.TenantID {
		return false
	}
	if len(filter.SubscriptionStatus) > 0 {
		matched := false
		for _, status := range filter.SubscriptionStatus {
			if sub.SubscriptionStatus == status {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}
	if filter.NextBillingDateLTE != nil && sub.CurrentPeriodEnd.After(*filter.NextBillingDateLTE) {
		return false
	}
	if filter.CurrentPeriodEndBefore != nil && !sub.CurrentPeriodEnd.Before(*filter.CurrentPeriodEndBefore) {
		return false
	}
	if filter.CurrentPeriodEndWithin != nil && sub.CurrentPeriodEnd.After(*filter.CurrentPeriodEndWithin) {
		return false
	}
	return true
}
