package testutil

import (
	"context"

	"github.com/liyaqa/billing/internal/domain/plan"
)

// InMemoryPlanStore implements plan.Repository
type InMemoryPlanStore struct {
	*InMemoryStore[*plan.SubscriptionPlan]
}

// NewInMemoryPlanStore creates a new in-memory plan store
func NewInMemoryPlanStore() *InMemoryPlanStore {
	return &InMemoryPlanStore{
		InMemoryStore: NewInMemoryStore[*plan.SubscriptionPlan](),
	}
}

func copyPlan(p *plan.SubscriptionPlan) *plan.SubscriptionPlan {
	if p == nil {
		return nil
	}
	c := *p
	return &c
}

func (s *InMemoryPlanStore) Create(ctx context.Context, p *plan.SubscriptionPlan) error {
	return s.InMemoryStore.Create(ctx, p.ID, copyPlan(p))
}

func (s *InMemoryPlanStore) Get(ctx context.Context, id string) (*plan.SubscriptionPlan, error) {
	p, err := s.InMemoryStore.Get(ctx, id)
	if err != nil {
		return nil, plan.ErrPlanNotFound
	}
	return copyPlan(p), nil
}

func (s *InMemoryPlanStore) List(ctx context.Context) ([]*plan.SubscriptionPlan, error) {
	plans, err := s.InMemoryStore.List(ctx, nil, nil, func(a, b *plan.SubscriptionPlan) bool {
		return a.MonthlyPrice.LessThan(b.MonthlyPrice)
	})
	if err != nil {
		return nil, err
	}

	result := make([]*plan.SubscriptionPlan, len(plans))
	for i, p := range plans {
		result[i] = copyPlan(p)
	}
	return result, nil
}

func (s *InMemoryPlanStore) Update(ctx context.Context, p *plan.SubscriptionPlan) error {
	if err := s.InMemoryStore.Update(ctx, p.ID, copyPlan(p)); err != nil {
		return plan.ErrPlanNotFound
	}
	return nil
}
