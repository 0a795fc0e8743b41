package plan

import (
	"context"
)

type Repository interface {
	Create(ctx context.Context, p *SubscriptionPlan) error
	Get(ctx context.Context, id string) (*SubscriptionPlan, error)
	List(ctx context.Context) ([]*SubscriptionPlan, error)
	Update(ctx context.Context, p *SubscriptionPlan) error
}
