package subscription

import (
	"context"

	"github.com/liyaqa/billing/internal/types"
)

type Repository interface {
	Create(ctx context.Context, sub *TenantSubscription) error
	Get(ctx context.Context, id string) (*TenantSubscription, error)
	// GetActiveByTenant returns the tenant's non-terminal subscription
	// (TRIAL or ACTIVE), or ErrSubscriptionNotFound when there is none.
	GetActiveByTenant(ctx context.Context, tenantID string) (*TenantSubscription, error)
	// GetLatestByTenant returns the tenant's most recently created
	// subscription regardless of status, or ErrSubscriptionNotFound.
	GetLatestByTenant(ctx context.Context, tenantID string) (*TenantSubscription, error)
	Update(ctx context.Context, sub *TenantSubscription) error
	List(ctx context.Context, filter *types.SubscriptionFilter) ([]*TenantSubscription, error)
}
