package plan

import (
	"context"

	"github.com/shopspring/decimal"

	ierr "github.com/liyaqa/billing/internal/errors"
	"github.com/liyaqa/billing/internal/types"
)

// SubscriptionPlan is a priced tier a tenant can subscribe to. Prices are
// exclusive of VAT.
type SubscriptionPlan struct {
	ID           string            `db:"id" json:"id"`
	Name         string            `db:"name" json:"name"`
	Tier         string            `db:"tier" json:"tier"`
	MonthlyPrice decimal.Decimal   `db:"monthly_price" json:"monthly_price"`
	AnnualPrice  decimal.Decimal   `db:"annual_price" json:"annual_price"`
	Currency     string            `db:"currency" json:"currency"`
	Features     map[string]string `db:"-" json:"features,omitempty"`
	types.BaseModel
}

func New(ctx context.Context, name, tier string, monthlyPrice, annualPrice decimal.Decimal, currency string) *SubscriptionPlan {
	return &SubscriptionPlan{
		ID:           types.GenerateUUIDWithPrefix(types.UUID_PREFIX_PLAN),
		Name:         name,
		Tier:         tier,
		MonthlyPrice: monthlyPrice,
		AnnualPrice:  annualPrice,
		Currency:     currency,
		BaseModel:    types.GetDefaultBaseModel(ctx),
	}
}

// PriceFor returns the plan price for one billing period of the given cycle.
func (p *SubscriptionPlan) PriceFor(cycle types.BillingCycle) (decimal.Decimal, error) {
	switch cycle {
	case types.BillingCycleMonthly:
		return p.MonthlyPrice, nil
	case types.BillingCycleAnnual:
		return p.AnnualPrice, nil
	default:
		return decimal.Zero, ierr.NewError("unknown billing cycle").
			WithHintf("billing cycle %s is not supported", cycle).
			Mark(ierr.ErrValidation)
	}
}

func (p *SubscriptionPlan) Validate() error {
	if p.Name == "" {
		return ierr.NewError("plan name is required").
			Mark(ierr.ErrValidation)
	}
	if p.MonthlyPrice.IsNegative() || p.AnnualPrice.IsNegative() {
		return ierr.NewError("plan prices cannot be negative").
			Mark(ierr.ErrValidation)
	}
	return nil
}
