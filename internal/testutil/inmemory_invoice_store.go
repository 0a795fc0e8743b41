package testutil

import (
	"context"
	"time"

	"github.com/liyaqa/billing/internal/domain/invoice"
	"github.com/liyaqa/billing/internal/types"
)

// InMemoryInvoiceStore implements invoice.Repository
type InMemoryInvoiceStore struct {
	*InMemoryStore[*invoice.Invoice]
}

// NewInMemoryInvoiceStore creates a new in-memory invoice store
func NewInMemoryInvoiceStore() *InMemoryInvoiceStore {
	return &InMemoryInvoiceStore{
		InMemoryStore: NewInMemoryStore[*invoice.Invoice](),
	}
}

func copyInvoice(inv *invoice.Invoice) *invoice.Invoice {
	if inv == nil {
		return nil
	}
	c := *inv
	return &c
}

func (s *InMemoryInvoiceStore) Create(ctx context.Context, inv *invoice.Invoice) error {
	return s.InMemoryStore.Create(ctx, inv.ID, copyInvoice(inv))
}

func (s *InMemoryInvoiceStore) Get(ctx context.Context, id string) (*invoice.Invoice, error) {
	inv, err := s.InMemoryStore.Get(ctx, id)
	if err != nil {
		return nil, invoice.ErrInvoiceNotFound
	}
	return copyInvoice(inv), nil
}

func (s *InMemoryInvoiceStore) GetByNumber(ctx context.Context, invoiceNumber string) (*invoice.Invoice, error) {
	invoices, err := s.InMemoryStore.List(ctx, nil, func(_ context.Context, inv *invoice.Invoice, _ interface{}) bool {
		return inv.InvoiceNumber == invoiceNumber
	}, nil)
	if err != nil || len(invoices) == 0 {
		return nil, invoice.ErrInvoiceNotFound
	}
	return copyInvoice(invoices[0]), nil
}

func (s *InMemoryInvoiceStore) Update(ctx context.Context, inv *invoice.Invoice) error {
	if err := s.InMemoryStore.Update(ctx, inv.ID, copyInvoice(inv)); err != nil {
		return invoice.ErrInvoiceNotFound
	}
	return nil
}

func (s *InMemoryInvoiceStore) List(ctx context.Context, filter *types.InvoiceFilter) ([]*invoice.Invoice, error) {
	invoices, err := s.InMemoryStore.List(ctx, filter, invoiceFilterFn, func(a, b *invoice.Invoice) bool {
		return a.CreatedAt.After(b.CreatedAt)
	})
	if err != nil {
		return nil, err
	}

	result := make([]*invoice.Invoice, len(invoices))
	for i, inv := range invoices {
		result[i] = copyInvoice(inv)
	}
	return result, nil
}

func (s *InMemoryInvoiceStore) ExistsForPeriod(ctx context.Context, tenantID string, periodStart, periodEnd time.Time) (bool, error) {
	count, err := s.InMemoryStore.Count(ctx, nil, func(_ context.Context, inv *invoice.Invoice, _ interface{}) bool {
		return inv.TenantID == tenantID &&
			inv.InvoiceStatus != types.InvoiceStatusCancelled &&
			inv.BillingPeriodStart != nil && inv.BillingPeriodStart.Equal(periodStart) &&
			inv.BillingPeriodEnd != nil && inv.BillingPeriodEnd.Equal(periodEnd)
	})
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func invoiceFilterFn(_ context.Context, inv *invoice.Invoice, rawFilter interface{}) bool {
	filter, ok := rawFilter.(*types.InvoiceFilter)
	if !ok || filter == nil {
		return true
	}

	if filter.TenantID != "" && inv.TenantID != filter.TenantID {
		return false
	}
	if filter.SubscriptionID != "" {
		if inv.SubscriptionID == nil || *inv.SubscriptionID != filter.SubscriptionID {
			return false
		}
	}
	if len(filter.InvoiceStatus) > 0 {
		matched := false
		for _, status := range filter.InvoiceStatus {
			if inv.InvoiceStatus == status {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}
	if filter.DueDateBefore != nil {
		if inv.DueDate == nil || !inv.DueDate.Before(*filter.DueDateBefore) {
			return false
		}
	}
	return true
}
