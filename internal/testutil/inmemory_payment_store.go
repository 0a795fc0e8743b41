package testutil

import (
	"context"

	"github.com/liyaqa/billing/internal/domain/payment"
)

// InMemoryPaymentStore implements payment.Repository
type InMemoryPaymentStore struct {
	*InMemoryStore[*payment.PaymentRecord]
}

// NewInMemoryPaymentStore creates a new in-memory payment record store
func NewInMemoryPaymentStore() *InMemoryPaymentStore {
	return &InMemoryPaymentStore{
		InMemoryStore: NewInMemoryStore[*payment.PaymentRecord](),
	}
}

func copyPaymentRecord(record *payment.PaymentRecord) *payment.PaymentRecord {
	if record == nil {
		return nil
	}
	c := *record
	return &c
}

func (s *InMemoryPaymentStore) Create(ctx context.Context, record *payment.PaymentRecord) error {
	return s.InMemoryStore.Create(ctx, record.ID, copyPaymentRecord(record))
}

func (s *InMemoryPaymentStore) ListByInvoice(ctx context.Context, invoiceID string) ([]*payment.PaymentRecord, error) {
	records, err := s.InMemoryStore.List(ctx, nil, func(_ context.Context, record *payment.PaymentRecord, _ interface{}) bool {
		return record.InvoiceID == invoiceID
	}, func(a, b *payment.PaymentRecord) bool {
		return a.ReceivedAt.Before(b.ReceivedAt)
	})
	if err != nil {
		return nil, err
	}

	result := make([]*payment.PaymentRecord, len(records))
	for i, record := range records {
		result[i] = copyPaymentRecord(record)
	}
	return result, nil
}
