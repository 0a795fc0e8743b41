package payment

import (
	"context"
)

type Repository interface {
	Create(ctx context.Context, record *PaymentRecord) error
	ListByInvoice(ctx context.Context, invoiceID string) ([]*PaymentRecord, error)
}
