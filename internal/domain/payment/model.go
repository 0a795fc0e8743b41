package payment

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	ierr "github.com/liyaqa/billing/internal/errors"
	"github.com/liyaqa/billing/internal/types"
)

// PaymentRecord is an append-only record of money received against an
// invoice. Records are never updated or deleted; corrections are made by
// issuing a new invoice.
type PaymentRecord struct {
	ID            string              `db:"id" json:"id"`
	InvoiceID     string              `db:"invoice_id" json:"invoice_id"`
	Amount        decimal.Decimal     `db:"amount" json:"amount"`
	Currency      string              `db:"currency" json:"currency"`
	PaymentMethod types.PaymentMethod `db:"payment_method" json:"payment_method"`
	Reference     *string             `db:"reference" json:"reference,omitempty"`
	ReceivedAt    time.Time           `db:"received_at" json:"received_at"`
	types.BaseModel
}

func New(ctx context.Context, invoiceID string, amount decimal.Decimal, currency string, method types.PaymentMethod, reference *string, receivedAt time.Time) (*PaymentRecord, error) {
	if !amount.IsPositive() {
		return nil, ierr.NewError("payment amount must be positive").
			WithHintf("got %s", amount).
			Mark(ierr.ErrValidation)
	}
	if err := method.Validate(); err != nil {
		return nil, err
	}
	return &PaymentRecord{
		ID:            types.GenerateUUIDWithPrefix(types.UUID_PREFIX_PAYMENT_RECORD),
		InvoiceID:     invoiceID,
		Amount:        amount,
		Currency:      currency,
		PaymentMethod: method,
		Reference:     reference,
		ReceivedAt:    receivedAt,
		BaseModel:     types.GetDefaultBaseModel(ctx),
	}, nil
}
