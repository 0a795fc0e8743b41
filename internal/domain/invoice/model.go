package invoice

import (
	"context"
	"time"

	ierr "github.com/liyaqa/billing/internal/errors"
	"github.com/liyaqa/billing/internal/types"
	"github.com/shopspring/decimal"
)

// Invoice represents a billing document for a tenant, optionally covering a
// subscription billing period. Amounts are held in a single currency with
// VAT broken out: Total = Subtotal + VATAmount.
type Invoice struct {
	ID                 string               `db:"id" json:"id"`
	InvoiceNumber      string               `db:"invoice_number" json:"invoice_number"`
	SubscriptionID     *string              `db:"subscription_id" json:"subscription_id,omitempty"`
	InvoiceStatus      types.InvoiceStatus  `db:"invoice_status" json:"invoice_status"`
	Currency           string               `db:"currency" json:"currency"`
	Subtotal           decimal.Decimal      `db:"subtotal" json:"subtotal"`
	VATRate            decimal.Decimal      `db:"vat_rate" json:"vat_rate"`
	VATAmount          decimal.Decimal      `db:"vat_amount" json:"vat_amount"`
	Total              decimal.Decimal      `db:"total" json:"total"`
	PaidAmount         decimal.Decimal      `db:"paid_amount" json:"paid_amount"`
	Description        string               `db:"description" json:"description,omitempty"`
	BillingPeriodStart *time.Time           `db:"billing_period_start" json:"billing_period_start,omitempty"`
	BillingPeriodEnd   *time.Time           `db:"billing_period_end" json:"billing_period_end,omitempty"`
	IssuedAt           *time.Time           `db:"issued_at" json:"issued_at,omitempty"`
	DueDate            *time.Time           `db:"due_date" json:"due_date,omitempty"`
	PaidAt             *time.Time           `db:"paid_at" json:"paid_at,omitempty"`
	PaymentMethod      *types.PaymentMethod `db:"payment_method" json:"payment_method,omitempty"`
	PaymentReference   *string              `db:"payment_reference" json:"payment_reference,omitempty"`
	types.BaseModel
}

// New creates a DRAFT invoice with VAT computed from the subtotal.
func New(ctx context.Context, number string, subscriptionID *string, subtotal, vatRate decimal.Decimal, currency string) *Invoice {
	vatAmount, total := types.ComputeVAT(subtotal, vatRate)
	return &Invoice{
		ID:             types.GenerateUUIDWithPrefix(types.UUID_PREFIX_INVOICE),
		InvoiceNumber:  number,
		SubscriptionID: subscriptionID,
		InvoiceStatus:  types.InvoiceStatusDraft,
		Currency:       currency,
		Subtotal:       subtotal,
		VATRate:        vatRate,
		VATAmount:      vatAmount,
		Total:          total,
		PaidAmount:     decimal.Zero,
		BaseModel:      types.GetDefaultBaseModel(ctx),
	}
}

// Issue stamps the issue and due dates and moves the invoice to ISSUED.
func (i *Invoice) Issue(at time.Time, paymentDueDays int) error {
	if i.InvoiceStatus != types.InvoiceStatusDraft {
		return ierr.NewError("only draft invoices can be issued").
			WithHintf("invoice %s is %s", i.InvoiceNumber, i.InvoiceStatus).
			Mark(ierr.ErrInvalidOperation)
	}

	due := at.AddDate(0, 0, paymentDueDays)
	i.IssuedAt = &at
	i.DueDate = &due
	i.InvoiceStatus = types.InvoiceStatusIssued
	return nil
}

// RecordPayment applies a payment amount. A payment that settles the full
// remaining balance moves the invoice to PAID and stamps PaidAt; a smaller
// one moves it to PARTIALLY_PAID.
func (i *Invoice) RecordPayment(amount decimal.Decimal, method types.PaymentMethod, reference *string, at time.Time) error {
	if !i.InvoiceStatus.IsPayable() {
		return ierr.NewError("cannot record payment").
			WithHintf("invoice %s is %s", i.InvoiceNumber, i.InvoiceStatus).
			WithReportableDetails(map[string]any{
				"invoice_id": i.ID,
				"status":     i.InvoiceStatus,
			}).
			Mark(ierr.ErrInvalidOperation)
	}

	if !amount.IsPositive() {
		return ierr.NewError("payment amount must be positive").
			WithHintf("got %s", amount).
			Mark(ierr.ErrValidation)
	}

	i.PaidAmount = i.PaidAmount.Add(amount)
	i.PaymentMethod = &method
	i.PaymentReference = reference

	if i.PaidAmount.GreaterThanOrEqual(i.Total) {
		i.InvoiceStatus = types.InvoiceStatusPaid
		i.PaidAt = &at
	} else {
		i.InvoiceStatus = types.InvoiceStatusPartiallyPaid
	}
	return nil
}

// MarkOverdue transitions an ISSUED invoice past its due date to OVERDUE.
func (i *Invoice) MarkOverdue(now time.Time) error {
	if i.InvoiceStatus != types.InvoiceStatusIssued {
		return ierr.NewError("only issued invoices can be marked overdue").
			WithHintf("invoice %s is %s", i.InvoiceNumber, i.InvoiceStatus).
			Mark(ierr.ErrInvalidOperation)
	}
	if i.DueDate == nil || !now.After(*i.DueDate) {
		return ierr.NewError("invoice is not past due date").
			WithHintf("invoice %s due %v", i.InvoiceNumber, i.DueDate).
			Mark(ierr.ErrInvalidOperation)
	}
	i.InvoiceStatus = types.InvoiceStatusOverdue
	return nil
}

// Cancel voids the invoice. Paid invoices cannot be cancelled.
func (i *Invoice) Cancel() error {
	if !i.InvoiceStatus.IsCancellable() {
		return ierr.NewError("cannot cancel invoice").
			WithHintf("invoice %s is %s", i.InvoiceNumber, i.InvoiceStatus).
			Mark(ierr.ErrInvalidOperation)
	}
	i.InvoiceStatus = types.InvoiceStatusCancelled
	return nil
}

// RemainingBalance returns the unpaid part of the total.
func (i *Invoice) RemainingBalance() decimal.Decimal {
	return i.Total.Sub(i.PaidAmount)
}

// IsOverdue reports whether the invoice is issued and past its due date.
func (i *Invoice) IsOverdue(now time.Time) bool {
	return i.InvoiceStatus == types.InvoiceStatusIssued &&
		i.DueDate != nil &&
		now.After(*i.DueDate)
}

func (i *Invoice) Validate() error {
	if i.Subtotal.IsNegative() {
		return ierr.NewError("subtotal must be non negative").
			Mark(ierr.ErrValidation)
	}
	if i.PaidAmount.IsNegative() {
		return ierr.NewError("paid amount must be non negative").
			Mark(ierr.ErrValidation)
	}
	if !i.Subtotal.Add(i.VATAmount).Equal(i.Total) {
		return ierr.NewError("total must equal subtotal plus vat amount").
			Mark(ierr.ErrValidation)
	}
	if i.BillingPeriodStart != nil && i.BillingPeriodEnd != nil {
		if !i.BillingPeriodEnd.After(*i.BillingPeriodStart) {
			return ierr.NewError("billing period end must be after start").
				Mark(ierr.ErrValidation)
		}
	}
	return i.InvoiceStatus.Validate()
}
