package types

import (
	"time"

	ierr "github.com/liyaqa/billing/internal/errors"
	"github.com/samber/lo"
)

// InvoiceStatus tracks an invoice through its billing document lifecycle.
// DRAFT invoices are editable; ISSUED invoices are awaiting payment;
// terminal states are PAID and CANCELLED.
type InvoiceStatus string

const (
	InvoiceStatusDraft         InvoiceStatus = "DRAFT"
	InvoiceStatusIssued        InvoiceStatus = "ISSUED"
	InvoiceStatusPaid          InvoiceStatus = "PAID"
	InvoiceStatusPartiallyPaid InvoiceStatus = "PARTIALLY_PAID"
	InvoiceStatusOverdue       InvoiceStatus = "OVERDUE"
	InvoiceStatusCancelled     InvoiceStatus = "CANCELLED"
)

func (s InvoiceStatus) String() string {
	return string(s)
}

func (s InvoiceStatus) Validate() error {
	allowed := []InvoiceStatus{
		InvoiceStatusDraft,
		InvoiceStatusIssued,
		InvoiceStatusPaid,
		InvoiceStatusPartiallyPaid,
		InvoiceStatusOverdue,
		InvoiceStatusCancelled,
	}
	if !lo.Contains(allowed, s) {
		return ierr.NewError("invalid invoice status").
			WithHint("Please provide a valid invoice status").
			WithReportableDetails(map[string]any{
				"allowed": allowed,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// payableStatuses are the statuses a payment may be recorded against.
var payableStatuses = []InvoiceStatus{
	InvoiceStatusIssued,
	InvoiceStatusOverdue,
	InvoiceStatusPartiallyPaid,
}

// IsPayable reports whether a payment can be recorded in this status.
func (s InvoiceStatus) IsPayable() bool {
	return lo.Contains(payableStatuses, s)
}

// IsCancellable reports whether the invoice can still be cancelled.
func (s InvoiceStatus) IsCancellable() bool {
	return lo.Contains([]InvoiceStatus{
		InvoiceStatusDraft,
		InvoiceStatusIssued,
		InvoiceStatusOverdue,
	}, s)
}

// PaymentMethod is how an invoice was settled.
type PaymentMethod string

const (
	PaymentMethodBankTransfer PaymentMethod = "BANK_TRANSFER"
	PaymentMethodCreditCard   PaymentMethod = "CREDIT_CARD"
	PaymentMethodMada         PaymentMethod = "MADA"
	PaymentMethodCheck        PaymentMethod = "CHECK"
	PaymentMethodCash         PaymentMethod = "CASH"
)

func (m PaymentMethod) Validate() error {
	allowed := []PaymentMethod{
		PaymentMethodBankTransfer,
		PaymentMethodCreditCard,
		PaymentMethodMada,
		PaymentMethodCheck,
		PaymentMethodCash,
	}
	if !lo.Contains(allowed, m) {
		return ierr.NewError("invalid payment method").
			WithHint("Please provide a valid payment method").
			WithReportableDetails(map[string]any{
				"allowed": allowed,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// InvoiceFilter narrows invoice list queries.
type InvoiceFilter struct {
	TenantID       string
	SubscriptionID string
	InvoiceStatus  []InvoiceStatus
	DueDateBefore  *time.Time
}
