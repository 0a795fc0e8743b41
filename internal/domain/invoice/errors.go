package invoice

import (
	ierr "github.com/liyaqa/billing/internal/errors"
)

var (
	// ErrInvoiceNotFound is returned when an invoice lookup misses
	ErrInvoiceNotFound = ierr.NewError("invoice not found").
				WithHint("Invoice not found").
				Mark(ierr.ErrNotFound)

	// ErrDuplicateBillingPeriod is returned when a non-cancelled invoice
	// already covers the requested billing period. Callers running sweeps
	// treat this as already-handled, not a hard failure.
	ErrDuplicateBillingPeriod = ierr.NewError("invoice already exists for billing period").
					WithHint("An invoice already exists for this billing period").
					Mark(ierr.ErrAlreadyExists)
)
