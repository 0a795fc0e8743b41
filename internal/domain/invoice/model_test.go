package invoice

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ierr "github.com/liyaqa/billing/internal/errors"
	"github.com/liyaqa/billing/internal/types"
)

func testContext() context.Context {
	ctx := context.Background()
	ctx = types.SetTenantID(ctx, "tenant-1")
	ctx = types.SetUserID(ctx, "user-1")
	return ctx
}

func newTestInvoice(t *testing.T) *Invoice {
	t.Helper()
	subID := "subs_123"
	return New(testContext(), "LYQ-2026-00001", &subID,
		decimal.RequireFromString("299.00"), decimal.RequireFromString("15.00"), "SAR")
}

func TestNewInvoiceComputesVAT(t *testing.T) {
	inv := newTestInvoice(t)

	assert.Equal(t, types.InvoiceStatusDraft, inv.InvoiceStatus)
	assert.Equal(t, "tenant-1", inv.TenantID)
	assert.True(t, inv.VATAmount.Equal(decimal.RequireFromString("44.85")))
	assert.True(t, inv.Total.Equal(decimal.RequireFromString("343.85")))
	assert.True(t, inv.PaidAmount.IsZero())
	require.NoError(t, inv.Validate())
}

func TestInvoiceIssue(t *testing.T) {
	inv := newTestInvoice(t)
	now := time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, inv.Issue(now, 30))
	assert.Equal(t, types.InvoiceStatusIssued, inv.InvoiceStatus)
	assert.True(t, inv.IssuedAt.Equal(now))
	assert.True(t, inv.DueDate.Equal(now.AddDate(0, 0, 30)))

	// Issuing twice is rejected
	err := inv.Issue(now, 30)
	assert.True(t, ierr.IsInvalidOperation(err))
}

func TestInvoiceRecordPayment(t *testing.T) {
	now := time.Now().UTC()

	t.Run("full payment settles invoice", func(t *testing.T) {
		inv := newTestInvoice(t)
		require.NoError(t, inv.Issue(now, 30))

		err := inv.RecordPayment(inv.Total, types.PaymentMethodBankTransfer, nil, now)
		require.NoError(t, err)
		assert.Equal(t, types.InvoiceStatusPaid, inv.InvoiceStatus)
		assert.NotNil(t, inv.PaidAt)
		assert.True(t, inv.RemainingBalance().IsZero())
	})

	t.Run("partial payment", func(t *testing.T) {
		inv := newTestInvoice(t)
		require.NoError(t, inv.Issue(now, 30))

		err := inv.RecordPayment(decimal.RequireFromString("100.00"), types.PaymentMethodMada, nil, now)
		require.NoError(t, err)
		assert.Equal(t, types.InvoiceStatusPartiallyPaid, inv.InvoiceStatus)
		assert.Nil(t, inv.PaidAt)
		assert.True(t, inv.RemainingBalance().Equal(decimal.RequireFromString("243.85")))

		// Second partial payment completes it
		err = inv.RecordPayment(decimal.RequireFromString("243.85"), types.PaymentMethodMada, nil, now)
		require.NoError(t, err)
		assert.Equal(t, types.InvoiceStatusPaid, inv.InvoiceStatus)
	})

	t.Run("draft invoice is not payable", func(t *testing.T) {
		inv := newTestInvoice(t)
		err := inv.RecordPayment(inv.Total, types.PaymentMethodCash, nil, now)
		assert.True(t, ierr.IsInvalidOperation(err))
	})

	t.Run("paid invoice rejects further payments", func(t *testing.T) {
		inv := newTestInvoice(t)
		require.NoError(t, inv.Issue(now, 30))
		require.NoError(t, inv.RecordPayment(inv.Total, types.PaymentMethodCash, nil, now))

		err := inv.RecordPayment(decimal.NewFromInt(1), types.PaymentMethodCash, nil, now)
		assert.True(t, ierr.IsInvalidOperation(err))
	})

	t.Run("rejects non-positive amount", func(t *testing.T) {
		inv := newTestInvoice(t)
		require.NoError(t, inv.Issue(now, 30))

		err := inv.RecordPayment(decimal.Zero, types.PaymentMethodCash, nil, now)
		assert.True(t, ierr.IsValidation(err))
	})
}

func TestInvoiceMarkOverdue(t *testing.T) {
	issuedAt := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)

	t.Run("past due", func(t *testing.T) {
		inv := newTestInvoice(t)
		require.NoError(t, inv.Issue(issuedAt, 30))

		require.NoError(t, inv.MarkOverdue(issuedAt.AddDate(0, 0, 31)))
		assert.Equal(t, types.InvoiceStatusOverdue, inv.InvoiceStatus)
	})

	t.Run("not yet due", func(t *testing.T) {
		inv := newTestInvoice(t)
		require.NoError(t, inv.Issue(issuedAt, 30))

		err := inv.MarkOverdue(issuedAt.AddDate(0, 0, 10))
		assert.True(t, ierr.IsInvalidOperation(err))
	})

	t.Run("already overdue is not re-marked", func(t *testing.T) {
		inv := newTestInvoice(t)
		require.NoError(t, inv.Issue(issuedAt, 30))
		require.NoError(t, inv.MarkOverdue(issuedAt.AddDate(0, 0, 31)))

		err := inv.MarkOverdue(issuedAt.AddDate(0, 0, 32))
		assert.True(t, ierr.IsInvalidOperation(err))
	})
}

func TestInvoiceCancel(t *testing.T) {
	now := time.Now().UTC()

	t.Run("draft and issued are cancellable", func(t *testing.T) {
		draft := newTestInvoice(t)
		require.NoError(t, draft.Cancel())
		assert.Equal(t, types.InvoiceStatusCancelled, draft.InvoiceStatus)

		issued := newTestInvoice(t)
		require.NoError(t, issued.Issue(now, 30))
		require.NoError(t, issued.Cancel())
	})

	t.Run("paid invoice cannot be cancelled", func(t *testing.T) {
		inv := newTestInvoice(t)
		require.NoError(t, inv.Issue(now, 30))
		require.NoError(t, inv.RecordPayment(inv.Total, types.PaymentMethodCheck, nil, now))

		err := inv.Cancel()
		assert.True(t, ierr.IsInvalidOperation(err))
	})
}
