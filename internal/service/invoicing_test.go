package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"github.com/liyaqa/billing/internal/domain/invoice"
	"github.com/liyaqa/billing/internal/domain/plan"
	"github.com/liyaqa/billing/internal/domain/proration"
	"github.com/liyaqa/billing/internal/domain/subscription"
	ierr "github.com/liyaqa/billing/internal/errors"
	"github.com/liyaqa/billing/internal/testutil"
	"github.com/liyaqa/billing/internal/types"
)

type InvoicingServiceSuite struct {
	testutil.BaseServiceTestSuite
	service  InvoicingService
	testData struct {
		plan *plan.SubscriptionPlan
		sub  *subscription.TenantSubscription
		now  time.Time
	}
}

func TestInvoicingService(t *testing.T) {
	suite.Run(t, new(InvoicingServiceSuite))
}

func (s *InvoicingServiceSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()
	s.service = NewInvoicingService(s.serviceParams())
	s.setupTestData()
}

func (s *InvoicingServiceSuite) serviceParams() ServiceParams {
	stores := s.GetStores()
	return ServiceParams{
		Logger:              s.GetLogger(),
		Config:              s.GetConfig(),
		DB:                  s.GetDB(),
		InvoiceRepo:         stores.InvoiceRepo,
		SequenceRepo:        stores.SequenceRepo,
		SubRepo:             stores.SubscriptionRepo,
		PlanRepo:            stores.PlanRepo,
		PaymentRepo:         stores.PaymentRepo,
		ProrationCalculator: proration.NewCalculator(),
		EventPublisher:      s.GetPublisher(),
	}
}

func (s *InvoicingServiceSuite) setupTestData() {
	s.testData.now = s.GetNow()

	s.testData.plan = plan.New(s.GetContext(), "Basic", "basic",
		decimal.RequireFromString("299.00"), decimal.RequireFromString("2990.00"), "SAR")
	s.NoError(s.GetStores().PlanRepo.Create(s.GetContext(), s.testData.plan))

	sub, err := subscription.NewActive(s.GetContext(), s.testData.plan.ID,
		types.BillingCycleMonthly, s.testData.now)
	s.NoError(err)
	s.testData.sub = sub
	s.NoError(s.GetStores().SubscriptionRepo.Create(s.GetContext(), sub))
}

func (s *InvoicingServiceSuite) periodRequest(start, end time.Time) *GenerateInvoiceRequest {
	return &GenerateInvoiceRequest{
		SubscriptionID: &s.testData.sub.ID,
		Subtotal:       decimal.RequireFromString("299.00"),
		Description:    "Basic subscription",
		PeriodStart:    &start,
		PeriodEnd:      &end,
	}
}

func (s *InvoicingServiceSuite) TestGenerateInvoice() {
	start := s.testData.sub.CurrentPeriodStart
	end := s.testData.sub.CurrentPeriodEnd

	inv, err := s.service.GenerateInvoice(s.GetContext(), s.periodRequest(start, end))
	s.NoError(err)
	s.NotNil(inv)

	year := time.Now().UTC().Year()
	s.Equal(fmt.Sprintf("LYQ-%d-00001", year), inv.InvoiceNumber)
	s.Equal(types.InvoiceStatusIssued, inv.InvoiceStatus)
	s.Equal("SAR", inv.Currency)
	s.True(inv.VATAmount.Equal(decimal.RequireFromString("44.85")))
	s.True(inv.Total.Equal(decimal.RequireFromString("343.85")))
	s.NotNil(inv.IssuedAt)
	s.NotNil(inv.DueDate)
	s.True(inv.DueDate.Equal(inv.IssuedAt.AddDate(0, 0, 30)))

	events := s.GetPublisher().EventsByName(types.WebhookEventInvoiceGenerated)
	s.Len(events, 1)

	// Numbers keep incrementing
	later, err := s.service.GenerateInvoice(s.GetContext(), &GenerateInvoiceRequest{
		Subtotal: decimal.RequireFromString("50.00"),
	})
	s.NoError(err)
	s.Equal(fmt.Sprintf("LYQ-%d-00002", year), later.InvoiceNumber)
}

func (s *InvoicingServiceSuite) TestGenerateInvoiceDuplicatePeriod() {
	start := s.testData.sub.CurrentPeriodStart
	end := s.testData.sub.CurrentPeriodEnd

	_, err := s.service.GenerateInvoice(s.GetContext(), s.periodRequest(start, end))
	s.NoError(err)

	_, err = s.service.GenerateInvoice(s.GetContext(), s.periodRequest(start, end))
	s.Error(err)
	s.True(ierr.IsAlreadyExists(err))

	invoices, err := s.service.ListInvoices(s.GetContext(), &types.InvoiceFilter{})
	s.NoError(err)
	s.Len(invoices, 1, "duplicate period must not create a second invoice")
}

// racingSequenceRepo delegates to a real sequence repo but runs a hook
// before handing out the number, standing in for a competing generator
// that committed its invoice while holding the sequence lock first.
type racingSequenceRepo struct {
	invoice.SequenceRepository
	beforeNumber func()
}

func (r *racingSequenceRepo) NextInvoiceNumber(ctx context.Context, now time.Time) (string, error) {
	if r.beforeNumber != nil {
		r.beforeNumber()
	}
	return r.SequenceRepository.NextInvoiceNumber(ctx, now)
}

func (s *InvoicingServiceSuite) TestGenerateInvoiceDuplicatePeriodUnderContention() {
	start := s.testData.sub.CurrentPeriodStart
	end := s.testData.sub.CurrentPeriodEnd

	// Another instance wins the sequence lock and commits an invoice for
	// the same period before our transaction gets its number. The period
	// check has to run after the lock to see it.
	params := s.serviceParams()
	params.SequenceRepo = &racingSequenceRepo{
		SequenceRepository: params.SequenceRepo,
		beforeNumber: func() {
			competing := invoice.New(s.GetContext(), "LYQ-2026-00001", &s.testData.sub.ID,
				decimal.RequireFromString("299.00"), s.GetConfig().Billing.VATRatePercent, "SAR")
			competing.BillingPeriodStart = &start
			competing.BillingPeriodEnd = &end
			s.NoError(competing.Issue(s.GetNow(), s.GetConfig().Billing.PaymentDueDays))
			s.NoError(s.GetStores().InvoiceRepo.Create(s.GetContext(), competing))
		},
	}
	contended := NewInvoicingService(params)

	_, err := contended.GenerateInvoice(s.GetContext(), s.periodRequest(start, end))
	s.Error(err)
	s.True(ierr.IsAlreadyExists(err))

	invoices, err := s.service.ListInvoices(s.GetContext(), &types.InvoiceFilter{})
	s.NoError(err)
	s.Len(invoices, 1, "contended generation must not create a second invoice for the period")
}

func (s *InvoicingServiceSuite) TestCancelledInvoiceFreesPeriod() {
	start := s.testData.sub.CurrentPeriodStart
	end := s.testData.sub.CurrentPeriodEnd

	inv, err := s.service.GenerateInvoice(s.GetContext(), s.periodRequest(start, end))
	s.NoError(err)

	_, err = s.service.CancelInvoice(s.GetContext(), inv.ID)
	s.NoError(err)
	s.Len(s.GetPublisher().EventsByName(types.WebhookEventInvoiceCancelled), 1)

	// A cancelled invoice no longer blocks the period
	_, err = s.service.GenerateInvoice(s.GetContext(), s.periodRequest(start, end))
	s.NoError(err)
}

func (s *InvoicingServiceSuite) TestGenerateInvoiceValidation() {
	_, err := s.service.GenerateInvoice(s.GetContext(), &GenerateInvoiceRequest{
		Subtotal: decimal.Zero,
	})
	s.True(ierr.IsValidation(err))

	start := s.testData.now
	_, err = s.service.GenerateInvoice(s.GetContext(), &GenerateInvoiceRequest{
		Subtotal:    decimal.RequireFromString("10.00"),
		PeriodStart: &start,
	})
	s.True(ierr.IsValidation(err), "period start without end must be rejected")
}

func (s *InvoicingServiceSuite) TestMarkPaid() {
	inv, err := s.service.GenerateInvoice(s.GetContext(), &GenerateInvoiceRequest{
		Subtotal: decimal.RequireFromString("299.00"),
	})
	s.NoError(err)

	reference := "BT-1001"
	paid, err := s.service.MarkPaid(s.GetContext(), &MarkPaidRequest{
		InvoiceID:     inv.ID,
		Amount:        inv.Total,
		PaymentMethod: types.PaymentMethodBankTransfer,
		Reference:     &reference,
	})
	s.NoError(err)
	s.Equal(types.InvoiceStatusPaid, paid.InvoiceStatus)
	s.NotNil(paid.PaidAt)

	records, err := s.GetStores().PaymentRepo.ListByInvoice(s.GetContext(), inv.ID)
	s.NoError(err)
	s.Len(records, 1)
	s.True(records[0].Amount.Equal(inv.Total))

	s.Len(s.GetPublisher().EventsByName(types.WebhookEventInvoicePaid), 1)
}

func (s *InvoicingServiceSuite) TestMarkPaidPartial() {
	inv, err := s.service.GenerateInvoice(s.GetContext(), &GenerateInvoiceRequest{
		Subtotal: decimal.RequireFromString("299.00"),
	})
	s.NoError(err)

	partial, err := s.service.MarkPaid(s.GetContext(), &MarkPaidRequest{
		InvoiceID:     inv.ID,
		Amount:        decimal.RequireFromString("100.00"),
		PaymentMethod: types.PaymentMethodMada,
	})
	s.NoError(err)
	s.Equal(types.InvoiceStatusPartiallyPaid, partial.InvoiceStatus)
	s.Empty(s.GetPublisher().EventsByName(types.WebhookEventInvoicePaid),
		"partial payment must not emit a paid event")

	// Settling the remainder completes the invoice
	final, err := s.service.MarkPaid(s.GetContext(), &MarkPaidRequest{
		InvoiceID:     inv.ID,
		Amount:        partial.RemainingBalance(),
		PaymentMethod: types.PaymentMethodMada,
	})
	s.NoError(err)
	s.Equal(types.InvoiceStatusPaid, final.InvoiceStatus)

	records, err := s.GetStores().PaymentRepo.ListByInvoice(s.GetContext(), inv.ID)
	s.NoError(err)
	s.Len(records, 2)
}

func (s *InvoicingServiceSuite) TestMarkPaidErrors() {
	_, err := s.service.MarkPaid(s.GetContext(), &MarkPaidRequest{
		InvoiceID:     "inv_missing",
		Amount:        decimal.NewFromInt(10),
		PaymentMethod: types.PaymentMethodCash,
	})
	s.True(ierr.IsNotFound(err))

	inv, err := s.service.GenerateInvoice(s.GetContext(), &GenerateInvoiceRequest{
		Subtotal: decimal.RequireFromString("10.00"),
	})
	s.NoError(err)
	_, err = s.service.CancelInvoice(s.GetContext(), inv.ID)
	s.NoError(err)

	_, err = s.service.MarkPaid(s.GetContext(), &MarkPaidRequest{
		InvoiceID:     inv.ID,
		Amount:        decimal.NewFromInt(10),
		PaymentMethod: types.PaymentMethodCash,
	})
	s.True(ierr.IsInvalidOperation(err), "cancelled invoices are not payable")
}

func (s *InvoicingServiceSuite) TestMarkOverdueInvoices() {
	// Seed an invoice already past its due date
	overdue := invoice.New(s.GetContext(), "LYQ-2026-00099", nil,
		decimal.RequireFromString("100.00"), decimal.RequireFromString("15.00"), "SAR")
	s.NoError(overdue.Issue(s.testData.now.AddDate(0, 0, -40), 30))
	s.NoError(s.GetStores().InvoiceRepo.Create(s.GetContext(), overdue))

	// And one still within terms
	current, err := s.service.GenerateInvoice(s.GetContext(), &GenerateInvoiceRequest{
		Subtotal: decimal.RequireFromString("50.00"),
	})
	s.NoError(err)

	count, err := s.service.MarkOverdueInvoices(s.GetContext())
	s.NoError(err)
	s.Equal(1, count)

	got, err := s.service.GetInvoice(s.GetContext(), overdue.ID)
	s.NoError(err)
	s.Equal(types.InvoiceStatusOverdue, got.InvoiceStatus)

	untouched, err := s.service.GetInvoice(s.GetContext(), current.ID)
	s.NoError(err)
	s.Equal(types.InvoiceStatusIssued, untouched.InvoiceStatus)

	s.Len(s.GetPublisher().EventsByName(types.WebhookEventInvoiceOverdue), 1)

	// Re-running the sweep finds nothing new
	count, err = s.service.MarkOverdueInvoices(s.GetContext())
	s.NoError(err)
	s.Equal(0, count)
}

func (s *InvoicingServiceSuite) TestGenerateAutoInvoices() {
	// Rewind the subscription so its period has come due
	sub := s.testData.sub
	sub.CurrentPeriodStart = s.testData.now.AddDate(0, -1, 0)
	sub.CurrentPeriodEnd = s.testData.now.AddDate(0, 0, -1)
	s.NoError(s.GetStores().SubscriptionRepo.Update(s.GetContext(), sub))

	dueEnd := sub.CurrentPeriodEnd

	count, err := s.service.GenerateAutoInvoices(s.GetContext())
	s.NoError(err)
	s.Equal(1, count)

	// The invoice covers the period being entered
	invoices, err := s.service.ListInvoices(s.GetContext(), &types.InvoiceFilter{
		SubscriptionID: sub.ID,
	})
	s.NoError(err)
	s.Len(invoices, 1)
	s.True(invoices[0].BillingPeriodStart.Equal(dueEnd))
	s.True(invoices[0].Total.Equal(decimal.RequireFromString("343.85")))

	// The subscription moved into that period
	renewed, err := s.GetStores().SubscriptionRepo.Get(s.GetContext(), sub.ID)
	s.NoError(err)
	s.True(renewed.CurrentPeriodStart.Equal(dueEnd))
	s.Len(s.GetPublisher().EventsByName(types.WebhookEventSubscriptionRenewed), 1)

	// Re-running is a no-op: the renewed period is not due yet
	count, err = s.service.GenerateAutoInvoices(s.GetContext())
	s.NoError(err)
	s.Equal(0, count)
}

func (s *InvoicingServiceSuite) TestGenerateAutoInvoicesSkipsInvoicedPeriod() {
	sub := s.testData.sub
	sub.CurrentPeriodStart = s.testData.now.AddDate(0, -1, 0)
	sub.CurrentPeriodEnd = s.testData.now.AddDate(0, 0, -1)
	s.NoError(s.GetStores().SubscriptionRepo.Update(s.GetContext(), sub))

	// Simulate an earlier run that generated the invoice but did not get
	// to renew the subscription
	nextStart := sub.CurrentPeriodEnd
	nextEnd, err := types.NextBillingDate(nextStart, sub.BillingCycle)
	s.NoError(err)
	_, err = s.service.GenerateInvoice(s.GetContext(), &GenerateInvoiceRequest{
		SubscriptionID: &sub.ID,
		Subtotal:       decimal.RequireFromString("299.00"),
		PeriodStart:    &nextStart,
		PeriodEnd:      &nextEnd,
	})
	s.NoError(err)

	count, err := s.service.GenerateAutoInvoices(s.GetContext())
	s.NoError(err)
	s.Equal(0, count, "already-invoiced period must be skipped, not re-billed")

	invoices, err := s.service.ListInvoices(s.GetContext(), &types.InvoiceFilter{
		SubscriptionID: sub.ID,
	})
	s.NoError(err)
	s.Len(invoices, 1)
}

func (s *InvoicingServiceSuite) TestConcurrentInvoiceNumbersAreDistinct() {
	const n = 50
	now := time.Now().UTC()

	var wg sync.WaitGroup
	numbers := make([]string, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			number, err := s.GetStores().SequenceRepo.NextInvoiceNumber(s.GetContext(), now)
			s.NoError(err)
			numbers[i] = number
		}(i)
	}
	wg.Wait()

	seen := make(map[string]struct{}, n)
	for _, number := range numbers {
		_, dup := seen[number]
		s.False(dup, "duplicate invoice number %s", number)
		seen[number] = struct{}{}
	}
	s.Len(seen, n)
}

func (s *InvoicingServiceSuite) TestGetInvoiceByNumber() {
	inv, err := s.service.GenerateInvoice(s.GetContext(), &GenerateInvoiceRequest{
		Subtotal: decimal.RequireFromString("10.00"),
	})
	s.NoError(err)

	got, err := s.service.GetInvoiceByNumber(s.GetContext(), inv.InvoiceNumber)
	s.NoError(err)
	s.Equal(inv.ID, got.ID)

	_, err = s.service.GetInvoiceByNumber(s.GetContext(), "LYQ-1999-00001")
	s.True(ierr.IsNotFound(err))
}
