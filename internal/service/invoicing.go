package service

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/liyaqa/billing/internal/domain/invoice"
	"github.com/liyaqa/billing/internal/domain/payment"
	"github.com/liyaqa/billing/internal/domain/plan"
	"github.com/liyaqa/billing/internal/domain/proration"
	"github.com/liyaqa/billing/internal/domain/subscription"
	ierr "github.com/liyaqa/billing/internal/errors"
	"github.com/liyaqa/billing/internal/types"
)

// InvoicingService owns invoice generation, payment recording and the
// periodic sweeps. All generated invoices are issued immediately with a
// due date derived from the configured payment terms.
type InvoicingService interface {
	GenerateInvoice(ctx context.Context, req *GenerateInvoiceRequest) (*invoice.Invoice, error)
	GenerateProratedInvoice(ctx context.Context, sub *subscription.TenantSubscription, oldPlan, newPlan *plan.SubscriptionPlan, effectiveDate time.Time) (*invoice.Invoice, error)
	MarkPaid(ctx context.Context, req *MarkPaidRequest) (*invoice.Invoice, error)
	MarkOverdueInvoices(ctx context.Context) (int, error)
	GenerateAutoInvoices(ctx context.Context) (int, error)
	GetInvoice(ctx context.Context, id string) (*invoice.Invoice, error)
	GetInvoiceByNumber(ctx context.Context, invoiceNumber string) (*invoice.Invoice, error)
	ListInvoices(ctx context.Context, filter *types.InvoiceFilter) ([]*invoice.Invoice, error)
	CancelInvoice(ctx context.Context, id string) (*invoice.Invoice, error)
}

type invoicingService struct {
	ServiceParams
}

func NewInvoicingService(params ServiceParams) InvoicingService {
	return &invoicingService{
		ServiceParams: params,
	}
}

// GenerateInvoiceRequest describes a single invoice to create. When the
// billing period is set, at most one non-cancelled invoice may cover it
// for the tenant.
type GenerateInvoiceRequest struct {
	SubscriptionID *string         `json:"subscription_id,omitempty"`
	Subtotal       decimal.Decimal `json:"subtotal"`
	Description    string          `json:"description,omitempty"`
	PeriodStart    *time.Time      `json:"period_start,omitempty"`
	PeriodEnd      *time.Time      `json:"period_end,omitempty"`
}

func (r *GenerateInvoiceRequest) Validate() error {
	if !r.Subtotal.IsPositive() {
		return ierr.NewError("invoice subtotal must be positive").
			WithHintf("got %s", r.Subtotal).
			Mark(ierr.ErrValidation)
	}
	if (r.PeriodStart == nil) != (r.PeriodEnd == nil) {
		return ierr.NewError("billing period must set both start and end").
			Mark(ierr.ErrValidation)
	}
	if r.PeriodStart != nil && !r.PeriodEnd.After(*r.PeriodStart) {
		return ierr.NewError("billing period end must be after start").
			WithHintf("got [%s, %s)", r.PeriodStart, r.PeriodEnd).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// MarkPaidRequest records a payment against an issued invoice.
type MarkPaidRequest struct {
	InvoiceID     string              `json:"invoice_id"`
	Amount        decimal.Decimal     `json:"amount"`
	PaymentMethod types.PaymentMethod `json:"payment_method"`
	Reference     *string             `json:"reference,omitempty"`
}

func (r *MarkPaidRequest) Validate() error {
	if r.InvoiceID == "" {
		return ierr.NewError("invoice id is required").
			Mark(ierr.ErrValidation)
	}
	if !r.Amount.IsPositive() {
		return ierr.NewError("payment amount must be positive").
			WithHintf("got %s", r.Amount).
			Mark(ierr.ErrValidation)
	}
	return r.PaymentMethod.Validate()
}

func (s *invoicingService) GenerateInvoice(ctx context.Context, req *GenerateInvoiceRequest) (*invoice.Invoice, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if err := types.ValidateTenantContext(ctx); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	var inv *invoice.Invoice

	err := s.DB.WithTx(ctx, func(txCtx context.Context) error {
		number, err := s.SequenceRepo.NextInvoiceNumber(txCtx, now)
		if err != nil {
			return err
		}

		// The sequence row lock serializes concurrent generators, so a
		// competing transaction's invoice is committed and visible by the
		// time this check runs. Checking before taking the lock would let
		// two transactions insert the same period.
		if req.PeriodStart != nil {
			exists, err := s.InvoiceRepo.ExistsForPeriod(txCtx, types.GetTenantID(txCtx), *req.PeriodStart, *req.PeriodEnd)
			if err != nil {
				return err
			}
			if exists {
				return invoice.ErrDuplicateBillingPeriod
			}
		}

		inv = invoice.New(txCtx, number, req.SubscriptionID, req.Subtotal, s.Config.Billing.VATRatePercent, s.Config.Billing.Currency)
		inv.Description = req.Description
		inv.BillingPeriodStart = req.PeriodStart
		inv.BillingPeriodEnd = req.PeriodEnd

		if err := inv.Issue(now, s.Config.Billing.PaymentDueDays); err != nil {
			return err
		}
		return s.InvoiceRepo.Create(txCtx, inv)
	})
	if err != nil {
		return nil, err
	}

	s.Logger.Infow("generated invoice",
		"invoice_id", inv.ID,
		"invoice_number", inv.InvoiceNumber,
		"tenant_id", inv.TenantID,
		"total", inv.Total,
	)
	publishEvent(ctx, s.ServiceParams, types.WebhookEventInvoiceGenerated, inv)
	return inv, nil
}

func (s *invoicingService) GenerateProratedInvoice(ctx context.Context, sub *subscription.TenantSubscription, oldPlan, newPlan *plan.SubscriptionPlan, effectiveDate time.Time) (*invoice.Invoice, error) {
	oldPrice, err := oldPlan.PriceFor(sub.BillingCycle)
	if err != nil {
		return nil, err
	}
	newPrice, err := newPlan.PriceFor(sub.BillingCycle)
	if err != nil {
		return nil, err
	}

	result, err := s.ProrationCalculator.Calculate(ctx, proration.PlanChangeParams{
		SubscriptionID:     sub.ID,
		CurrentPeriodStart: sub.CurrentPeriodStart,
		CurrentPeriodEnd:   sub.CurrentPeriodEnd,
		EffectiveDate:      effectiveDate,
		BillingCycle:       sub.BillingCycle,
		OldPrice:           oldPrice,
		NewPrice:           newPrice,
	})
	if err != nil {
		return nil, err
	}
	if !result.ShouldInvoice {
		s.Logger.Debugw("plan change produced no prorated charge",
			"subscription_id", sub.ID,
			"net_amount", result.NetAmount,
		)
		return nil, nil
	}

	periodEnd := sub.CurrentPeriodEnd
	return s.GenerateInvoice(ctx, &GenerateInvoiceRequest{
		SubscriptionID: &sub.ID,
		Subtotal:       result.NetAmount,
		Description:    fmt.Sprintf("Prorated plan change %s to %s", oldPlan.Name, newPlan.Name),
		PeriodStart:    &effectiveDate,
		PeriodEnd:      &periodEnd,
	})
}

func (s *invoicingService) MarkPaid(ctx context.Context, req *MarkPaidRequest) (*invoice.Invoice, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	if req.Reference == nil {
		ref := types.GenerateShortIDWithPrefix("PAY")
		req.Reference = &ref
	}
	var inv *invoice.Invoice

	err := s.DB.WithTx(ctx, func(txCtx context.Context) error {
		var err error
		inv, err = s.InvoiceRepo.Get(txCtx, req.InvoiceID)
		if err != nil {
			return err
		}

		if err := inv.RecordPayment(req.Amount, req.PaymentMethod, req.Reference, now); err != nil {
			return err
		}

		record, err := payment.New(txCtx, inv.ID, req.Amount, inv.Currency, req.PaymentMethod, req.Reference, now)
		if err != nil {
			return err
		}
		if err := s.PaymentRepo.Create(txCtx, record); err != nil {
			return err
		}
		return s.InvoiceRepo.Update(txCtx, inv)
	})
	if err != nil {
		return nil, err
	}

	s.Logger.Infow("recorded invoice payment",
		"invoice_id", inv.ID,
		"invoice_number", inv.InvoiceNumber,
		"amount", req.Amount,
		"invoice_status", inv.InvoiceStatus,
	)
	if inv.InvoiceStatus == types.InvoiceStatusPaid {
		publishEvent(ctx, s.ServiceParams, types.WebhookEventInvoicePaid, inv)
	}
	return inv, nil
}

// MarkOverdueInvoices flips every ISSUED invoice past its due date to
// OVERDUE. Per-invoice failures are logged and skipped so one bad row
// cannot stall the sweep. Safe to re-run: already OVERDUE invoices are
// not matched again.
func (s *invoicingService) MarkOverdueInvoices(ctx context.Context) (int, error) {
	now := time.Now().UTC()
	invoices, err := s.InvoiceRepo.List(ctx, &types.InvoiceFilter{
		InvoiceStatus: []types.InvoiceStatus{types.InvoiceStatusIssued},
		DueDateBefore: &now,
	})
	if err != nil {
		return 0, err
	}

	count := 0
	for _, inv := range invoices {
		tenantCtx := types.SetTenantID(ctx, inv.TenantID)
		if err := inv.MarkOverdue(now); err != nil {
			s.Logger.Errorw("skipping invoice in overdue sweep",
				"invoice_id", inv.ID,
				"error", err,
			)
			continue
		}
		if err := s.InvoiceRepo.Update(tenantCtx, inv); err != nil {
			s.Logger.Errorw("failed to persist overdue invoice",
				"invoice_id", inv.ID,
				"error", err,
			)
			continue
		}
		publishEvent(tenantCtx, s.ServiceParams, types.WebhookEventInvoiceOverdue, inv)
		count++
	}

	s.Logger.Infow("overdue sweep complete", "marked", count, "candidates", len(invoices))
	return count, nil
}

// GenerateAutoInvoices renews every ACTIVE subscription whose billing
// period has come due and invoices the new period. A subscription whose
// next period already has an invoice is skipped, which makes the sweep
// safe to re-run after a partial failure.
func (s *invoicingService) GenerateAutoInvoices(ctx context.Context) (int, error) {
	now := time.Now().UTC()
	subs, err := s.SubRepo.List(ctx, &types.SubscriptionFilter{
		SubscriptionStatus: []types.SubscriptionStatus{types.SubscriptionStatusActive},
		NextBillingDateLTE: &now,
	})
	if err != nil {
		return 0, err
	}

	count := 0
	for _, sub := range subs {
		if err := s.renewAndInvoice(ctx, sub); err != nil {
			if ierr.IsAlreadyExists(err) {
				s.Logger.Warnw("period already invoiced, skipping subscription",
					"subscription_id", sub.ID,
					"tenant_id", sub.TenantID,
				)
				continue
			}
			s.Logger.Errorw("failed to auto-invoice subscription",
				"subscription_id", sub.ID,
				"tenant_id", sub.TenantID,
				"error", err,
			)
			continue
		}
		count++
	}

	s.Logger.Infow("auto-invoice sweep complete", "invoiced", count, "candidates", len(subs))
	return count, nil
}

// renewAndInvoice bills one subscription for its next period and shifts
// the period forward, atomically. The invoice covers the period being
// entered, so the duplicate-period check doubles as the idempotency guard.
func (s *invoicingService) renewAndInvoice(ctx context.Context, sub *subscription.TenantSubscription) error {
	tenantCtx := types.SetTenantID(ctx, sub.TenantID)

	p, err := s.PlanRepo.Get(tenantCtx, sub.PlanID)
	if err != nil {
		return err
	}
	price, err := p.PriceFor(sub.BillingCycle)
	if err != nil {
		return err
	}

	periodStart := sub.CurrentPeriodEnd
	periodEnd, err := types.NextBillingDate(periodStart, sub.BillingCycle)
	if err != nil {
		return err
	}

	return s.DB.WithTx(tenantCtx, func(txCtx context.Context) error {
		inv, err := s.GenerateInvoice(txCtx, &GenerateInvoiceRequest{
			SubscriptionID: &sub.ID,
			Subtotal:       price,
			Description:    fmt.Sprintf("%s subscription renewal (%s)", p.Name, sub.BillingCycle),
			PeriodStart:    &periodStart,
			PeriodEnd:      &periodEnd,
		})
		if err != nil {
			return err
		}

		if err := sub.Renew(); err != nil {
			return err
		}
		if err := s.SubRepo.Update(txCtx, sub); err != nil {
			return err
		}

		s.Logger.Infow("auto-invoiced subscription",
			"subscription_id", sub.ID,
			"invoice_number", inv.InvoiceNumber,
			"period_start", periodStart,
			"period_end", periodEnd,
		)
		publishEvent(txCtx, s.ServiceParams, types.WebhookEventSubscriptionRenewed, sub)
		return nil
	})
}

func (s *invoicingService) GetInvoice(ctx context.Context, id string) (*invoice.Invoice, error) {
	return s.InvoiceRepo.Get(ctx, id)
}

func (s *invoicingService) GetInvoiceByNumber(ctx context.Context, invoiceNumber string) (*invoice.Invoice, error) {
	return s.InvoiceRepo.GetByNumber(ctx, invoiceNumber)
}

func (s *invoicingService) ListInvoices(ctx context.Context, filter *types.InvoiceFilter) ([]*invoice.Invoice, error) {
	if filter == nil {
		filter = &types.InvoiceFilter{}
	}
	if filter.TenantID == "" {
		filter.TenantID = types.GetTenantID(ctx)
	}
	return s.InvoiceRepo.List(ctx, filter)
}

func (s *invoicingService) CancelInvoice(ctx context.Context, id string) (*invoice.Invoice, error) {
	var inv *invoice.Invoice
	err := s.DB.WithTx(ctx, func(txCtx context.Context) error {
		var err error
		inv, err = s.InvoiceRepo.Get(txCtx, id)
		if err != nil {
			return err
		}
		if err := inv.Cancel(); err != nil {
			return err
		}
		return s.InvoiceRepo.Update(txCtx, inv)
	})
	if err != nil {
		return nil, err
	}

	publishEvent(ctx, s.ServiceParams, types.WebhookEventInvoiceCancelled, inv)
	return inv, nil
}
