package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/samber/lo"

	domainInvoice "github.com/liyaqa/billing/internal/domain/invoice"
	ierr "github.com/liyaqa/billing/internal/errors"
	"github.com/liyaqa/billing/internal/logger"
	"github.com/liyaqa/billing/internal/postgres"
	"github.com/liyaqa/billing/internal/types"
)

const invoiceColumns = `id, invoice_number, subscription_id, invoice_status, currency,
	subtotal, vat_rate, vat_amount, total, paid_amount, description,
	billing_period_start, billing_period_end, issued_at, due_date, paid_at,
	payment_method, payment_reference, tenant_id, status, created_at,
	updated_at, created_by, updated_by`

type invoiceRepository struct {
	client postgres.IClient
	logger *logger.Logger
}

func NewInvoiceRepository(client postgres.IClient, logger *logger.Logger) domainInvoice.Repository {
	return &invoiceRepository{client: client, logger: logger}
}

func (r *invoiceRepository) Create(ctx context.Context, inv *domainInvoice.Invoice) error {
	query := fmt.Sprintf(`
		INSERT INTO invoices (%s)
		VALUES (:id, :invoice_number, :subscription_id, :invoice_status, :currency,
			:subtotal, :vat_rate, :vat_amount, :total, :paid_amount, :description,
			:billing_period_start, :billing_period_end, :issued_at, :due_date, :paid_at,
			:payment_method, :payment_reference, :tenant_id, :status, :created_at,
			:updated_at, :created_by, :updated_by)`, invoiceColumns)

	if _, err := sqlx.NamedExecContext(ctx, r.client.Querier(ctx), query, inv); err != nil {
		return ierr.WithError(err).
			WithHintf("failed to create invoice %s", inv.InvoiceNumber).
			Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *invoiceRepository) Get(ctx context.Context, id string) (*domainInvoice.Invoice, error) {
	query := fmt.Sprintf(`SELECT %s FROM invoices WHERE id = $1`, invoiceColumns)

	var inv domainInvoice.Invoice
	err := sqlx.GetContext(ctx, r.client.Querier(ctx), &inv, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, domainInvoice.ErrInvoiceNotFound
		}
		return nil, ierr.WithError(err).
			WithHintf("failed to get invoice %s", id).
			Mark(ierr.ErrDatabase)
	}
	return &inv, nil
}

func (r *invoiceRepository) GetByNumber(ctx context.Context, invoiceNumber string) (*domainInvoice.Invoice, error) {
	query := fmt.Sprintf(`SELECT %s FROM invoices WHERE invoice_number = $1`, invoiceColumns)

	var inv domainInvoice.Invoice
	err := sqlx.GetContext(ctx, r.client.Querier(ctx), &inv, query, invoiceNumber)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, domainInvoice.ErrInvoiceNotFound
		}
		return nil, ierr.WithError(err).
			WithHintf("failed to get invoice %s", invoiceNumber).
			Mark(ierr.ErrDatabase)
	}
	return &inv, nil
}

func (r *invoiceRepository) Update(ctx context.Context, inv *domainInvoice.Invoice) error {
	inv.UpdatedAt = time.Now().UTC()
	query := `
		UPDATE invoices SET
			invoice_status = :invoice_status,
			paid_amount = :paid_amount,
			paid_at = :paid_at,
			payment_method = :payment_method,
			payment_reference = :payment_reference,
			issued_at = :issued_at,
			due_date = :due_date,
			updated_at = :updated_at,
			updated_by = :updated_by
		WHERE id = :id`

	result, err := sqlx.NamedExecContext(ctx, r.client.Querier(ctx), query, inv)
	if err != nil {
		return ierr.WithError(err).
			WithHintf("failed to update invoice %s", inv.ID).
			Mark(ierr.ErrDatabase)
	}
	if rows, err := result.RowsAffected(); err == nil && rows == 0 {
		return domainInvoice.ErrInvoiceNotFound
	}
	return nil
}

func (r *invoiceRepository) List(ctx context.Context, filter *types.InvoiceFilter) ([]*domainInvoice.Invoice, error) {
	conditions := []string{"1=1"}
	args := []interface{}{}

	if filter.TenantID != "" {
		args = append(args, filter.TenantID)
		conditions = append(conditions, fmt.Sprintf("tenant_id = $%d", len(args)))
	}
	if filter.SubscriptionID != "" {
		args = append(args, filter.SubscriptionID)
		conditions = append(conditions, fmt.Sprintf("subscription_id = $%d", len(args)))
	}
	if len(filter.InvoiceStatus) > 0 {
		statuses := lo.Map(filter.InvoiceStatus, func(s types.InvoiceStatus, _ int) string {
			return string(s)
		})
		args = append(args, "{"+strings.Join(statuses, ",")+"}")
		conditions = append(conditions, fmt.Sprintf("invoice_status = ANY($%d)", len(args)))
	}
	if filter.DueDateBefore != nil {
		args = append(args, *filter.DueDateBefore)
		conditions = append(conditions, fmt.Sprintf("due_date < $%d", len(args)))
	}

	query := fmt.Sprintf(`SELECT %s FROM invoices WHERE %s ORDER BY created_at DESC`,
		invoiceColumns, strings.Join(conditions, " AND "))

	var invoices []*domainInvoice.Invoice
	if err := sqlx.SelectContext(ctx, r.client.Querier(ctx), &invoices, query, args...); err != nil {
		return nil, ierr.WithError(err).
			WithHint("failed to list invoices").
			Mark(ierr.ErrDatabase)
	}
	return invoices, nil
}

func (r *invoiceRepository) ExistsForPeriod(ctx context.Context, tenantID string, periodStart, periodEnd time.Time) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM invoices
			WHERE tenant_id = $1
			  AND billing_period_start = $2
			  AND billing_period_end = $3
			  AND invoice_status != $4
		)`

	var exists bool
	err := sqlx.GetContext(ctx, r.client.Querier(ctx), &exists, query,
		tenantID, periodStart, periodEnd, types.InvoiceStatusCancelled)
	if err != nil {
		return false, ierr.WithError(err).
			WithHint("failed to check billing period").
			Mark(ierr.ErrDatabase)
	}
	return exists, nil
}
