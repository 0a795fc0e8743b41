package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	domainPayment "github.com/liyaqa/billing/internal/domain/payment"
	ierr "github.com/liyaqa/billing/internal/errors"
	"github.com/liyaqa/billing/internal/logger"
	"github.com/liyaqa/billing/internal/postgres"
)

const paymentColumns = `id, invoice_id, amount, currency, payment_method, reference,
	received_at, tenant_id, status, created_at, updated_at, created_by, updated_by`

type paymentRepository struct {
	client postgres.IClient
	logger *logger.Logger
}

func NewPaymentRepository(client postgres.IClient, logger *logger.Logger) domainPayment.Repository {
	return &paymentRepository{client: client, logger: logger}
}

func (r *paymentRepository) Create(ctx context.Context, record *domainPayment.PaymentRecord) error {
	query := fmt.Sprintf(`
		INSERT INTO payment_records (%s)
		VALUES (:id, :invoice_id, :amount, :currency, :payment_method, :reference,
			:received_at, :tenant_id, :status, :created_at, :updated_at, :created_by, :updated_by)`, paymentColumns)

	if _, err := sqlx.NamedExecContext(ctx, r.client.Querier(ctx), query, record); err != nil {
		return ierr.WithError(err).
			WithHintf("failed to create payment record for invoice %s", record.InvoiceID).
			Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *paymentRepository) ListByInvoice(ctx context.Context, invoiceID string) ([]*domainPayment.PaymentRecord, error) {
	query := fmt.Sprintf(`SELECT %s FROM payment_records WHERE invoice_id = $1 ORDER BY received_at`, paymentColumns)

	var records []*domainPayment.PaymentRecord
	if err := sqlx.SelectContext(ctx, r.client.Querier(ctx), &records, query, invoiceID); err != nil {
		return nil, ierr.WithError(err).
			WithHintf("failed to list payments for invoice %s", invoiceID).
			Mark(ierr.ErrDatabase)
	}
	return records, nil
}
