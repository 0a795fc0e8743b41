package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"

	domainInvoice "github.com/liyaqa/billing/internal/domain/invoice"
	ierr "github.com/liyaqa/billing/internal/errors"
	"github.com/liyaqa/billing/internal/logger"
	"github.com/liyaqa/billing/internal/postgres"
)

const sequenceRowID = "invoice_sequence"

type sequenceRepository struct {
	client postgres.IClient
	logger *logger.Logger
}

func NewSequenceRepository(client postgres.IClient, logger *logger.Logger) domainInvoice.SequenceRepository {
	return &sequenceRepository{client: client, logger: logger}
}

// NextInvoiceNumber reserves the next number from the singleton sequence
// row. The row is locked FOR UPDATE for the duration of the surrounding
// transaction, which serializes concurrent callers and keeps the sequence
// gapless: the increment only commits together with the invoice insert.
func (r *sequenceRepository) NextInvoiceNumber(ctx context.Context, now time.Time) (string, error) {
	var number string
	err := r.client.WithTx(ctx, func(txCtx context.Context) error {
		q := r.client.Querier(txCtx)

		var seq domainInvoice.InvoiceSequence
		err := sqlx.GetContext(txCtx, q, &seq,
			`SELECT id, current_year, current_sequence, created_at, updated_at
			 FROM invoice_sequences WHERE id = $1 FOR UPDATE`, sequenceRowID)
		if err == sql.ErrNoRows {
			seq = domainInvoice.InvoiceSequence{
				ID:        sequenceRowID,
				CreatedAt: now,
			}
			if _, err := q.ExecContext(txCtx,
				`INSERT INTO invoice_sequences (id, current_year, current_sequence, created_at, updated_at)
				 VALUES ($1, $2, $3, $4, $5)`,
				seq.ID, seq.CurrentYear, seq.CurrentSequence, now, now); err != nil {
				return ierr.WithError(err).
					WithHint("failed to initialize invoice sequence").
					Mark(ierr.ErrDatabase)
			}
			// Lock the freshly inserted row before incrementing
			if err := sqlx.GetContext(txCtx, q, &seq,
				`SELECT id, current_year, current_sequence, created_at, updated_at
				 FROM invoice_sequences WHERE id = $1 FOR UPDATE`, sequenceRowID); err != nil {
				return ierr.WithError(err).
					WithHint("failed to lock invoice sequence").
					Mark(ierr.ErrDatabase)
			}
		} else if err != nil {
			return ierr.WithError(err).
				WithHint("failed to lock invoice sequence").
				Mark(ierr.ErrDatabase)
		}

		number = seq.Next(now)

		if _, err := q.ExecContext(txCtx,
			`UPDATE invoice_sequences
			 SET current_year = $1, current_sequence = $2, updated_at = $3
			 WHERE id = $4`,
			seq.CurrentYear, seq.CurrentSequence, now, seq.ID); err != nil {
			return ierr.WithError(err).
				WithHint("failed to advance invoice sequence").
				Mark(ierr.ErrDatabase)
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return number, nil
}
