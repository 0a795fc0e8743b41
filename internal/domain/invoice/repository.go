package invoice

import (
	"context"
	"time"

	"github.com/liyaqa/billing/internal/types"
)

// Repository defines the interface for invoice persistence operations
type Repository interface {
	// Create creates a new invoice
	Create(ctx context.Context, invoice *Invoice) error

	// Get retrieves an invoice by ID
	Get(ctx context.Context, id string) (*Invoice, error)

	// GetByNumber retrieves an invoice by its human invoice number
	GetByNumber(ctx context.Context, invoiceNumber string) (*Invoice, error)

	// Update updates an existing invoice
	Update(ctx context.Context, invoice *Invoice) error

	// List retrieves invoices based on filter criteria
	List(ctx context.Context, filter *types.InvoiceFilter) ([]*Invoice, error)

	// ExistsForPeriod reports whether a non-cancelled invoice already
	// covers the exact billing period for the tenant
	ExistsForPeriod(ctx context.Context, tenantID string, periodStart, periodEnd time.Time) (bool, error)
}

// SequenceRepository issues invoice numbers from the singleton sequence
// record. Implementations must serialize NextInvoiceNumber across
// concurrent callers: the read-increment-persist has to run under an
// exclusive lock (row lock or equivalent) or duplicate numbers result.
type SequenceRepository interface {
	NextInvoiceNumber(ctx context.Context, now time.Time) (string, error)
}
