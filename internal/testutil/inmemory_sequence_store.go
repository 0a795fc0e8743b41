package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/liyaqa/billing/internal/domain/invoice"
)

// InMemorySequenceStore implements invoice.SequenceRepository. The mutex
// spans the whole read-increment cycle, matching the row lock the real
// implementation takes.
type InMemorySequenceStore struct {
	mu  sync.Mutex
	seq invoice.InvoiceSequence
}

func NewInMemorySequenceStore() *InMemorySequenceStore {
	return &InMemorySequenceStore{}
}

func (s *InMemorySequenceStore) NextInvoiceNumber(ctx context.Context, now time.Time) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seq.Next(now), nil
}

// Clear resets the sequence
func (s *InMemorySequenceStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq = invoice.InvoiceSequence{}
}
