package testutil

import (
	"context"
	"sync"

	"github.com/liyaqa/billing/internal/publisher"
	"github.com/liyaqa/billing/internal/types"
)

// InMemoryEventPublisher records published events for assertions
type InMemoryEventPublisher struct {
	mu     sync.RWMutex
	events []*types.WebhookEvent
}

var _ publisher.EventPublisher = (*InMemoryEventPublisher)(nil)

// NewInMemoryEventPublisher creates a new in-memory event publisher
func NewInMemoryEventPublisher() *InMemoryEventPublisher {
	return &InMemoryEventPublisher{
		events: make([]*types.WebhookEvent, 0),
	}
}

func (p *InMemoryEventPublisher) PublishEvent(ctx context.Context, event *types.WebhookEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *InMemoryEventPublisher) Close() error {
	return nil
}

// Events returns all published events
func (p *InMemoryEventPublisher) Events() []*types.WebhookEvent {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return append([]*types.WebhookEvent{}, p.events...)
}

// EventsByName returns published events with the given name
func (p *InMemoryEventPublisher) EventsByName(name string) []*types.WebhookEvent {
	p.mu.RLock()
	defer p.mu.RUnlock()

	var result []*types.WebhookEvent
	for _, event := range p.events {
		if event.EventName == name {
			result = append(result, event)
		}
	}
	return result
}

// Clear discards all recorded events
func (p *InMemoryEventPublisher) Clear() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = p.events[:0]
}
