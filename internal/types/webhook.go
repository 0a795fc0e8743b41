package types

import (
	"encoding/json"
	"time"
)

// WebhookEvent represents a domain event to be delivered to downstream
// consumers (notification and email subsystems). The engine publishes
// these fire-and-forget; delivery is not awaited.
type WebhookEvent struct {
	ID        string          `json:"id"`
	EventName string          `json:"event_name"`
	TenantID  string          `json:"tenant_id"`
	UserID    string          `json:"user_id"`
	Timestamp time.Time       `json:"timestamp"`
	Payload   json.RawMessage `json:"payload"`
}

// invoice event names
const (
	WebhookEventInvoiceGenerated = "invoice.generated"
	WebhookEventInvoicePaid      = "invoice.paid"
	WebhookEventInvoiceOverdue   = "invoice.overdue"
	WebhookEventInvoiceCancelled = "invoice.cancelled"
)

// subscription event names
const (
	WebhookEventSubscriptionCreated     = "subscription.created"
	WebhookEventSubscriptionActivated   = "subscription.activated"
	WebhookEventSubscriptionRenewed     = "subscription.renewed"
	WebhookEventSubscriptionCancelled   = "subscription.cancelled"
	WebhookEventSubscriptionExpired     = "subscription.expired"
	WebhookEventSubscriptionPlanChanged = "subscription.plan_changed"
)
