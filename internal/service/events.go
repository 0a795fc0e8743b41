package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/liyaqa/billing/internal/types"
)

// publishEvent marshals the payload and publishes a billing event. Events
// are best effort: failures are logged and never propagate to the caller.
func publishEvent(ctx context.Context, params ServiceParams, eventName string, payload interface{}) {
	body, err := json.Marshal(payload)
	if err != nil {
		params.Logger.Errorw("failed to marshal event payload",
			"event_name", eventName,
			"error", err,
		)
		return
	}

	event := &types.WebhookEvent{
		ID:        types.GenerateUUIDWithPrefix(types.UUID_PREFIX_WEBHOOK_EVENT),
		EventName: eventName,
		TenantID:  types.GetTenantID(ctx),
		UserID:    types.GetUserID(ctx),
		Timestamp: time.Now().UTC(),
		Payload:   json.RawMessage(body),
	}
	if err := params.EventPublisher.PublishEvent(ctx, event); err != nil {
		params.Logger.Errorf("failed to publish %s event: %v", eventName, err)
	}
}
