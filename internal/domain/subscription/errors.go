package subscription

import (
	ierr "github.com/liyaqa/billing/internal/errors"
)

var (
	// ErrSubscriptionNotFound is returned when a subscription lookup misses
	ErrSubscriptionNotFound = ierr.NewError("subscription not found").
				WithHint("Subscription not found").
				Mark(ierr.ErrNotFound)

	// ErrActiveSubscriptionExists is returned when a tenant attempts to
	// subscribe while already holding a non-terminal subscription.
	ErrActiveSubscriptionExists = ierr.NewError("tenant already has an active subscription").
					WithHint("The tenant already has an active or trial subscription").
					Mark(ierr.ErrAlreadyExists)
)
