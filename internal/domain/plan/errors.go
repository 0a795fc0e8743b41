package plan

import (
	ierr "github.com/liyaqa/billing/internal/errors"
)

var (
	// ErrPlanNotFound is returned when a plan lookup misses
	ErrPlanNotFound = ierr.NewError("plan not found").
			WithHint("Plan not found").
			Mark(ierr.ErrNotFound)
)
