package plan

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyPlan is returned when a plan has no steps.
	ErrEmptyPlan = errors.New("plan: no steps")

	// ErrIndexOutOfRange is returned by edit operations addressing a missing step.
	ErrIndexOutOfRange = errors.New("plan: step index out of range")

	// ErrIllegalTransition is returned when a step status would move backwards.
	ErrIllegalTransition = errors.New("plan: illegal status transition")
)

// ValidationError describes an invalid step field.
type ValidationError struct {
	Ordinal int
	Field   string
	Reason  string
}

func (e *ValidationError) Error() string {
	if e.Ordinal > 0 {
		return fmt.Sprintf("plan: step %d: %s", e.Ordinal, e.Reason)
	}
	return fmt.Sprintf("plan: %s", e.Reason)
}
