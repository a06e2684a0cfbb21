package backend

import (
	"errors"
	"fmt"
	"strings"
)

// ErrEmptyResult is wrapped in Error when the backend returns no result and no error.
var ErrEmptyResult = errors.New("empty result")

// Error reports a failure raised by the generative backend.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("backend %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// IsBackendError reports whether err originates from the generative backend.
func IsBackendError(err error) bool {
	var target *Error
	return errors.As(err, &target)
}

// SchemaError lists the violations of structured output.
type SchemaError struct {
	Schema     string
	Violations []string
	Output     string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("output does not match %s schema: %s", e.Schema, strings.Join(e.Violations, "; "))
}

// PlanParseError reports planner output that could not be turned into a plan.
type PlanParseError struct {
	Err error
}

func (e *PlanParseError) Error() string {
	return fmt.Sprintf("failed to parse plan: %v", e.Err)
}

func (e *PlanParseError) Unwrap() error { return e.Err }
