package executor

import (
	"errors"
	"fmt"

	"github.com/viant/cogniflow/model/plan"
)

var (
	ErrMissingHandler = errors.New("no handler registered for tool")
	ErrNotDispatched  = errors.New("tool is not dispatched by the executor")
)

// StepExecutionError reports a failed tool invocation.
type StepExecutionError struct {
	Ordinal     int
	Tool        plan.ToolKind
	Description string
	Err         error
}

func (e *StepExecutionError) Error() string {
	return fmt.Sprintf("step %d (%s) %q failed: %v", e.Ordinal, e.Tool, e.Description, e.Err)
}

func (e *StepExecutionError) Unwrap() error { return e.Err }
