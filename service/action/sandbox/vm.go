package sandbox

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dop251/goja"
)

// VM runs code in an embedded ECMAScript interpreter. Each run gets a fresh
// runtime with no host bindings.
type VM struct {
	timeout time.Duration
}

// NewVM creates an embedded runner with the supplied time limit.
func NewVM(timeout time.Duration) *VM {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &VM{timeout: timeout}
}

func (v *VM) Run(ctx context.Context, code string) (json.RawMessage, error) {
	vm := goja.New()
	timer := time.AfterFunc(v.timeout, func() {
		vm.Interrupt(ErrTimeLimit)
	})
	defer timer.Stop()
	stop := context.AfterFunc(ctx, func() {
		vm.Interrupt(ctx.Err())
	})
	defer stop()

	value, err := vm.RunString("(function() {\n" + code + "\n})()")
	if err != nil {
		var interrupted *goja.InterruptedError
		if errors.As(err, &interrupted) {
			if cause, ok := interrupted.Value().(error); ok {
				return nil, cause
			}
			return nil, ErrTimeLimit
		}
		return nil, fmt.Errorf("sandbox: %w", err)
	}
	data, err := json.Marshal(value.Export())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotSerializable, err)
	}
	return data, nil
}
