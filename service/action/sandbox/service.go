package sandbox

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

const name = "sandbox"

// DefaultTimeout bounds a single script run.
const DefaultTimeout = 2 * time.Second

var (
	// ErrTimeLimit is returned when a script exceeds its time limit.
	ErrTimeLimit = errors.New("sandbox: time limit exceeded")

	// ErrNotSerializable is returned when the script result has no JSON form.
	ErrNotSerializable = errors.New("sandbox: result is not serializable")
)

// Runner executes a function body and returns its JSON encoded return value.
type Runner interface {
	Run(ctx context.Context, code string) (json.RawMessage, error)
}

// Input represents sandboxed code input
type Input struct {
	Code string `json:"code"`
}

// Output carries the serialized return value
type Output struct {
	Value json.RawMessage `json:"value"`
}

// Service runs untrusted code through a Runner.
type Service struct {
	runner Runner
}

// New creates a sandbox service; a nil runner defaults to the embedded VM.
func New(runner Runner) *Service {
	if runner == nil {
		runner = NewVM(DefaultTimeout)
	}
	return &Service{runner: runner}
}

// Name returns the service name
func (s *Service) Name() string {
	return name
}

// Execute runs input code; failures are local to the step.
func (s *Service) Execute(ctx context.Context, input *Input, output *Output) error {
	value, err := s.runner.Run(ctx, input.Code)
	if err != nil {
		return err
	}
	output.Value = value
	return nil
}
