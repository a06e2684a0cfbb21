package modulate

import (
	"context"

	"github.com/viant/cogniflow/model/cognitive"
	"github.com/viant/cogniflow/service/backend"
)

const name = "modulate"

// Input represents context modulation input
type Input struct {
	Concept string `json:"concept"`
}

// Output carries the vector replacing the session context
type Output struct {
	Vector *cognitive.Vector `json:"vector"`
}

// Service maps concepts to cognitive context vectors.
type Service struct {
	backend backend.Backend
}

// New creates a modulation service
func New(backend backend.Backend) *Service {
	return &Service{backend: backend}
}

// Name returns the service name
func (s *Service) Name() string {
	return name
}

// Execute computes the vector for the concept, clamped to its bounds.
func (s *Service) Execute(ctx context.Context, input *Input, output *Output) error {
	vector, err := s.backend.Modulate(ctx, input.Concept)
	if err != nil {
		return err
	}
	if vector == nil {
		return &backend.Error{Op: "modulate", Err: backend.ErrEmptyResult}
	}
	vector.Clamp()
	output.Vector = vector
	return nil
}
