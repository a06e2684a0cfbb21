package search

import (
	"context"

	"github.com/viant/cogniflow/model/plan"
	"github.com/viant/cogniflow/service/backend"
)

const name = "search"

// Input represents web search input
type Input struct {
	Query string `json:"query"`
}

// Output represents web search output
type Output struct {
	Text      string          `json:"text"`
	Citations []plan.Citation `json:"citations,omitempty"`
}

// Service answers queries through the generative backend.
type Service struct {
	backend backend.Backend
}

// New creates a search service
func New(backend backend.Backend) *Service {
	return &Service{backend: backend}
}

// Name returns the service name
func (s *Service) Name() string {
	return name
}

// Execute runs the query. Backend failures are returned as is.
func (s *Service) Execute(ctx context.Context, input *Input, output *Output) error {
	result, err := s.backend.Search(ctx, input.Query)
	if err != nil {
		return err
	}
	if result == nil {
		return &backend.Error{Op: "search", Err: backend.ErrEmptyResult}
	}
	output.Text = result.Text
	output.Citations = result.Citations
	return nil
}
