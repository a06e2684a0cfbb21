package executor

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/cogniflow/model/plan"
	"github.com/viant/cogniflow/service/action/image"
	"github.com/viant/cogniflow/service/action/modulate"
	"github.com/viant/cogniflow/service/action/sandbox"
	"github.com/viant/cogniflow/service/action/search"
	"github.com/viant/cogniflow/service/backend"
	"github.com/viant/cogniflow/service/backend/fake"
)

func newService(t *testing.T, b backend.Backend, options ...Option) *Service {
	options = append([]Option{
		WithSearch(search.New(b)),
		WithSandbox(sandbox.New(sandbox.NewVM(time.Second))),
		WithModulate(modulate.New(b)),
		WithImage(image.New(b)),
	}, options...)
	service, err := New(options...)
	require.NoError(t, err)
	return service
}

func TestNew_MissingHandler(t *testing.T) {
	_, err := New(WithSearch(search.New(fake.New(nil))))
	assert.ErrorIs(t, err, ErrMissingHandler)
}

func TestService_Execute(t *testing.T) {
	b := fake.New(nil)
	var executed []int
	service := newService(t, b, WithListener(func(step *plan.Step, outcome *Outcome, err error, elapsed time.Duration) {
		executed = append(executed, step.Ordinal)
	}))

	p := plan.New(
		plan.NewStep(plan.SearchParams{Query: "go"}),
		plan.NewStep(plan.CodeParams{Code: "return 2+2"}),
		plan.NewStep(plan.ModulationParams{Concept: "calm"}),
		plan.NewStep(plan.ImageSynthesisParams{Concept: "fox"}),
		plan.NewStep(plan.ImageAnalysisParams{SourceStep: 4}),
		plan.NewStep(plan.ImageAnalysisParams{SourceStep: 2}),
		plan.NewStep(plan.ImageAnalysisParams{SourceStep: 9}),
		plan.NewStep(plan.SynthesisParams{}),
	)

	ctx := context.Background()
	outcome, err := service.Execute(ctx, p.Steps[0], p)
	require.NoError(t, err)
	assert.Equal(t, "results for go", outcome.Result.Text)
	assert.Len(t, outcome.Result.Citations, 1)

	outcome, err = service.Execute(ctx, p.Steps[1], p)
	require.NoError(t, err)
	assert.Equal(t, "4", string(outcome.Result.Value))

	outcome, err = service.Execute(ctx, p.Steps[2], p)
	require.NoError(t, err)
	require.NotNil(t, outcome.Context)
	assert.GreaterOrEqual(t, outcome.Context.Arousal, 0.0)

	outcome, err = service.Execute(ctx, p.Steps[3], p)
	require.NoError(t, err)
	require.NotNil(t, outcome.Result.Descriptor)
	assert.Equal(t, "fox", outcome.Result.Descriptor.Concept)
	p.Steps[3].Result = outcome.Result

	outcome, err = service.Execute(ctx, p.Steps[4], p)
	require.NoError(t, err)
	assert.Contains(t, outcome.Result.Text, `depicting "fox"`)

	for _, step := range p.Steps[5:7] {
		_, err = service.Execute(ctx, step, p)
		assert.ErrorIs(t, err, image.ErrInvalidReference)
		assert.False(t, backend.IsBackendError(err))
	}

	_, err = service.Execute(ctx, p.Steps[7], p)
	assert.ErrorIs(t, err, ErrNotDispatched)
	assert.Equal(t, []int{1, 2, 3, 4, 5, 6, 7, 8}, executed)
}

func TestService_ExecuteFailures(t *testing.T) {
	b := fake.New(nil)
	b.SearchFunc = func(ctx context.Context, query string) (*backend.SearchResult, error) {
		return nil, &backend.Error{Op: "search", Err: errors.New("quota exceeded")}
	}
	service := newService(t, b)

	step := plan.NewStep(plan.SearchParams{Query: "go"})
	step.Ordinal = 1
	_, err := service.Execute(context.Background(), step, plan.New(step))
	var stepErr *StepExecutionError
	require.True(t, errors.As(err, &stepErr))
	assert.Equal(t, 1, stepErr.Ordinal)
	assert.True(t, backend.IsBackendError(err))

	code := plan.NewStep(plan.CodeParams{Code: "throw new Error('boom')"})
	_, err = service.Execute(context.Background(), code, plan.New(code))
	require.Error(t, err)
	assert.False(t, backend.IsBackendError(err))
}
