package backend

import (
	"context"

	"golang.org/x/time/rate"
)

type rateLimited struct {
	Model
	limiter *rate.Limiter
}

// WithRateLimit wraps model so that every call waits for limiter first.
func WithRateLimit(model Model, limiter *rate.Limiter) Model {
	if limiter == nil {
		return model
	}
	return &rateLimited{Model: model, limiter: limiter}
}

func (r *rateLimited) Generate(ctx context.Context, request *Request) (string, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return "", err
	}
	return r.Model.Generate(ctx, request)
}

func (r *rateLimited) Stream(ctx context.Context, request *Request, onChunk func(chunk string) error) error {
	if err := r.limiter.Wait(ctx); err != nil {
		return err
	}
	return r.Model.Stream(ctx, request, onChunk)
}
