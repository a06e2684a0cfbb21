package dao

import (
	"context"
)

// Service persists entities of type T keyed by K. Turn archives and the
// approval store are built on it.
type Service[K comparable, T any] interface {
	// Save inserts or replaces the entity under its key.
	Save(ctx context.Context, t *T) error

	// Load returns the entity or an error wrapping ErrNotFound. The generic
	// memory store returns (nil, nil) instead so callers can decide.
	Load(ctx context.Context, id K) (*T, error)

	Delete(ctx context.Context, id K) error

	// List returns entities matching every parameter, oldest first.
	List(ctx context.Context, parameters ...*Parameter) ([]*T, error)
}
