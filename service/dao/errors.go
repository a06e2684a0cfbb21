package dao

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound  = errors.New("dao: not found")
	ErrInvalidID = errors.New("dao: invalid id")
	ErrNilEntity = errors.New("dao: nil entity")
)

// NotFound wraps ErrNotFound with the kind and id of the missing entity.
func NotFound(kind, id string) error {
	return fmt.Errorf("%w: %s %s", ErrNotFound, kind, id)
}
