package idgen

import "github.com/google/uuid"

// NewFunc returns a new globally unique identifier. Override in tests for
// deterministic identifiers.
var NewFunc = func() string { return uuid.New().String() }

// New returns a new identifier.
func New() string { return NewFunc() }

// Prefixed returns a new identifier with the supplied prefix, e.g. "turn-<uuid>".
func Prefixed(prefix string) string {
	if prefix == "" {
		return New()
	}
	return prefix + "-" + New()
}
