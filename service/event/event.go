package event

import (
	"time"

	"github.com/viant/cogniflow/internal/clock"
)

// Context identifies where an event originates.
type Context struct {
	SessionID string `json:"sessionID"`
	TurnID    string `json:"turnID,omitempty"`
	EventType string `json:"eventType"`
	Seq       uint64 `json:"seq"`
}

type Event[T any] struct {
	Context   *Context               `json:"context"`
	CreatedAt time.Time              `json:"createdAt"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Data      T                      `json:"data"`
}

func NewEvent[T any](context *Context, data T) *Event[T] {
	return &Event[T]{
		Context:   context,
		CreatedAt: clock.Now(),
		Data:      data,
	}
}
