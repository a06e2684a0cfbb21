package memory

import (
	"github.com/viant/cogniflow/service/approval"
	"github.com/viant/cogniflow/service/messaging"
)

// Option configures the memory approval service.
type Option func(*service)

// WithQueue sends request and decision events to queue, for example one
// drained by an operator UI.
func WithQueue(queue messaging.Queue[approval.Event]) Option {
	return func(s *service) {
		if queue != nil {
			s.events = queue
		}
	}
}
