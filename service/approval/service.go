package approval

import (
	"context"
	"errors"

	"github.com/viant/cogniflow/service/messaging"
)

var (
	ErrRequestNotFound = errors.New("approval: request not found")
	ErrAlreadyDecided  = errors.New("approval: already decided")
)

// Service defines the approval service interface.
type Service interface {
	RequestApproval(ctx context.Context, r *Request) error
	ListPending(ctx context.Context) ([]*Request, error)
	Decide(ctx context.Context, id string, approved bool, reason string) (*Decision, error)
	Decision(ctx context.Context, id string) (*Decision, error)
	Queue() messaging.Queue[Event]
}
