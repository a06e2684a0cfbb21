package memory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/viant/cogniflow/internal/clock"
	"github.com/viant/cogniflow/internal/idgen"
	"github.com/viant/cogniflow/service/approval"
	"github.com/viant/cogniflow/service/dao"
	"github.com/viant/cogniflow/service/dao/store"
	"github.com/viant/cogniflow/service/messaging"
	qmem "github.com/viant/cogniflow/service/messaging/memory"
)

const publishTimeout = 10 * time.Millisecond

type service struct {
	reqDAO dao.Service[string, approval.Request]
	decDAO dao.Service[string, approval.Decision]
	events messaging.Queue[approval.Event]
}

// key selectors – grab ID field
func reqKey(r *approval.Request) string  { return r.ID }
func decKey(d *approval.Decision) string { return d.ID }

func New(options ...Option) approval.Service {
	ret := &service{
		reqDAO: store.NewMemoryStore[string, approval.Request](reqKey),
		decDAO: store.NewMemoryStore[string, approval.Decision](decKey),
		events: qmem.NewQueue[approval.Event](qmem.DefaultConfig()),
	}
	for _, option := range options {
		option(ret)
	}
	return ret
}

func (s *service) RequestApproval(ctx context.Context, r *approval.Request) error {
	if r == nil {
		return errors.New("invalid request")
	}
	if r.ID == "" {
		r.ID = idgen.Prefixed("approval")
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = clock.Now()
	}
	if err := s.reqDAO.Save(ctx, r); err != nil {
		return err
	}
	s.publish(ctx, &approval.Event{Topic: approval.TopicRequestCreated, Data: r})
	return nil
}

func (s *service) ListPending(ctx context.Context) ([]*approval.Request, error) {
	all, err := s.reqDAO.List(ctx)
	if err != nil {
		return nil, err
	}
	pending := make([]*approval.Request, 0, len(all))
	for _, r := range all {
		if d, _ := s.decDAO.Load(ctx, r.ID); d == nil {
			pending = append(pending, r)
		}
	}
	return pending, nil
}

func (s *service) Decide(ctx context.Context, id string, ok bool, reason string) (*approval.Decision, error) {
	if id == "" {
		return nil, dao.ErrInvalidID
	}
	request, _ := s.reqDAO.Load(ctx, id)
	if request == nil {
		return nil, fmt.Errorf("%w: %s", approval.ErrRequestNotFound, id)
	}
	if d, _ := s.decDAO.Load(ctx, id); d != nil {
		return nil, fmt.Errorf("%w: %s", approval.ErrAlreadyDecided, id)
	}
	d := &approval.Decision{
		ID:        id,
		Approved:  ok,
		Reason:    reason,
		DecidedAt: clock.Now(),
	}
	if err := s.decDAO.Save(ctx, d); err != nil {
		return nil, err
	}
	s.publish(ctx, &approval.Event{Topic: approval.TopicDecisionCreated, Data: d})
	return d, nil
}

func (s *service) Decision(ctx context.Context, id string) (*approval.Decision, error) {
	d, err := s.decDAO.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	if d == nil {
		return nil, dao.NotFound("decision", id)
	}
	return d, nil
}

// publish does not block callers when nobody drains the queue.
func (s *service) publish(ctx context.Context, event *approval.Event) {
	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()
	_ = s.events.Publish(ctx, event)
}

func (s *service) Queue() messaging.Queue[approval.Event] { return s.events }

var _ approval.Service = (*service)(nil)
