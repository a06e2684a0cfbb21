package memory

import (
	"context"

	"github.com/viant/cogniflow/model/conversation"
	"github.com/viant/cogniflow/service/dao"
	"github.com/viant/cogniflow/service/dao/criteria"
	"github.com/viant/cogniflow/service/dao/store"
	"github.com/viant/cogniflow/service/dao/turn"
)

// Service implements an in-memory turn archive. All methods work with copies
// so archived turns cannot be changed through a session.
type Service struct {
	store *store.MemoryStore[string, conversation.Turn]
}

var _ turn.Service = (*Service)(nil)

func (s *Service) Save(ctx context.Context, t *conversation.Turn) error {
	if t == nil {
		return dao.ErrNilEntity
	}
	if t.ID == "" {
		return dao.ErrInvalidID
	}
	return s.store.Save(ctx, t.Clone())
}

func (s *Service) Load(ctx context.Context, id string) (*conversation.Turn, error) {
	if id == "" {
		return nil, dao.ErrInvalidID
	}
	t, _ := s.store.Load(ctx, id)
	if t == nil {
		return nil, dao.NotFound("turn", id)
	}
	return t.Clone(), nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	if id == "" {
		return dao.ErrInvalidID
	}
	return s.store.Delete(ctx, id)
}

func (s *Service) List(ctx context.Context, parameters ...*dao.Parameter) ([]*conversation.Turn, error) {
	all, err := s.store.List(ctx)
	if err != nil {
		return nil, err
	}
	var ret []*conversation.Turn
	for _, t := range all {
		if criteria.Match(turn.Fields(t), parameters) {
			ret = append(ret, t.Clone())
		}
	}
	turn.Sort(ret)
	return ret, nil
}

// New creates an empty archive.
func New() *Service {
	return &Service{store: store.NewMemoryStore[string, conversation.Turn](func(t *conversation.Turn) string { return t.ID })}
}
