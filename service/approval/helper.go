package approval

import (
	"context"
	"sort"
)

// PendingFilter narrows ListPending results.
type PendingFilter func(r *Request) bool

// WithTurnID keeps requests of a single turn.
func WithTurnID(turnID string) PendingFilter {
	return func(r *Request) bool { return r.TurnID == turnID }
}

// WithTool keeps requests whose plan uses tool.
func WithTool(tool string) PendingFilter {
	return func(r *Request) bool {
		for _, candidate := range r.Tools {
			if candidate == tool {
				return true
			}
		}
		return false
	}
}

// ListPending returns pending requests matching every filter, oldest first.
func ListPending(ctx context.Context, svc Service, filters ...PendingFilter) ([]*Request, error) {
	pending, err := svc.ListPending(ctx)
	if err != nil {
		return nil, err
	}
	ret := make([]*Request, 0, len(pending))
outer:
	for _, r := range pending {
		for _, filter := range filters {
			if !filter(r) {
				continue outer
			}
		}
		ret = append(ret, r)
	}
	sort.SliceStable(ret, func(i, j int) bool { return ret[i].CreatedAt.Before(ret[j].CreatedAt) })
	return ret, nil
}
