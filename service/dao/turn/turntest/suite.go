// Package turntest holds the conformance checks shared by turn archives.
package turntest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/cogniflow/model/cognitive"
	"github.com/viant/cogniflow/model/conversation"
	"github.com/viant/cogniflow/model/plan"
	"github.com/viant/cogniflow/service/dao"
	"github.com/viant/cogniflow/service/dao/turn"
)

// Pair builds an archived user/model pair created at the supplied time.
func Pair(query, answer string, at time.Time) (*conversation.Turn, *conversation.Turn) {
	user := conversation.NewUserTurn(query, nil)
	user.CreatedAt = at
	model := conversation.NewModelTurn(query)
	model.CreatedAt = at
	model.Text = answer
	model.State = conversation.StateDone
	model.Plan = plan.New(plan.NewStep(plan.SearchParams{Query: query}), plan.NewStep(plan.SynthesisParams{}))
	model.Context = &cognitive.Vector{Valence: 0.7}
	archived := at.Add(time.Minute)
	user.ArchivedAt = &archived
	model.ArchivedAt = &archived
	return user, model
}

// Run exercises srv against the archive contract.
func Run(t *testing.T, srv turn.Service) {
	t.Helper()
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	firstUser, firstModel := Pair("first", "one", base)
	secondUser, secondModel := Pair("second", "two", base.Add(time.Hour))
	secondModel.State = conversation.StateError
	for _, item := range []*conversation.Turn{secondModel, secondUser, firstModel, firstUser} {
		require.NoError(t, srv.Save(ctx, item))
	}

	loaded, err := srv.Load(ctx, firstModel.ID)
	require.NoError(t, err)
	assert.Equal(t, "one", loaded.Text)
	assert.Equal(t, conversation.StateDone, loaded.State)
	require.NotNil(t, loaded.Plan)
	assert.Equal(t, 2, loaded.Plan.Len())
	assert.Equal(t, "first", loaded.Plan.Steps[0].Params.(plan.SearchParams).Query)
	assert.InDelta(t, 0.7, loaded.Context.Valence, 1e-9)
	require.NotNil(t, loaded.ArchivedAt)

	_, err = srv.Load(ctx, "turn-missing")
	assert.True(t, errors.Is(err, dao.ErrNotFound))
	assert.True(t, errors.Is(srv.Save(ctx, nil), dao.ErrNilEntity))

	testCases := []struct {
		description string
		parameters  []*dao.Parameter
		expect      []string
	}{
		{description: "all ordered by creation", expect: []string{firstUser.ID, firstModel.ID, secondUser.ID, secondModel.ID}},
		{description: "by role", parameters: []*dao.Parameter{dao.NewParameter("Role", "model")}, expect: []string{firstModel.ID, secondModel.ID}},
		{description: "by role and state", parameters: []*dao.Parameter{dao.NewParameter("Role", "model"), dao.NewParameter("State", "error", "cancelled")}, expect: []string{secondModel.ID}},
		{description: "unknown field ignored", parameters: []*dao.Parameter{dao.NewParameter("Color", "blue")}, expect: []string{firstUser.ID, firstModel.ID, secondUser.ID, secondModel.ID}},
	}
	for _, testCase := range testCases {
		list, err := srv.List(ctx, testCase.parameters...)
		require.NoError(t, err, testCase.description)
		var ids []string
		for _, item := range list {
			ids = append(ids, item.ID)
		}
		assert.EqualValues(t, testCase.expect, ids, testCase.description)
	}

	firstModel.Text = "uno"
	require.NoError(t, srv.Save(ctx, firstModel))
	loaded, err = srv.Load(ctx, firstModel.ID)
	require.NoError(t, err)
	assert.Equal(t, "uno", loaded.Text)

	require.NoError(t, srv.Delete(ctx, firstUser.ID))
	require.NoError(t, srv.Delete(ctx, firstUser.ID))
	_, err = srv.Load(ctx, firstUser.ID)
	assert.True(t, errors.Is(err, dao.ErrNotFound))
	list, err := srv.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 3)
}
