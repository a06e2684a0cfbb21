package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/cogniflow/service/dao"
)

type record struct {
	ID    string
	Value int
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore[string, record](func(r *record) string { return r.ID })

	assert.ErrorIs(t, store.Save(ctx, nil), dao.ErrNilEntity)
	for i, id := range []string{"c", "a", "b"} {
		require.NoError(t, store.Save(ctx, &record{ID: id, Value: i}))
	}
	require.NoError(t, store.Save(ctx, &record{ID: "a", Value: 10}))

	loaded, err := store.Load(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, 10, loaded.Value)

	missing, err := store.Load(ctx, "z")
	assert.NoError(t, err)
	assert.Nil(t, missing)

	require.NoError(t, store.Delete(ctx, "c"))
	require.NoError(t, store.Delete(ctx, "c"))
	all, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "a", all[0].ID)
	assert.Equal(t, "b", all[1].ID)
}
