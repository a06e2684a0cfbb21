package sqlite

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/cogniflow/service/dao"
	"github.com/viant/cogniflow/service/dao/turn/turntest"
)

func TestService(t *testing.T) {
	srv, err := New(":memory:")
	require.NoError(t, err)
	defer srv.Close()
	turntest.Run(t, srv)
}

func TestService_File(t *testing.T) {
	srv, err := New(filepath.Join(t.TempDir(), "archive.db"))
	require.NoError(t, err)
	defer srv.Close()
	turntest.Run(t, srv)
}

func TestListQuery(t *testing.T) {
	query, args, ok := listQuery([]*dao.Parameter{dao.NewParameter("Role", "model"), dao.NewParameter("State", "done", "error"), nil})
	require.True(t, ok)
	assert.Equal(t, "SELECT data FROM turns WHERE role = ? AND state IN (?, ?) ORDER BY created_at, rowid", query)
	assert.EqualValues(t, []interface{}{"model", "done", "error"}, args)

	_, _, ok = listQuery([]*dao.Parameter{dao.NewParameter("State")})
	assert.False(t, ok)
}
