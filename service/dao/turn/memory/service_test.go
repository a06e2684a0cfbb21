package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/cogniflow/service/dao/turn/turntest"
)

func TestService(t *testing.T) {
	turntest.Run(t, New())
}

func TestService_Copies(t *testing.T) {
	srv := New()
	_, model := turntest.Pair("q", "a", time.Now())
	require.NoError(t, srv.Save(context.Background(), model))
	model.Text = "changed"
	loaded, err := srv.Load(context.Background(), model.ID)
	require.NoError(t, err)
	assert.Equal(t, "a", loaded.Text)
}
