package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	stdhttp "net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/cogniflow"
	"github.com/viant/cogniflow/model/conversation"
	"github.com/viant/cogniflow/model/plan"
	"github.com/viant/cogniflow/runtime/execution"
	"github.com/viant/cogniflow/runtime/orchestrator"
	"github.com/viant/cogniflow/service/backend/fake"
	transport "github.com/viant/cogniflow/transport/http"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newServer(t *testing.T, steps ...plan.Params) *httptest.Server {
	t.Helper()
	srv, err := cogniflow.New(
		cogniflow.WithLogger(zerolog.Nop()),
		cogniflow.WithBackend(fake.New(steps, "The answer ", "is 4")),
	)
	require.NoError(t, err)
	server := httptest.NewServer(transport.New(srv).Handler())
	t.Cleanup(func() {
		server.Close()
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Close(ctx)
	})
	return server
}

func call(t *testing.T, method, url string, body interface{}, target interface{}) int {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	request, err := stdhttp.NewRequest(method, url, reader)
	require.NoError(t, err)
	request.Header.Set("Content-Type", "application/json")
	response, err := stdhttp.DefaultClient.Do(request)
	require.NoError(t, err)
	defer response.Body.Close()
	if target != nil && response.StatusCode < 300 && response.StatusCode != stdhttp.StatusNoContent {
		require.NoError(t, json.NewDecoder(response.Body).Decode(target))
	}
	return response.StatusCode
}

func TestServer_Workflow(t *testing.T) {
	server := newServer(t, plan.CodeParams{Code: "return 2+2"}, plan.SynthesisParams{})
	created := &transport.TaskResponse{}
	require.Equal(t, stdhttp.StatusCreated, call(t, stdhttp.MethodPost, server.URL+"/v1/sessions", nil, created))
	session := server.URL + "/v1/sessions/" + created.SessionID

	submitted := &transport.TaskResponse{}
	status := call(t, stdhttp.MethodPost, session+"/submit?wait=true", transport.SubmitRequest{Query: "compute 2+2 using code"}, submitted)
	require.Equal(t, stdhttp.StatusAccepted, status)
	assert.Equal(t, execution.StateAwaitingExecution, submitted.State)
	require.NotEmpty(t, submitted.TurnID)
	turnURL := session + "/turns/" + submitted.TurnID

	assert.Equal(t, stdhttp.StatusConflict, call(t, stdhttp.MethodPost, session+"/submit", transport.SubmitRequest{Query: "again"}, nil))
	assert.Equal(t, stdhttp.StatusBadRequest, call(t, stdhttp.MethodPost, session+"/submit", map[string]string{}, nil))

	turn := &conversation.Turn{}
	require.Equal(t, stdhttp.StatusOK, call(t, stdhttp.MethodPost, turnURL+"/steps", nil, turn))
	require.Equal(t, 3, turn.Plan.Len())
	assert.Equal(t, stdhttp.StatusUnprocessableEntity, call(t, stdhttp.MethodPost, turnURL+"/execute", nil, nil))

	update := map[string]interface{}{"tool": "web_search", "query": "golang release"}
	require.Equal(t, stdhttp.StatusOK, call(t, stdhttp.MethodPut, turnURL+"/steps/2", update, turn))
	assert.Equal(t, plan.SearchParams{Query: "golang release"}, turn.Plan.Steps[2].Params)
	require.Equal(t, stdhttp.StatusOK, call(t, stdhttp.MethodPost, turnURL+"/reorder", map[string]int{"from": 1, "to": 2}, turn))
	assert.Equal(t, plan.ToolFinalSynthesis, turn.Plan.Steps[2].Tool)
	assert.Equal(t, stdhttp.StatusUnprocessableEntity, call(t, stdhttp.MethodDelete, turnURL+"/steps/7", nil, nil))
	assert.Equal(t, stdhttp.StatusBadRequest, call(t, stdhttp.MethodDelete, turnURL+"/steps/x", nil, nil))

	pending := map[string][]map[string]interface{}{}
	require.Equal(t, stdhttp.StatusOK, call(t, stdhttp.MethodGet, session+"/approvals", nil, &pending))
	assert.Len(t, pending["pending"], 1)

	executed := &transport.TaskResponse{}
	require.Equal(t, stdhttp.StatusAccepted, call(t, stdhttp.MethodPost, turnURL+"/execute?wait=true", nil, executed))
	assert.Equal(t, execution.StateDone, executed.State)
	assert.Equal(t, stdhttp.StatusConflict, call(t, stdhttp.MethodPost, turnURL+"/steps", nil, nil))

	snapshot := &orchestrator.Snapshot{}
	require.Equal(t, stdhttp.StatusOK, call(t, stdhttp.MethodGet, session, nil, snapshot))
	require.Len(t, snapshot.Turns, 2)
	model := snapshot.Turns[1]
	assert.Equal(t, "The answer is 4", model.Text)
	assert.Equal(t, []plan.Status{plan.StatusComplete, plan.StatusComplete, plan.StatusComplete}, []plan.Status{
		model.Plan.Steps[0].Status, model.Plan.Steps[1].Status, model.Plan.Steps[2].Status,
	})

	assert.Equal(t, stdhttp.StatusNoContent, call(t, stdhttp.MethodPost, turnURL+"/archive", nil, nil))
	archived := map[string][]*conversation.Turn{}
	require.Equal(t, stdhttp.StatusOK, call(t, stdhttp.MethodGet, session+"/archive?role=model", nil, &archived))
	require.Len(t, archived["turns"], 1)
	assert.Equal(t, submitted.TurnID, archived["turns"][0].ID)

	assert.Equal(t, stdhttp.StatusOK, call(t, stdhttp.MethodPost, session+"/reset", nil, nil))
	assert.Equal(t, stdhttp.StatusNoContent, call(t, stdhttp.MethodDelete, session, nil, nil))
	assert.Equal(t, stdhttp.StatusNotFound, call(t, stdhttp.MethodGet, session, nil, nil))
}

func TestServer_Policy(t *testing.T) {
	server := newServer(t)
	config := map[string]interface{}{}
	require.Equal(t, stdhttp.StatusOK, call(t, stdhttp.MethodPut, server.URL+"/v1/policy", map[string]interface{}{"mode": "auto", "block": []string{"image_synthesis"}}, &config))
	assert.Equal(t, "auto", config["mode"])

	created := &transport.TaskResponse{}
	require.Equal(t, stdhttp.StatusCreated, call(t, stdhttp.MethodPost, server.URL+"/v1/sessions", nil, created))
	submitted := &transport.TaskResponse{}
	require.Equal(t, stdhttp.StatusAccepted, call(t, stdhttp.MethodPost, server.URL+"/v1/sessions/"+created.SessionID+"/submit?wait=true", transport.SubmitRequest{Query: "q"}, submitted))
	assert.Equal(t, execution.StateDone, submitted.State)

	response, err := stdhttp.Get(server.URL + "/metrics")
	require.NoError(t, err)
	defer response.Body.Close()
	assert.Equal(t, stdhttp.StatusOK, response.StatusCode)
}

func TestServer_Stream(t *testing.T) {
	server := newServer(t, plan.SearchParams{Query: "go"}, plan.SynthesisParams{})
	created := &transport.TaskResponse{}
	require.Equal(t, stdhttp.StatusCreated, call(t, stdhttp.MethodPost, server.URL+"/v1/sessions", nil, created))
	session := server.URL + "/v1/sessions/" + created.SessionID

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(session, "http")+"/stream", nil)
	require.NoError(t, err)
	defer conn.Close()
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	initial := &transport.StreamMessage{}
	require.NoError(t, conn.ReadJSON(initial))
	assert.Equal(t, execution.StateIdle, initial.Snapshot.State)

	submitted := &transport.TaskResponse{}
	require.Equal(t, stdhttp.StatusAccepted, call(t, stdhttp.MethodPost, session+"/submit?wait=true", transport.SubmitRequest{Query: "q"}, submitted))
	require.Equal(t, stdhttp.StatusAccepted, call(t, stdhttp.MethodPost, session+"/turns/"+submitted.TurnID+"/execute", nil, nil))

	var last uint64
	for {
		message := &transport.StreamMessage{}
		require.NoError(t, conn.ReadJSON(message))
		assert.Greater(t, message.Snapshot.Seq, last)
		last = message.Snapshot.Seq
		if message.Event == orchestrator.EventDone {
			assert.Equal(t, "The answer is 4", message.Snapshot.Turns[1].Text)
			break
		}
	}

	assert.Equal(t, stdhttp.StatusNotFound, call(t, stdhttp.MethodGet, server.URL+"/v1/sessions/missing/stream", nil, nil))
}
