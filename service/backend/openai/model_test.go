package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/cogniflow/model/conversation"
	"github.com/viant/cogniflow/service/backend"
)

func TestModel_Generate(t *testing.T) {
	var received map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/chat/completions"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"1","object":"chat.completion","model":"m","choices":[{"index":0,"message":{"role":"assistant","content":"{\"text\":\"ok\",\"citations\":[]}"},"finish_reason":"stop"}]}`))
	}))
	defer server.Close()

	model := New("key", "m", WithBaseURL(server.URL+"/v1"))
	output, err := model.Generate(context.Background(), &backend.Request{
		System:     "system",
		Prompt:     "prompt",
		Schema:     &backend.Schema{Name: "search_result", Definition: json.RawMessage(`{"type":"object"}`)},
		Attachment: &conversation.Attachment{MimeType: "image/png", Data: []byte{1, 2}},
	})
	require.NoError(t, err)
	assert.Equal(t, `{"text":"ok","citations":[]}`, output)

	format, ok := received["response_format"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "json_schema", format["type"])
	messages := received["messages"].([]interface{})
	require.Len(t, messages, 2)
	assert.Contains(t, fmt.Sprint(messages[1]), "data:image/png;base64,AQI=")
}

func TestModel_Stream(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		for _, chunk := range []string{"The answer", " is 4."} {
			_, _ = fmt.Fprintf(w, "data: {\"id\":\"1\",\"object\":\"chat.completion.chunk\",\"model\":\"m\",\"choices\":[{\"index\":0,\"delta\":{\"content\":%q}}]}\n\n", chunk)
		}
		_, _ = fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	defer server.Close()

	model := New("key", "m", WithBaseURL(server.URL+"/v1"))
	var chunks []string
	err := model.Stream(context.Background(), &backend.Request{Prompt: "p"}, func(chunk string) error {
		chunks = append(chunks, chunk)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"The answer", " is 4."}, chunks)
}
