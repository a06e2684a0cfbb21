package ollama

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/schema"
	"github.com/viant/cogniflow/service/backend"
)

const defaultModel = "llama3.1"

// Model is a backend.Model served by a local Ollama server.
type Model struct {
	text       llms.Model
	structured llms.Model
}

// New creates a model client; serverURL may be empty for the default server.
func New(model, serverURL string) (*Model, error) {
	if model == "" {
		model = defaultModel
	}
	options := []ollama.Option{ollama.WithModel(model)}
	if serverURL != "" {
		options = append(options, ollama.WithServerURL(serverURL))
	}
	text, err := ollama.New(options...)
	if err != nil {
		return nil, fmt.Errorf("failed to create ollama client: %w", err)
	}
	structured, err := ollama.New(append(options, ollama.WithFormat("json"))...)
	if err != nil {
		return nil, fmt.Errorf("failed to create ollama client: %w", err)
	}
	return &Model{text: text, structured: structured}, nil
}

func (m *Model) Generate(ctx context.Context, request *backend.Request) (string, error) {
	llm := m.text
	if request.Schema != nil {
		llm = m.structured
	}
	resp, err := llm.GenerateContent(ctx, messages(request))
	if err != nil {
		return "", fmt.Errorf("ollama generation failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("ollama returned no choices")
	}
	return resp.Choices[0].Content, nil
}

func (m *Model) Stream(ctx context.Context, request *backend.Request, onChunk func(chunk string) error) error {
	_, err := m.text.GenerateContent(ctx, messages(request), llms.WithStreamingFunc(func(ctx context.Context, chunk []byte) error {
		if len(chunk) == 0 {
			return nil
		}
		return onChunk(string(chunk))
	}))
	return err
}

func messages(request *backend.Request) []llms.MessageContent {
	system := backend.SchemaInstruction(request.System, request.Schema)
	parts := []llms.ContentPart{llms.TextContent{Text: request.Prompt}}
	if attachment := request.Attachment; attachment != nil && len(attachment.Data) > 0 {
		parts = append(parts, llms.BinaryPart(attachment.MimeType, attachment.Data))
	}
	return []llms.MessageContent{
		llms.TextParts(schema.ChatMessageTypeSystem, system),
		{Role: schema.ChatMessageTypeHuman, Parts: parts},
	}
}
