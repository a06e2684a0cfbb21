package openai

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"github.com/sashabaranov/go-openai"
	"github.com/viant/cogniflow/service/backend"
)

const defaultModel = "gpt-4o-mini"

// Model is a backend.Model served by the OpenAI chat completion API or any
// compatible endpoint.
type Model struct {
	client      *openai.Client
	model       string
	baseURL     string
	temperature float32
}

// Option customizes the model.
type Option func(m *Model)

// WithBaseURL points the client to an OpenAI compatible endpoint.
func WithBaseURL(baseURL string) Option {
	return func(m *Model) {
		m.baseURL = baseURL
	}
}

// WithTemperature sets the sampling temperature.
func WithTemperature(temperature float32) Option {
	return func(m *Model) {
		m.temperature = temperature
	}
}

// New creates a model client.
func New(apiKey, model string, options ...Option) *Model {
	if model == "" {
		model = defaultModel
	}
	ret := &Model{model: model}
	for _, option := range options {
		option(ret)
	}
	config := openai.DefaultConfig(apiKey)
	if ret.baseURL != "" {
		config.BaseURL = ret.baseURL
	}
	ret.client = openai.NewClientWithConfig(config)
	return ret
}

func (m *Model) Generate(ctx context.Context, request *backend.Request) (string, error) {
	req := m.chatRequest(request)
	if schema := request.Schema; schema != nil {
		req.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:   schema.Name,
				Schema: schema.Definition,
			},
		}
	}
	resp, err := m.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("openai chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

func (m *Model) Stream(ctx context.Context, request *backend.Request, onChunk func(chunk string) error) error {
	req := m.chatRequest(request)
	req.Stream = true
	stream, err := m.client.CreateChatCompletionStream(ctx, req)
	if err != nil {
		return fmt.Errorf("openai stream failed: %w", err)
	}
	defer stream.Close()
	for {
		resp, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if len(resp.Choices) == 0 || resp.Choices[0].Delta.Content == "" {
			continue
		}
		if err := onChunk(resp.Choices[0].Delta.Content); err != nil {
			return err
		}
	}
}

func (m *Model) chatRequest(request *backend.Request) openai.ChatCompletionRequest {
	user := openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: request.Prompt}
	if attachment := request.Attachment; attachment != nil && len(attachment.Data) > 0 {
		user.Content = ""
		user.MultiContent = []openai.ChatMessagePart{
			{Type: openai.ChatMessagePartTypeText, Text: request.Prompt},
			{Type: openai.ChatMessagePartTypeImageURL, ImageURL: &openai.ChatMessageImageURL{
				URL:    "data:" + attachment.MimeType + ";base64," + base64.StdEncoding.EncodeToString(attachment.Data),
				Detail: openai.ImageURLDetailAuto,
			}},
		}
	}
	return openai.ChatCompletionRequest{
		Model:       m.model,
		Temperature: m.temperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: request.System},
			user,
		},
	}
}
