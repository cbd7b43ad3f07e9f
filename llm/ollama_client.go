package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/ollama/ollama/api"
)

type ollamaChatter interface {
	Chat(ctx context.Context, req *api.ChatRequest, fn api.ChatResponseFunc) error
}

// OllamaClient runs the conversation against a local Ollama server. It needs no credential
// and is meant for development.
type OllamaClient struct {
	client ollamaChatter
	model  string
}

// NewOllamaClient builds a client from OLLAMA_HOST (or the default local address).
func NewOllamaClient(model string) (*OllamaClient, error) {
	client, err := api.ClientFromEnvironment()
	if err != nil {
		return nil, fmt.Errorf("error creating ollama client: %w", err)
	}

	return &OllamaClient{client: client, model: model}, nil
}

func (c *OllamaClient) GetModel() string {
	return c.model
}

func (c *OllamaClient) GenerateInference(ctx context.Context, messages []Message, callback func(chunk string) error, opts ...LLMOption) error {
	settings := applyOptions(c.model, opts)

	stream := false
	req := &api.ChatRequest{
		Model:    settings.model,
		Messages: toOllamaMessages(messages),
		Stream:   &stream,
		Options:  map[string]any{},
	}

	if settings.temperature > 0 {
		req.Options["temperature"] = settings.temperature
	}
	if settings.maxTokens > 0 {
		req.Options["num_predict"] = settings.maxTokens
	}

	var reply strings.Builder
	err := c.client.Chat(ctx, req, func(resp api.ChatResponse) error {
		reply.WriteString(resp.Message.Content)
		return nil
	})
	if err != nil {
		return fmt.Errorf("error making request: %w", err)
	}

	if reply.Len() == 0 {
		return ErrEmptyReply
	}

	if callback != nil {
		return callback(reply.String())
	}

	return nil
}

func toOllamaMessages(messages []Message) []api.Message {
	out := make([]api.Message, len(messages))
	for i, m := range messages {
		out[i] = api.Message{Role: string(m.Role), Content: m.Content}
	}
	return out
}
