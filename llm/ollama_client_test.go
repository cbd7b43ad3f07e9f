package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/ollama/ollama/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeChatter struct {
	request   *api.ChatRequest
	responses []api.ChatResponse
	err       error
}

func (f *fakeChatter) Chat(ctx context.Context, req *api.ChatRequest, fn api.ChatResponseFunc) error {
	f.request = req
	if f.err != nil {
		return f.err
	}
	for _, resp := range f.responses {
		if err := fn(resp); err != nil {
			return err
		}
	}
	return nil
}

func TestOllamaClientGenerateInference(t *testing.T) {
	chatter := &fakeChatter{responses: []api.ChatResponse{
		{Message: api.Message{Role: "assistant", Content: "Hello "}},
		{Message: api.Message{Role: "assistant", Content: "there"}, Done: true},
	}}
	client := &OllamaClient{client: chatter, model: "llama3.2:3b"}

	var result string
	err := client.GenerateInference(context.Background(),
		[]Message{SystemMessage("persona"), UserMessage("hi")},
		func(chunk string) error {
			result = chunk
			return nil
		},
		WithTemperature(0.2), WithMaxTokens(128))

	require.NoError(t, err)
	assert.Equal(t, "Hello there", result)

	require.NotNil(t, chatter.request)
	assert.Equal(t, "llama3.2:3b", chatter.request.Model)
	require.NotNil(t, chatter.request.Stream)
	assert.False(t, *chatter.request.Stream)
	require.Len(t, chatter.request.Messages, 2)
	assert.Equal(t, "system", chatter.request.Messages[0].Role)
	assert.Equal(t, "persona", chatter.request.Messages[0].Content)
	assert.Equal(t, "user", chatter.request.Messages[1].Role)
	assert.Equal(t, 0.2, chatter.request.Options["temperature"])
	assert.Equal(t, 128, chatter.request.Options["num_predict"])
	assert.Equal(t, "llama3.2:3b", client.GetModel())
}

func TestOllamaClientErrors(t *testing.T) {
	t.Run("chat error", func(t *testing.T) {
		client := &OllamaClient{client: &fakeChatter{err: errors.New("connection refused")}, model: "m"}
		err := client.GenerateInference(context.Background(), []Message{UserMessage("hi")}, nil)
		assert.ErrorContains(t, err, "connection refused")
	})

	t.Run("empty reply", func(t *testing.T) {
		client := &OllamaClient{client: &fakeChatter{}, model: "m"}
		err := client.GenerateInference(context.Background(), []Message{UserMessage("hi")}, nil)
		assert.ErrorIs(t, err, ErrEmptyReply)
	})
}
