package llm

import (
	"context"
)

// LLMClient is implemented by every inference provider the chat service can talk to.
type LLMClient interface {
	// GenerateInference sends the messages verbatim and hands the reply text to callback.
	GenerateInference(
		ctx context.Context,
		messages []Message,
		callback func(chunk string) error,
		opts ...LLMOption,
	) error

	GetModel() string
}

type LLMSettings struct {
	model       string  // model name
	temperature float64 // randomness (0.0 to 1.0), 0 leaves the provider default
	maxTokens   int     // maximum tokens to generate, 0 leaves the provider default
}

type LLMOption func(*LLMSettings)

func WithModel(model string) LLMOption {
	return func(s *LLMSettings) { s.model = model }
}

func WithTemperature(temp float64) LLMOption {
	return func(s *LLMSettings) { s.temperature = temp }
}

func WithMaxTokens(tokens int) LLMOption {
	return func(s *LLMSettings) { s.maxTokens = tokens }
}

func applyOptions(model string, opts []LLMOption) LLMSettings {
	settings := LLMSettings{model: model}
	for _, opt := range opts {
		opt(&settings)
	}
	return settings
}

// Role is the author of a message in a conversation.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type Message struct {
	Role    Role   `json:"role"`    // "system", "user", "assistant"
	Content string `json:"content"` // the message content
}

func SystemMessage(content string) Message {
	return Message{Role: RoleSystem, Content: content}
}

func UserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

func AssistantMessage(content string) Message {
	return Message{Role: RoleAssistant, Content: content}
}
