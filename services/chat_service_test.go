package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/SaiNageswarS/portfolio-chat/llm"
	"github.com/SaiNageswarS/portfolio-chat/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testPrompt = "You are the assistant on a portfolio site."

// testLLMClient answers with "echo:<last user message>" or scripted responses.
type testLLMClient struct {
	mu          sync.Mutex
	responses   []string
	callCount   int
	shouldError bool
	received    [][]llm.Message
}

func (m *testLLMClient) GenerateInference(
	ctx context.Context,
	messages []llm.Message,
	callback func(chunk string) error,
	opts ...llm.LLMOption,
) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.received = append(m.received, messages)
	m.callCount++

	if m.shouldError {
		return &llm.StatusError{StatusCode: 500, Body: "upstream exploded"}
	}

	if m.callCount <= len(m.responses) {
		return callback(m.responses[m.callCount-1])
	}

	last := messages[len(messages)-1]
	return callback("echo:" + last.Content)
}

func (m *testLLMClient) GetModel() string { return "test-model" }

func newTestService(client llm.LLMClient) (*ChatService, *memory.ConversationManager) {
	conversations := memory.NewConversationManager(testPrompt, memory.DefaultMaxMessages)
	return ProvideChatService(conversations, llm.NewGateway(client), "anonymous", 50), conversations
}

func TestChatService_RoundTrip(t *testing.T) {
	svc, conversations := newTestService(&testLLMClient{})

	turn, err := svc.Reply(context.Background(), "u1", "Hi, I'm Alice")
	require.NoError(t, err)
	assert.Equal(t, "echo:Hi, I'm Alice", turn.Reply)
	assert.False(t, turn.Failed)

	turn, err = svc.Reply(context.Background(), "u1", "What can you help with?")
	require.NoError(t, err)
	assert.Equal(t, "echo:What can you help with?", turn.Reply)

	assert.Equal(t, []llm.Message{
		llm.SystemMessage(testPrompt),
		llm.UserMessage("Hi, I'm Alice"),
		llm.AssistantMessage("echo:Hi, I'm Alice"),
		llm.UserMessage("What can you help with?"),
		llm.AssistantMessage("echo:What can you help with?"),
	}, conversations.GetOrCreate("u1").Messages())
}

func TestChatService_SendsBoundedHistoryUpstream(t *testing.T) {
	client := &testLLMClient{}
	svc, _ := newTestService(client)

	for i := 1; i <= 8; i++ {
		_, err := svc.Reply(context.Background(), "u1", fmt.Sprintf("m%d", i))
		require.NoError(t, err)
	}

	for _, sent := range client.received {
		assert.LessOrEqual(t, len(sent), memory.DefaultMaxMessages)
		assert.Equal(t, llm.RoleSystem, sent[0].Role)
		assert.Equal(t, llm.RoleUser, sent[len(sent)-1].Role)
	}
}

func TestChatService_Overflow(t *testing.T) {
	var replies []string
	for i := 1; i <= 12; i++ {
		replies = append(replies, fmt.Sprintf("r%d", i))
	}
	svc, conversations := newTestService(&testLLMClient{responses: replies})

	var unbounded []llm.Message
	for i := 1; i <= 12; i++ {
		turn, err := svc.Reply(context.Background(), "u1", fmt.Sprintf("m%d", i))
		require.NoError(t, err)
		unbounded = append(unbounded, llm.UserMessage(fmt.Sprintf("m%d", i)), llm.AssistantMessage(turn.Reply))
	}

	history := conversations.GetOrCreate("u1").Messages()
	require.Len(t, history, 10)
	assert.Equal(t, llm.SystemMessage(testPrompt), history[0])
	assert.Equal(t, unbounded[len(unbounded)-9:], history[1:])
}

func TestChatService_GatewayFailure(t *testing.T) {
	svc, conversations := newTestService(&testLLMClient{shouldError: true})

	turn, err := svc.Reply(context.Background(), "u1", "Hello?")
	require.NoError(t, err)
	assert.True(t, turn.Failed)
	assert.Equal(t, llm.FallbackMessage, turn.Reply)
	assert.NotContains(t, turn.Reply, "upstream exploded")

	history := conversations.GetOrCreate("u1").Messages()
	require.Len(t, history, 3)
	assert.Equal(t, llm.AssistantMessage(llm.FallbackMessage), history[2])
}

func TestChatService_DefaultUserID(t *testing.T) {
	svc, conversations := newTestService(&testLLMClient{})

	turn, err := svc.Reply(context.Background(), "", "Hello")
	require.NoError(t, err)
	assert.Equal(t, "anonymous", turn.UserID)
	assert.Equal(t, 3, conversations.GetOrCreate("anonymous").Len())
	assert.Equal(t, 1, svc.Sessions())
}

func TestChatService_Validation(t *testing.T) {
	client := &testLLMClient{}
	svc, _ := newTestService(client)

	tests := []struct {
		name    string
		message string
		wantErr error
	}{
		{"empty", "", ErrEmptyMessage},
		{"whitespace", "  \n\t ", ErrEmptyMessage},
		{"too long", strings.Repeat("a", 51), ErrMessageTooLong},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			turn, err := svc.Reply(context.Background(), "u1", tt.message)
			assert.Nil(t, turn)
			assert.True(t, errors.Is(err, tt.wantErr))
		})
	}

	// multi-byte characters count once each
	_, err := svc.Reply(context.Background(), "u1", strings.Repeat("é", 50))
	assert.NoError(t, err)

	assert.Equal(t, 1, client.callCount)
	assert.Equal(t, 1, svc.Sessions())
}

func TestChatService_IndependentSessions(t *testing.T) {
	svc, conversations := newTestService(&testLLMClient{})

	for i := 0; i < 6; i++ {
		_, err := svc.Reply(context.Background(), "a", fmt.Sprintf("from a %d", i))
		require.NoError(t, err)
	}
	_, err := svc.Reply(context.Background(), "b", "from b")
	require.NoError(t, err)

	b := conversations.GetOrCreate("b").Messages()
	assert.Equal(t, []llm.Message{
		llm.SystemMessage(testPrompt),
		llm.UserMessage("from b"),
		llm.AssistantMessage("echo:from b"),
	}, b)
	assert.Len(t, conversations.GetOrCreate("a").Messages(), 10)
}

func TestChatService_ConcurrentTurnsDoNotInterleave(t *testing.T) {
	svc, conversations := newTestService(&testLLMClient{})

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := svc.Reply(context.Background(), "u1", fmt.Sprintf("msg-%d", i))
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	history := conversations.GetOrCreate("u1").Messages()
	require.Len(t, history, 10)
	assert.Equal(t, llm.RoleSystem, history[0].Role)

	// every user message is directly followed by its own echo
	for i := 1; i < len(history)-1; i++ {
		if history[i].Role == llm.RoleUser {
			assert.Equal(t, llm.AssistantMessage("echo:"+history[i].Content), history[i+1])
		}
	}
	assert.Equal(t, llm.RoleAssistant, history[len(history)-1].Role)
}
