package services

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/SaiNageswarS/go-api-boot/logger"
	"github.com/SaiNageswarS/portfolio-chat/llm"
	"github.com/SaiNageswarS/portfolio-chat/memory"
	"go.uber.org/zap"
)

var (
	ErrEmptyMessage   = errors.New("message must not be empty")
	ErrMessageTooLong = errors.New("message is too long")
)

// Completer produces the assistant reply for a message history. On failure it still
// returns user-safe text alongside the error.
type Completer interface {
	Complete(ctx context.Context, history []llm.Message) (string, error)
}

// Turn is the outcome of one chat exchange.
type Turn struct {
	UserID string
	Reply  string
	Failed bool
}

type ChatService struct {
	conversations   *memory.ConversationManager
	gateway         Completer
	defaultUserID   string
	maxMessageRunes int
}

// ProvideChatService wires a chat service. maxMessageRunes of 0 disables the length check.
func ProvideChatService(conversations *memory.ConversationManager, gateway Completer, defaultUserID string, maxMessageRunes int) *ChatService {
	return &ChatService{
		conversations:   conversations,
		gateway:         gateway,
		defaultUserID:   defaultUserID,
		maxMessageRunes: maxMessageRunes,
	}
}

// Reply runs one turn: append the user message, call the model with the bounded
// history and append whatever came back. Turns of the same user never interleave.
func (s *ChatService) Reply(ctx context.Context, userID, message string) (*Turn, error) {
	if err := s.validate(message); err != nil {
		return nil, err
	}

	if userID == "" {
		userID = s.defaultUserID
	}

	startTime := time.Now()

	conversation := s.conversations.GetOrCreate(userID)
	conversation.Lock()
	defer conversation.Unlock()

	s.conversations.AppendUserMessage(conversation, message)

	reply, err := s.gateway.Complete(ctx, conversation.Messages())

	// A fallback reply is kept in history like any other answer.
	s.conversations.AppendAssistantMessage(conversation, reply)

	turn := &Turn{UserID: userID, Reply: reply, Failed: err != nil}

	logger.Info("Chat turn completed",
		zap.String("userId", userID),
		zap.Bool("failed", turn.Failed),
		zap.Int("historyLen", conversation.Len()),
		zap.Int64("latencyMs", time.Since(startTime).Milliseconds()))

	return turn, nil
}

func (s *ChatService) Sessions() int {
	return s.conversations.Len()
}

func (s *ChatService) validate(message string) error {
	if strings.TrimSpace(message) == "" {
		return ErrEmptyMessage
	}

	if s.maxMessageRunes > 0 && utf8.RuneCountInString(message) > s.maxMessageRunes {
		return ErrMessageTooLong
	}

	return nil
}
