package memory

import (
	"context"
	"sync"
	"time"

	"github.com/SaiNageswarS/go-api-boot/logger"
	"github.com/SaiNageswarS/portfolio-chat/llm"
	"go.uber.org/zap"
)

// DefaultMaxMessages bounds a conversation, system message included.
const DefaultMaxMessages = 10

// ConversationManager owns every in-memory conversation of the process and the
// truncation policy applied to them.
type ConversationManager struct {
	system  llm.Message
	maxMsgs int
	idleTTL time.Duration
	now     func() time.Time

	mu            sync.RWMutex
	conversations map[string]*Conversation
}

type ManagerOption func(*ConversationManager)

// WithIdleTTL lets EvictIdle drop conversations unused for ttl. Zero keeps them forever.
func WithIdleTTL(ttl time.Duration) ManagerOption {
	return func(cm *ConversationManager) { cm.idleTTL = ttl }
}

func WithClock(now func() time.Time) ManagerOption {
	return func(cm *ConversationManager) { cm.now = now }
}

// NewConversationManager creates a manager whose conversations start with systemPrompt
// and never exceed maxMsgs messages. maxMsgs below 2 is raised to 2.
func NewConversationManager(systemPrompt string, maxMsgs int, opts ...ManagerOption) *ConversationManager {
	if maxMsgs < 2 {
		maxMsgs = 2
	}

	cm := &ConversationManager{
		system:        llm.SystemMessage(systemPrompt),
		maxMsgs:       maxMsgs,
		now:           time.Now,
		conversations: make(map[string]*Conversation),
	}

	for _, opt := range opts {
		opt(cm)
	}

	return cm
}

// GetOrCreate returns the conversation for userID, creating it seeded with the
// system message on first use.
func (cm *ConversationManager) GetOrCreate(userID string) *Conversation {
	now := cm.now()

	cm.mu.RLock()
	conv, ok := cm.conversations[userID]
	cm.mu.RUnlock()
	if ok {
		conv.touch(now)
		return conv
	}

	cm.mu.Lock()
	defer cm.mu.Unlock()

	if conv, ok := cm.conversations[userID]; ok {
		conv.touch(now)
		return conv
	}

	conv = newConversation(userID, cm.system, now)
	cm.conversations[userID] = conv
	return conv
}

// AppendUserMessage adds a user turn and re-applies the length bound.
func (cm *ConversationManager) AppendUserMessage(conv *Conversation, content string) {
	conv.add(llm.UserMessage(content), cm.trimForSession, cm.now())
}

// AppendAssistantMessage adds an assistant turn and re-applies the length bound.
func (cm *ConversationManager) AppendAssistantMessage(conv *Conversation, content string) {
	conv.add(llm.AssistantMessage(content), cm.trimForSession, cm.now())
}

// trimForSession keeps the head system message plus the most recent maxMsgs-1
// messages. A head that is not a system message is replaced by system.
func (cm *ConversationManager) trimForSession(msgs []llm.Message, system llm.Message) []llm.Message {
	if len(msgs) <= cm.maxMsgs {
		return msgs
	}

	head := msgs[0]
	if head.Role != llm.RoleSystem {
		head = system
	}

	trimmed := make([]llm.Message, 0, cm.maxMsgs)
	trimmed = append(trimmed, head)
	trimmed = append(trimmed, msgs[len(msgs)-(cm.maxMsgs-1):]...)
	return trimmed
}

func (cm *ConversationManager) Delete(userID string) {
	cm.mu.Lock()
	delete(cm.conversations, userID)
	cm.mu.Unlock()
}

// Len returns the number of live conversations.
func (cm *ConversationManager) Len() int {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return len(cm.conversations)
}

// GetMaxMessages returns the maximum number of messages allowed in a session
func (cm *ConversationManager) GetMaxMessages() int {
	return cm.maxMsgs
}

// EvictIdle drops conversations idle for longer than the configured TTL. Conversations
// with a turn in flight are kept.
func (cm *ConversationManager) EvictIdle() int {
	if cm.idleTTL <= 0 {
		return 0
	}

	now := cm.now()

	cm.mu.Lock()
	defer cm.mu.Unlock()

	evicted := 0
	for id, conv := range cm.conversations {
		if now.Sub(conv.idleSince()) <= cm.idleTTL {
			continue
		}

		if !conv.turn.TryLock() {
			continue
		}
		delete(cm.conversations, id)
		conv.turn.Unlock()
		evicted++
	}

	return evicted
}

// StartJanitor runs EvictIdle every interval until ctx is cancelled. It is a no-op
// when no idle TTL is configured.
func (cm *ConversationManager) StartJanitor(ctx context.Context, interval time.Duration) {
	if cm.idleTTL <= 0 || interval <= 0 {
		return
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := cm.EvictIdle(); n > 0 {
					logger.Info("Evicted idle conversations", zap.Int("count", n), zap.Int("remaining", cm.Len()))
				}
			}
		}
	}()
}
