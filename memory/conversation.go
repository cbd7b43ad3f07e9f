package memory

import (
	"sync"
	"time"

	"github.com/SaiNageswarS/portfolio-chat/llm"
)

// Conversation is the ordered message history of one user.
type Conversation struct {
	ID string

	system   llm.Message
	messages []llm.Message
	lastUsed time.Time
	mu       sync.Mutex // guards messages and lastUsed

	turn sync.Mutex // held for the duration of a chat turn
}

func newConversation(id string, system llm.Message, now time.Time) *Conversation {
	return &Conversation{
		ID:       id,
		system:   system,
		messages: []llm.Message{system},
		lastUsed: now,
	}
}

// Lock serializes chat turns for this conversation.
func (c *Conversation) Lock() { c.turn.Lock() }

func (c *Conversation) Unlock() { c.turn.Unlock() }

// Messages returns a copy of the history, oldest first.
func (c *Conversation) Messages() []llm.Message {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]llm.Message, len(c.messages))
	copy(out, c.messages)
	return out
}

func (c *Conversation) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.messages)
}

func (c *Conversation) add(msg llm.Message, trim func(msgs []llm.Message, system llm.Message) []llm.Message, now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.messages = trim(append(c.messages, msg), c.system)
	c.lastUsed = now
}

func (c *Conversation) touch(now time.Time) {
	c.mu.Lock()
	c.lastUsed = now
	c.mu.Unlock()
}

func (c *Conversation) idleSince() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastUsed
}
