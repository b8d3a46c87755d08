package repo

import (
	"context"
	"sync"

	"github.com/cloudwego/eino/schema"

	"github.com/partdesk-core-poc-v1/server/internal/agent/model"
)

// MemoryStore keeps sessions and conversation messages in process. It backs
// both repository interfaces when Redis is not configured. Nothing expires.
type MemoryStore struct {
	mu          sync.RWMutex
	sessions    map[string]model.Session
	messages    map[string][]*schema.Message
	maxMessages int
}

func NewMemoryStore(maxMessages int) *MemoryStore {
	return &MemoryStore{
		sessions:    make(map[string]model.Session),
		messages:    make(map[string][]*schema.Message),
		maxMessages: maxMessages,
	}
}

func (m *MemoryStore) Load(_ context.Context, conversationID string) (model.Session, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[conversationID]
	return s, ok, nil
}

func (m *MemoryStore) Save(_ context.Context, conversationID string, session model.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[conversationID] = session
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, conversationID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, conversationID)
	return nil
}

func (m *MemoryStore) AddMessage(_ context.Context, conversationID string, message *schema.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	msgs := append(m.messages[conversationID], message)
	if m.maxMessages > 0 && len(msgs) > m.maxMessages {
		msgs = append([]*schema.Message(nil), msgs[len(msgs)-m.maxMessages:]...)
	}
	m.messages[conversationID] = msgs
	return nil
}

func (m *MemoryStore) LoadHistory(_ context.Context, conversationID string) (*model.ConversationHistory, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	msgs := make([]*schema.Message, len(m.messages[conversationID]))
	copy(msgs, m.messages[conversationID])
	return &model.ConversationHistory{ConversationID: conversationID, Messages: msgs}, nil
}

func (m *MemoryStore) ClearHistory(_ context.Context, conversationID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.messages, conversationID)
	return nil
}

func (m *MemoryStore) GetMessageCount(_ context.Context, conversationID string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.messages[conversationID]), nil
}

var (
	_ model.SessionRepository      = (*MemoryStore)(nil)
	_ model.ConversationRepository = (*MemoryStore)(nil)
)
