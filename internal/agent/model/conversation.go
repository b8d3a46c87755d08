package model

import (
	"context"

	"github.com/cloudwego/eino/schema"
)

type ConversationRepository interface {
	// AddMessage appends a message to the conversation history
	AddMessage(ctx context.Context, conversationID string, message *schema.Message) error

	// LoadHistory retrieves the conversation history for a conversation
	LoadHistory(ctx context.Context, conversationID string) (*ConversationHistory, error)

	// ClearHistory removes all conversation history for a conversation
	ClearHistory(ctx context.Context, conversationID string) error

	// GetMessageCount returns the number of messages in the conversation
	GetMessageCount(ctx context.Context, conversationID string) (int, error)
}

// ConversationHistory represents loaded conversation data with metadata.
type ConversationHistory struct {
	ConversationID string
	Messages       []*schema.Message
}

// SessionRepository persists the entity session of each conversation.
type SessionRepository interface {
	// Load returns the stored session; found is false when none exists.
	Load(ctx context.Context, conversationID string) (session Session, found bool, err error)

	// Save stores the session and refreshes its TTL
	Save(ctx context.Context, conversationID string, session Session) error

	// Delete removes the session
	Delete(ctx context.Context, conversationID string) error
}
