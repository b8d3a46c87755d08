package conversations

import (
	"context"
	"strings"

	"github.com/cloudwego/eino/schema"

	"github.com/partdesk-core-poc-v1/server/internal/agent/model"
	"github.com/partdesk-core-poc-v1/server/internal/core"
)

type MessagesManager struct {
	conversationRepo model.ConversationRepository
	summaryTurns     int
	summaryChars     int
}

func NewMessagesManager(conversationRepo model.ConversationRepository, config model.ConversationConfig) *MessagesManager {
	turns := config.SummaryTurns
	if turns <= 0 {
		turns = 6
	}
	chars := config.SummaryChars
	if chars <= 0 {
		chars = 200
	}
	return &MessagesManager{
		conversationRepo: conversationRepo,
		summaryTurns:     turns,
		summaryChars:     chars,
	}
}

// =========== Summary ===========

// Summary renders the most recent messages as "Role: content" lines, each
// content cut to the configured length. An empty history gives "".
func (cm *MessagesManager) Summary(ctx context.Context, conversationID string) (string, error) {
	history, err := cm.conversationRepo.LoadHistory(ctx, conversationID)
	if err != nil {
		return "", err
	}
	return cm.summarize(history.Messages), nil
}

func (cm *MessagesManager) summarize(messages []*schema.Message) string {
	recent := trimTail(messages, cm.summaryTurns)

	lines := make([]string, 0, len(recent))
	for _, msg := range recent {
		if msg == nil {
			continue
		}
		content := msg.Content
		if content == "" {
			content = "[No content]"
		}
		content = core.TruncateRunes(content, cm.summaryChars)
		lines = append(lines, roleLabel(msg.Role)+": "+content)
	}
	return strings.Join(lines, "\n")
}

// SaveTurn appends the user message and the answer's display text.
func (cm *MessagesManager) SaveTurn(ctx context.Context, conversationID, query string, resp model.Response) error {
	if err := cm.conversationRepo.AddMessage(ctx, conversationID, schema.UserMessage(query)); err != nil {
		return err
	}
	return cm.conversationRepo.AddMessage(ctx, conversationID, schema.AssistantMessage(model.DisplayText(resp), nil))
}

// History returns the stored messages, oldest first.
func (cm *MessagesManager) History(ctx context.Context, conversationID string) ([]*schema.Message, error) {
	history, err := cm.conversationRepo.LoadHistory(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	return history.Messages, nil
}

func (cm *MessagesManager) Clear(ctx context.Context, conversationID string) error {
	return cm.conversationRepo.ClearHistory(ctx, conversationID)
}

// =========== Planning input ===========

// PlanningInput is the text sent to the classifier: the summary and session
// context when present, then the user message.
func PlanningInput(summary string, session model.Session, message string) string {
	var parts []string
	if summary != "" {
		parts = append(parts, "Conversation summary:\n"+summary)
	}
	if !session.IsEmpty() {
		parts = append(parts, "\nSession context:\n"+session.String())
	}
	parts = append(parts, "\nUser message:\n"+message)
	return strings.Join(parts, "\n")
}

// ====================== Helper function ======================
func trimTail(messages []*schema.Message, maxTurns int) []*schema.Message {
	if len(messages) <= maxTurns {
		return messages
	}
	return messages[len(messages)-maxTurns:]
}

func roleLabel(role schema.RoleType) string {
	switch role {
	case schema.User:
		return "User"
	case schema.Assistant:
		return "Assistant"
	case schema.System:
		return "System"
	default:
		r := string(role)
		if r == "" {
			return "Unknown"
		}
		return strings.ToUpper(r[:1]) + r[1:]
	}
}
