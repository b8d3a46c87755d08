package prompts

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"
)

//go:embed template/planner_prompt.txt
var plannerSystemPrompt string

// PlannerMessages renders the classifier conversation: the fixed system
// instruction followed by the planning input as the user turn. The system text
// carries literal JSON, so it goes through a messages placeholder instead of
// being formatted.
func PlannerMessages(ctx context.Context, input string) ([]*schema.Message, error) {
	tpl := prompt.FromMessages(
		schema.FString,
		schema.MessagesPlaceholder("system_messages", false),
		schema.MessagesPlaceholder("input_messages", false),
	)
	msgs, err := tpl.Format(ctx, map[string]any{
		"system_messages": []*schema.Message{schema.SystemMessage(plannerSystemPrompt)},
		"input_messages":  []*schema.Message{schema.UserMessage(input)},
	})
	if err != nil {
		return nil, fmt.Errorf("planner prompt render: %w", err)
	}
	if len(msgs) != 2 {
		return nil, fmt.Errorf("planner prompt render: got %d messages", len(msgs))
	}
	return msgs, nil
}
