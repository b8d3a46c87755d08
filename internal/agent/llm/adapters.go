package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/callbacks"
	"github.com/cloudwego/eino/components"
	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/partdesk-core-poc-v1/server/internal/agent/composer"
	"github.com/partdesk-core-poc-v1/server/internal/agent/graph/prompts"
	"github.com/partdesk-core-poc-v1/server/internal/agent/model"
	"github.com/partdesk-core-poc-v1/server/internal/agent/planner"
	errx "github.com/partdesk-core-poc-v1/server/internal/core/error"
	"github.com/partdesk-core-poc-v1/server/internal/metrics"
	logx "github.com/partdesk-core-poc-v1/server/pkg/logger"
)

const (
	RolePlanner  = "planner"
	RoleComposer = "composer"
)

var (
	_ planner.Classifier = (*Classifier)(nil)
	_ composer.Generator = (*Generator)(nil)
)

// ================ Classifier ================

// Classifier sends the planning input, framed by the planner system prompt,
// to the planner model.
type Classifier struct {
	chat      einomodel.BaseChatModel
	modelName string
}

func NewClassifier(chat einomodel.BaseChatModel, modelName string) *Classifier {
	return &Classifier{chat: chat, modelName: modelName}
}

func (c *Classifier) Classify(ctx context.Context, input string) (string, error) {
	msgs, err := prompts.PlannerMessages(ctx, input)
	if err != nil {
		return "", errx.Wrap(errx.ErrClassifierUnavailable, err)
	}
	out, err := call(ctx, c.chat, RolePlanner, c.modelName, msgs)
	if err != nil {
		return "", errx.Wrap(errx.ErrClassifierUnavailable, err)
	}
	return out, nil
}

// ================ Generator ================

// Generator sends a rendered composer prompt as a single user message.
type Generator struct {
	chat      einomodel.BaseChatModel
	modelName string
}

func NewGenerator(chat einomodel.BaseChatModel, modelName string) *Generator {
	return &Generator{chat: chat, modelName: modelName}
}

func (g *Generator) Generate(ctx context.Context, prompt string) (string, error) {
	out, err := call(ctx, g.chat, RoleComposer, g.modelName, []*schema.Message{schema.UserMessage(prompt)})
	if err != nil {
		return "", errx.Wrap(errx.ErrGeneratorUnavailable, err)
	}
	return out, nil
}

// call runs one model request. Handlers already attached to ctx (the graph's
// callbacks) are reused for the model component.
func call(ctx context.Context, chat einomodel.BaseChatModel, role, modelName string, msgs []*schema.Message) (string, error) {
	if chat == nil {
		metrics.LLMCalls.WithLabelValues(role, "unconfigured").Inc()
		return "", fmt.Errorf("%s model not configured", role)
	}
	ctx = callbacks.ReuseHandlers(ctx, &callbacks.RunInfo{
		Name:      role,
		Type:      modelName,
		Component: components.ComponentOfChatModel,
	})

	out, err := chat.Generate(ctx, msgs)
	if err != nil {
		metrics.LLMCalls.WithLabelValues(role, "error").Inc()
		return "", err
	}
	if out == nil || strings.TrimSpace(out.Content) == "" {
		metrics.LLMCalls.WithLabelValues(role, "empty").Inc()
		return "", fmt.Errorf("%s model returned an empty reply", role)
	}
	metrics.LLMCalls.WithLabelValues(role, "ok").Inc()
	recordUsage(role, modelName, out)
	return out.Content, nil
}

// recordUsage logs token usage and estimated cost when the provider reports it.
func recordUsage(role, modelName string, out *schema.Message) float64 {
	if out.ResponseMeta == nil || out.ResponseMeta.Usage == nil {
		return 0
	}
	usage := out.ResponseMeta.Usage
	inC, outC, totalC := model.ComputeCost(usage, model.ResolvePricing(modelName))

	metrics.LLMTokens.WithLabelValues(modelName, "prompt").Add(float64(usage.PromptTokens))
	metrics.LLMTokens.WithLabelValues(modelName, "completion").Add(float64(usage.CompletionTokens))
	metrics.LLMCostUSD.WithLabelValues(modelName).Add(totalC)

	logx.Debug().
		Str("role", role).
		Str("model", modelName).
		Int("prompt_tokens", usage.PromptTokens).
		Int("completion_tokens", usage.CompletionTokens).
		Int("total_tokens", usage.TotalTokens).
		Float64("input_cost_usd", inC).
		Float64("output_cost_usd", outC).
		Float64("total_cost_usd", totalC).
		Msg("LLM usage")
	return totalC
}
