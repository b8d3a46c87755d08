package llm

import (
	"context"
	"errors"
	"testing"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errx "github.com/partdesk-core-poc-v1/server/internal/core/error"
)

type fakeChat struct {
	reply *schema.Message
	err   error
	seen  []*schema.Message
}

func (f *fakeChat) Generate(_ context.Context, input []*schema.Message, _ ...einomodel.Option) (*schema.Message, error) {
	f.seen = input
	return f.reply, f.err
}

func (f *fakeChat) Stream(context.Context, []*schema.Message, ...einomodel.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("streaming not supported")
}

func TestClassifierSendsSystemAndInput(t *testing.T) {
	chat := &fakeChat{reply: schema.AssistantMessage(`{"intent":"part_lookup"}`, nil)}
	c := NewClassifier(chat, "gemini-2.5-flash-lite")

	out, err := c.Classify(context.Background(), "User message:\nwhat is PS11752778")
	require.NoError(t, err)
	assert.Equal(t, `{"intent":"part_lookup"}`, out)
	require.Len(t, chat.seen, 2)
	assert.Equal(t, schema.System, chat.seen[0].Role)
	assert.Equal(t, schema.User, chat.seen[1].Role)
	assert.Equal(t, "User message:\nwhat is PS11752778", chat.seen[1].Content)
}

func TestClassifierErrorsAreUnavailable(t *testing.T) {
	c := NewClassifier(&fakeChat{err: errors.New("429")}, "m")
	_, err := c.Classify(context.Background(), "x")
	assert.ErrorIs(t, err, errx.ErrClassifierUnavailable)

	c = NewClassifier(&fakeChat{reply: schema.AssistantMessage("  ", nil)}, "m")
	_, err = c.Classify(context.Background(), "x")
	assert.ErrorIs(t, err, errx.ErrClassifierUnavailable)

	c = NewClassifier(nil, "m")
	_, err = c.Classify(context.Background(), "x")
	assert.ErrorIs(t, err, errx.ErrClassifierUnavailable)
}

func TestGenerator(t *testing.T) {
	reply := schema.AssistantMessage(`{"explanation":"ok"}`, nil)
	reply.ResponseMeta = &schema.ResponseMeta{Usage: &schema.TokenUsage{PromptTokens: 1000, CompletionTokens: 200, TotalTokens: 1200}}
	chat := &fakeChat{reply: reply}
	g := NewGenerator(chat, "gemini-2.5-flash")

	out, err := g.Generate(context.Background(), "render me")
	require.NoError(t, err)
	assert.Equal(t, `{"explanation":"ok"}`, out)
	require.Len(t, chat.seen, 1)
	assert.Equal(t, schema.User, chat.seen[0].Role)

	_, err = NewGenerator(&fakeChat{err: context.DeadlineExceeded}, "m").Generate(context.Background(), "p")
	assert.ErrorIs(t, err, errx.ErrGeneratorUnavailable)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRecordUsage(t *testing.T) {
	msg := schema.AssistantMessage("x", nil)
	assert.Zero(t, recordUsage(RoleComposer, "gemini-2.5-flash", msg))

	msg.ResponseMeta = &schema.ResponseMeta{Usage: &schema.TokenUsage{PromptTokens: 1_000_000, CompletionTokens: 1_000_000}}
	assert.InDelta(t, 0.30+2.50, recordUsage(RoleComposer, "gemini-2.5-flash", msg), 1e-9)
	assert.Zero(t, recordUsage(RoleComposer, "unknown-model", msg))
}

func TestNewChatModelsRequiresKey(t *testing.T) {
	_, err := NewChatModels(context.Background(), ChatModelConfig{})
	assert.Error(t, err)
}
