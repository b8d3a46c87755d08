package observers

import (
	"context"

	einocb "github.com/cloudwego/eino/callbacks"
	"github.com/cloudwego/eino/components/prompt"
	callbackHelper "github.com/cloudwego/eino/utils/callbacks"

	logx "github.com/partdesk-core-poc-v1/server/pkg/logger"
)

// newPromptHandler logs rendered prompt templates.
func newPromptHandler() *callbackHelper.PromptCallbackHandler {
	return &callbackHelper.PromptCallbackHandler{
		OnEnd: func(ctx context.Context, info *einocb.RunInfo, output *prompt.CallbackOutput) context.Context {
			if output == nil {
				return ctx
			}
			ev := logx.Debug().Str("component", info.Name).Int("messages", len(output.Result))
			if n := len(output.Result); n > 0 && output.Result[n-1] != nil {
				ev = ev.Str("rendered", preview(output.Result[n-1].Content))
			}
			ev.Msg("prompt rendered")
			return ctx
		},
		OnError: func(ctx context.Context, info *einocb.RunInfo, err error) context.Context {
			logx.Warn().Err(err).Str("component", info.Name).Msg("prompt render failed")
			return ctx
		},
	}
}
