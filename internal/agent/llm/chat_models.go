// Package llm adapts Gemini chat models to the planner's Classifier and the
// composer's Generator.
package llm

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino-ext/components/model/gemini"
	einomodel "github.com/cloudwego/eino/components/model"
	"google.golang.org/genai"

	"github.com/partdesk-core-poc-v1/server/internal/agent/model"
	logx "github.com/partdesk-core-poc-v1/server/pkg/logger"
)

// ChatModelConfig holds the configuration for chat model creation
type ChatModelConfig struct {
	APIKey   string
	BaseURL  string
	Planner  model.PlannerModelConfig
	Composer model.ComposerModelConfig
}

// ChatModels holds the planner and composer chat models
type ChatModels struct {
	Planner           einomodel.BaseChatModel
	Composer          einomodel.BaseChatModel
	PlannerModelName  string
	ComposerModelName string
}

// NewChatModels creates both chat models on one Gemini client. The planner runs
// at temperature zero with thinking disabled so identical inputs classify alike.
func NewChatModels(ctx context.Context, cfg ChatModelConfig) (*ChatModels, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini api key is empty")
	}

	clientCfg := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		clientCfg.HTTPOptions.BaseURL = cfg.BaseURL
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		logx.Error().Err(err).Msg("Error creating Gemini client")
		return nil, fmt.Errorf("error creating Gemini client: %w", err)
	}

	plannerTemp := float32(0)
	plannerMax := cfg.Planner.MaxTokens
	planner, err := gemini.NewChatModel(ctx, &gemini.Config{
		Client:      client,
		Model:       cfg.Planner.Model,
		Temperature: &plannerTemp,
		MaxTokens:   &plannerMax,
		ThinkingConfig: &genai.ThinkingConfig{
			IncludeThoughts: false,
			ThinkingBudget:  genai.Ptr(int32(0)),
		},
	})
	if err != nil {
		logx.Error().Err(err).Msg("Error creating planner model")
		return nil, fmt.Errorf("error creating planner model: %w", err)
	}

	composerTemp := cfg.Composer.Temperature
	composerMax := cfg.Composer.MaxTokens
	composer, err := gemini.NewChatModel(ctx, &gemini.Config{
		Client:      client,
		Model:       cfg.Composer.Model,
		Temperature: &composerTemp,
		MaxTokens:   &composerMax,
	})
	if err != nil {
		logx.Error().Err(err).Msg("Error creating composer model")
		return nil, fmt.Errorf("error creating composer model: %w", err)
	}

	return &ChatModels{
		Planner:           planner,
		Composer:          composer,
		PlannerModelName:  cfg.Planner.Model,
		ComposerModelName: cfg.Composer.Model,
	}, nil
}
