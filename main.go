package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/partdesk-core-poc-v1/server/internal/agent/composer"
	"github.com/partdesk-core-poc-v1/server/internal/agent/graph"
	"github.com/partdesk-core-poc-v1/server/internal/agent/graph/conversations"
	"github.com/partdesk-core-poc-v1/server/internal/agent/graph/nodes"
	"github.com/partdesk-core-poc-v1/server/internal/agent/llm"
	"github.com/partdesk-core-poc-v1/server/internal/agent/model"
	"github.com/partdesk-core-poc-v1/server/internal/agent/planner"
	"github.com/partdesk-core-poc-v1/server/internal/agent/reference"
	"github.com/partdesk-core-poc-v1/server/internal/agent/repo"
	"github.com/partdesk-core-poc-v1/server/internal/agent/resolver"
	"github.com/partdesk-core-poc-v1/server/internal/agent/router"
	"github.com/partdesk-core-poc-v1/server/internal/agent/scoring"
	"github.com/partdesk-core-poc-v1/server/internal/agent/search"
	"github.com/partdesk-core-poc-v1/server/internal/agent/service"
	"github.com/partdesk-core-poc-v1/server/internal/core"
	"github.com/partdesk-core-poc-v1/server/internal/httpserver"
	logx "github.com/partdesk-core-poc-v1/server/pkg/logger"
	pkgredis "github.com/partdesk-core-poc-v1/server/pkg/redis"
)

// AppConfig defines all configurable parameters of the service,
// sourced from environment variables (loaded from .env for local runs).
type AppConfig struct {
	Environment string `envconfig:"ENVIRONMENT" default:"development"`
	LogLevel    string `envconfig:"LOG_LEVEL"`

	// Infrastructure
	Redis pkgredis.Config

	// LLM provider; without a key the agent runs on its deterministic fallbacks
	APIKey  string `envconfig:"GEMINI_API_KEY"`
	BaseURL string `envconfig:"GEMINI_BASE_URL"`

	// Agent configs
	Planner      model.PlannerModelConfig
	Composer     model.ComposerModelConfig
	Routing      model.RoutingConfig
	Reference    model.ReferenceConfig
	Search       model.SearchConfig
	Conversation model.ConversationConfig
	HTTP         model.HTTPConfig
}

func main() {
	if err := godotenv.Load(".env"); err != nil {
		logx.Warn().Err(err).Msg("Could not load .env file")
	}

	var cfg AppConfig
	if err := envconfig.Process("", &cfg); err != nil {
		logx.Fatal().Err(err).Msg("Failed to process environment config")
	}

	env := core.ParseEnvironment(cfg.Environment)
	logx.Init(logx.LoggerOpts{Environment: env, Level: cfg.LogLevel})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ================ Stores ================

	var (
		sessions model.SessionRepository
		history  model.ConversationRepository
	)
	if cfg.Redis.Enabled() {
		rdb, err := cfg.Redis.New(ctx)
		if err != nil {
			logx.Fatal().Err(err).Msg("Failed to initialise Redis client")
		}
		defer rdb.Close()
		sessions = repo.NewRedisSessionRepository(rdb, cfg.Conversation.TTL)
		history = repo.NewRedisConversationRepository(rdb, cfg.Conversation.TTL, cfg.Conversation.MaxMessages)
		logx.Info().Msg("Connected to Redis successfully")
	} else {
		mem := repo.NewMemoryStore(cfg.Conversation.MaxMessages)
		sessions, history = mem, mem
		logx.Warn().Msg("REDIS_URL not set; sessions are kept in memory")
	}

	store, err := reference.Load(cfg.Reference)
	if err != nil {
		logx.Fatal().Err(err).Msg("Failed to load reference data")
	}
	index := search.NewIndex(store.Parts())

	// ================ Language models ================

	var (
		classifier planner.Classifier
		generator  composer.Generator
	)
	models, err := llm.NewChatModels(ctx, llm.ChatModelConfig{
		APIKey:   cfg.APIKey,
		BaseURL:  cfg.BaseURL,
		Planner:  cfg.Planner,
		Composer: cfg.Composer,
	})
	if err != nil {
		logx.Warn().Err(err).Msg("Chat models unavailable; using fallback plans and deterministic text")
	} else {
		classifier = llm.NewClassifier(models.Planner, models.PlannerModelName)
		generator = llm.NewGenerator(models.Composer, models.ComposerModelName)
	}

	// ================ Agent ================

	plans := planner.New(classifier, planner.NewCache(cfg.Planner.CacheCapacity), cfg.Planner.Timeout)

	runner, err := graph.BuildRunner(ctx, &graph.GraphConfig{
		Analyzer: &nodes.Analyzer{
			Planner:  plans,
			FollowUp: planner.NewFollowUp(cfg.Routing.FollowUpPhrases, cfg.Routing.FollowUpConfidence),
			Lookup:   store,
			Resolver: resolver.New(store),
			Scorer:   scoring.New(cfg.Routing.UnvalidatedModelScore),
			Router:   router.New(cfg.Routing),
		},
		Composer: composer.New(store, index, generator, composer.Config{
			SearchTimeout:    cfg.Search.Timeout,
			GeneratorTimeout: cfg.Composer.Timeout,
		}),
	})
	if err != nil {
		logx.Fatal().Err(err).Msg("Failed to build graph")
	}

	chat, err := service.New(service.Config{
		Runner:   runner,
		Sessions: sessions,
		Messages: conversations.NewMessagesManager(history, cfg.Conversation),
		Cache:    plans,
	})
	if err != nil {
		logx.Fatal().Err(err).Msg("Failed to build chat service")
	}

	// ================ HTTP ================

	srv, err := httpserver.New(httpserver.Config{
		Port:            cfg.HTTP.Port,
		Mode:            cfg.HTTP.Mode,
		Environment:     env,
		ShutdownTimeout: cfg.HTTP.ShutdownTimeout,
		MaxMessageChars: cfg.HTTP.MaxMessageChars,
		Chat:            chat,
		Stats:           store,
	})
	if err != nil {
		logx.Fatal().Err(err).Msg("Failed to build HTTP server")
	}

	stats := store.Stats()
	logx.Info().
		Str("environment", env.String()).
		Int("parts", stats.Parts).
		Int("models", stats.Models).
		Bool("llm", models != nil).
		Msg("Agent initialized")

	if err := srv.Run(ctx); err != nil {
		logx.Error().Err(err).Msg("HTTP server stopped with error")
		return
	}
	logx.Info().Msg("Shut down cleanly")
}
