package model

import "time"

// ================ Config ================

type PlannerModelConfig struct {
	Model         string        `envconfig:"PLANNER_MODEL" default:"gemini-2.5-flash-lite"`
	MaxTokens     int           `envconfig:"PLANNER_MAX_TOKENS" default:"220"`
	Timeout       time.Duration `envconfig:"PLANNER_TIMEOUT" default:"8s"`
	CacheCapacity int           `envconfig:"PLANNER_CACHE_CAPACITY" default:"1000"`
}

type ComposerModelConfig struct {
	Model       string        `envconfig:"COMPOSER_MODEL" default:"gemini-2.5-flash"`
	MaxTokens   int           `envconfig:"COMPOSER_MAX_TOKENS" default:"1024"`
	Temperature float32       `envconfig:"COMPOSER_TEMPERATURE" default:"0.3"`
	Timeout     time.Duration `envconfig:"COMPOSER_TIMEOUT" default:"12s"`
}

// RoutingConfig carries the tunable constants of the routing pipeline.
type RoutingConfig struct {
	ConfidenceThreshold   float64  `envconfig:"ROUTING_CONFIDENCE_THRESHOLD" default:"0.55"`
	ModelRequiredFloor    float64  `envconfig:"ROUTING_MODEL_REQUIRED_FLOOR" default:"0.55"`
	UnvalidatedFloor      float64  `envconfig:"ROUTING_UNVALIDATED_FLOOR" default:"0.60"`
	UnvalidatedModelScore float64  `envconfig:"ROUTING_UNVALIDATED_MODEL_CREDIT" default:"0.08"`
	FollowUpPhrases       []string `envconfig:"ROUTING_FOLLOW_UP_PHRASES" default:"step by step,next steps,next step,walk me through,what should i check,how do i check,diagnostic checks"`
	FollowUpConfidence    float64  `envconfig:"ROUTING_FOLLOW_UP_CONFIDENCE" default:"0.8"`
}

// DefaultRoutingConfig mirrors the envconfig defaults for callers that do not load the environment.
func DefaultRoutingConfig() RoutingConfig {
	return RoutingConfig{
		ConfidenceThreshold:   0.55,
		ModelRequiredFloor:    0.55,
		UnvalidatedFloor:      0.60,
		UnvalidatedModelScore: 0.08,
		FollowUpPhrases: []string{
			"step by step", "next steps", "next step", "walk me through",
			"what should i check", "how do i check", "diagnostic checks",
		},
		FollowUpConfidence: 0.8,
	}
}

type ReferenceConfig struct {
	PartMapPath  string `envconfig:"REFERENCE_PART_MAP_PATH" default:"data/part_id_map.json"`
	ModelMapPath string `envconfig:"REFERENCE_MODEL_MAP_PATH" default:"data/model_id_to_parts_map.json"`
}

type SearchConfig struct {
	Timeout time.Duration `envconfig:"SEARCH_TIMEOUT" default:"3s"`
}

type ConversationConfig struct {
	TTL          time.Duration `envconfig:"CONVERSATION_TTL" default:"30m"`
	SummaryTurns int           `envconfig:"CONVERSATION_SUMMARY_TURNS" default:"6"`
	SummaryChars int           `envconfig:"CONVERSATION_SUMMARY_CHARS" default:"200"`
	MaxMessages  int           `envconfig:"CONVERSATION_MAX_MESSAGES" default:"20"`
}

type HTTPConfig struct {
	Port            int           `envconfig:"HTTP_PORT" default:"8080"`
	// Mode is a gin mode (debug, release, test); empty derives it from the environment.
	Mode            string        `envconfig:"HTTP_MODE"`
	ShutdownTimeout time.Duration `envconfig:"HTTP_SHUTDOWN_TIMEOUT" default:"10s"`
	MaxMessageChars int           `envconfig:"HTTP_MAX_MESSAGE_CHARS" default:"2000"`
}
