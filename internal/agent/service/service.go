// Package service is the entry point the HTTP layer calls for each message.
// It owns session persistence across turns; the graph only sees a value copy.
package service

import (
	"context"
	"strings"
	"time"

	"github.com/cloudwego/eino/schema"
	"github.com/google/uuid"

	"github.com/partdesk-core-poc-v1/server/internal/agent/graph"
	"github.com/partdesk-core-poc-v1/server/internal/agent/graph/conversations"
	"github.com/partdesk-core-poc-v1/server/internal/agent/model"
	"github.com/partdesk-core-poc-v1/server/internal/agent/planner"
	errx "github.com/partdesk-core-poc-v1/server/internal/core/error"
	logx "github.com/partdesk-core-poc-v1/server/pkg/logger"
)

// CacheReporter exposes planner cache counters.
type CacheReporter interface {
	CacheStats() planner.CacheStats
}

// ChatReply is the outcome of one message.
type ChatReply struct {
	ConversationID string
	Response       model.Response
	Timestamp      time.Time
}

// SessionView is a debug snapshot of a conversation.
type SessionView struct {
	ConversationID string            `json:"conversation_id"`
	Entities       model.Session     `json:"entities"`
	MessageCount   int               `json:"message_count"`
	Messages       []*schema.Message `json:"messages"`
}

type Config struct {
	Runner   graph.Runner
	Sessions model.SessionRepository
	Messages *conversations.MessagesManager
	Cache    CacheReporter
	// RecentMessages bounds SessionView.Messages.
	RecentMessages int
}

type ChatService struct {
	runner   graph.Runner
	sessions model.SessionRepository
	messages *conversations.MessagesManager
	cache    CacheReporter
	recent   int
	locks    *keyedMutex
	now      func() time.Time
}

func New(cfg Config) (*ChatService, error) {
	switch {
	case cfg.Runner == nil:
		return nil, errx.Wrap(errx.ErrInvalidInput, errMissing("runner"))
	case cfg.Sessions == nil:
		return nil, errx.Wrap(errx.ErrInvalidInput, errMissing("session repository"))
	case cfg.Messages == nil:
		return nil, errx.Wrap(errx.ErrInvalidInput, errMissing("messages manager"))
	}
	recent := cfg.RecentMessages
	if recent <= 0 {
		recent = 10
	}
	return &ChatService{
		runner:   cfg.Runner,
		sessions: cfg.Sessions,
		messages: cfg.Messages,
		cache:    cfg.Cache,
		recent:   recent,
		locks:    newKeyedMutex(),
		now:      time.Now,
	}, nil
}

// HandleMessage runs one turn. An empty conversationID starts a new
// conversation. Turns of the same conversation never overlap.
func (s *ChatService) HandleMessage(ctx context.Context, conversationID, message string) (ChatReply, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return ChatReply{}, errx.BadRequest("message is required")
	}
	conversationID = strings.TrimSpace(conversationID)
	if conversationID == "" {
		conversationID = uuid.NewString()
	}

	unlock := s.locks.Lock(conversationID)
	defer unlock()

	session, _, err := s.sessions.Load(ctx, conversationID)
	if err != nil {
		logx.Error().Err(err).Str("conversation_id", conversationID).Msg("Error loading session")
		return ChatReply{}, err
	}

	summary, err := s.messages.Summary(ctx, conversationID)
	if err != nil {
		// the turn can still be answered without context
		logx.Warn().Err(err).Str("conversation_id", conversationID).Msg("Error building conversation summary")
		summary = ""
	}

	logx.Info().
		Str("conversation_id", conversationID).
		Str("message", message).
		Msg("chat turn")

	res := s.runner.HandleTurn(ctx, model.TurnInput{
		ConversationID: conversationID,
		Query:          message,
		Summary:        summary,
		Session:        session,
	})

	if err := s.sessions.Save(ctx, conversationID, res.Session); err != nil {
		logx.Error().Err(err).Str("conversation_id", conversationID).Msg("Error saving session")
		return ChatReply{}, err
	}
	if err := s.messages.SaveTurn(ctx, conversationID, message, res.Response); err != nil {
		logx.Error().Err(err).Str("conversation_id", conversationID).Msg("Error saving conversation turn")
		return ChatReply{}, err
	}

	h := res.Response.Header()
	logx.Info().
		Str("conversation_id", conversationID).
		Str("type", string(h.Type)).
		Str("route", string(res.Decision.Route)).
		Float64("confidence", h.Confidence).
		Msg("chat response")

	return ChatReply{
		ConversationID: conversationID,
		Response:       res.Response,
		Timestamp:      s.now().UTC(),
	}, nil
}

// GetSession returns the stored entities and recent history.
func (s *ChatService) GetSession(ctx context.Context, conversationID string) (SessionView, error) {
	session, found, err := s.sessions.Load(ctx, conversationID)
	if err != nil {
		return SessionView{}, err
	}
	history, err := s.messages.History(ctx, conversationID)
	if err != nil {
		return SessionView{}, err
	}
	if !found && len(history) == 0 {
		return SessionView{}, errx.NotFound(conversationID)
	}

	recent := history
	if len(recent) > s.recent {
		recent = recent[len(recent)-s.recent:]
	}
	return SessionView{
		ConversationID: conversationID,
		Entities:       session,
		MessageCount:   len(history),
		Messages:       recent,
	}, nil
}

// DeleteSession drops the entities and the history. It reports whether
// anything was stored.
func (s *ChatService) DeleteSession(ctx context.Context, conversationID string) (bool, error) {
	unlock := s.locks.Lock(conversationID)
	defer unlock()

	_, found, err := s.sessions.Load(ctx, conversationID)
	if err != nil {
		return false, err
	}
	history, err := s.messages.History(ctx, conversationID)
	if err != nil {
		return false, err
	}

	if err := s.sessions.Delete(ctx, conversationID); err != nil {
		return false, err
	}
	if err := s.messages.Clear(ctx, conversationID); err != nil {
		return false, err
	}
	logx.Info().Str("conversation_id", conversationID).Msg("session cleared")
	return found || len(history) > 0, nil
}

// CacheStats reports the planner cache counters; zero when no reporter is set.
func (s *ChatService) CacheStats() planner.CacheStats {
	if s.cache == nil {
		return planner.CacheStats{}
	}
	return s.cache.CacheStats()
}
