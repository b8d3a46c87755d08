package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/cloudwego/eino/schema"
	"github.com/redis/go-redis/v9"

	"github.com/partdesk-core-poc-v1/server/internal/agent/model"
	errx "github.com/partdesk-core-poc-v1/server/internal/core/error"
	logx "github.com/partdesk-core-poc-v1/server/pkg/logger"
)

// RedisConversationRepository keeps each conversation's turns in a capped
// Redis list. Every write trims the list and refreshes its TTL atomically.
type RedisConversationRepository struct {
	rdb         redis.Cmdable
	ttl         time.Duration
	maxMessages int
	now         func() time.Time
}

// messageRecord is the stored form of a history entry. Only role and text are
// kept; tool calls and response metadata never enter the history.
type messageRecord struct {
	Role    schema.RoleType `json:"role"`
	Content string          `json:"content"`
	At      time.Time       `json:"at"`
}

func NewRedisConversationRepository(rdb redis.Cmdable, ttl time.Duration, maxMessages int) *RedisConversationRepository {
	return &RedisConversationRepository{rdb: rdb, ttl: ttl, maxMessages: maxMessages, now: time.Now}
}

func historyKey(conversationID string) string {
	return fmt.Sprintf("conversation:%s:messages", conversationID)
}

// AddMessage appends one entry, keeping only the newest maxMessages.
func (r *RedisConversationRepository) AddMessage(ctx context.Context, conversationID string, message *schema.Message) error {
	if message == nil {
		return errx.Wrap(errx.ErrInvalidInput, errors.New("nil message"))
	}
	payload, err := json.Marshal(messageRecord{Role: message.Role, Content: message.Content, At: r.now().UTC()})
	if err != nil {
		return fmt.Errorf("encode history entry: %w", err)
	}

	key := historyKey(conversationID)
	_, err = r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.RPush(ctx, key, payload)
		if r.maxMessages > 0 {
			pipe.LTrim(ctx, key, int64(-r.maxMessages), -1)
		}
		if r.ttl > 0 {
			pipe.Expire(ctx, key, r.ttl)
		}
		return nil
	})
	if err != nil {
		logx.Error().Err(err).Str("key", key).Msg("Error appending history entry")
		return errx.WrapRedis(err)
	}
	return nil
}

// LoadHistory returns the stored entries oldest first. A missing key is an
// empty history. Undecodable entries are skipped.
func (r *RedisConversationRepository) LoadHistory(ctx context.Context, conversationID string) (*model.ConversationHistory, error) {
	key := historyKey(conversationID)
	rows, err := r.rdb.LRange(ctx, key, 0, -1).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		logx.Error().Err(err).Str("key", key).Msg("Error loading history")
		return nil, errx.WrapRedis(err)
	}

	history := &model.ConversationHistory{
		ConversationID: conversationID,
		Messages:       make([]*schema.Message, 0, len(rows)),
	}
	for i, row := range rows {
		var rec messageRecord
		if err := json.Unmarshal([]byte(row), &rec); err != nil {
			logx.Warn().Err(err).Str("key", key).Int("index", i).Msg("skipping undecodable history entry")
			continue
		}
		history.Messages = append(history.Messages, &schema.Message{Role: rec.Role, Content: rec.Content})
	}
	return history, nil
}

func (r *RedisConversationRepository) ClearHistory(ctx context.Context, conversationID string) error {
	if err := r.rdb.Del(ctx, historyKey(conversationID)).Err(); err != nil {
		return errx.WrapRedis(err)
	}
	return nil
}

func (r *RedisConversationRepository) GetMessageCount(ctx context.Context, conversationID string) (int, error) {
	n, err := r.rdb.LLen(ctx, historyKey(conversationID)).Result()
	switch {
	case errors.Is(err, redis.Nil):
		return 0, nil
	case err != nil:
		return 0, errx.WrapRedis(err)
	}
	return int(n), nil
}

var _ model.ConversationRepository = (*RedisConversationRepository)(nil)
