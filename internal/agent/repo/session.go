package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/partdesk-core-poc-v1/server/internal/agent/model"
	errx "github.com/partdesk-core-poc-v1/server/internal/core/error"
	logx "github.com/partdesk-core-poc-v1/server/pkg/logger"
)

// RedisSessionRepository stores each conversation's session entities as one
// JSON value with a TTL.
type RedisSessionRepository struct {
	rdb redis.Cmdable
	ttl time.Duration
}

func NewRedisSessionRepository(rdb redis.Cmdable, ttl time.Duration) *RedisSessionRepository {
	return &RedisSessionRepository{rdb: rdb, ttl: ttl}
}

func (r *RedisSessionRepository) sessionKey(conversationID string) string {
	return fmt.Sprintf("conversation:%s:session", conversationID)
}

func (r *RedisSessionRepository) Load(ctx context.Context, conversationID string) (model.Session, bool, error) {
	key := r.sessionKey(conversationID)
	raw, err := r.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return model.Session{}, false, nil
		}
		logx.Error().Err(err).Str("key", key).Msg("failed to load session from redis")
		return model.Session{}, false, errx.WrapRedis(err)
	}

	var s model.Session
	if err := json.Unmarshal(raw, &s); err != nil {
		logx.Error().Err(err).Str("key", key).Msg("failed to unmarshal session")
		return model.Session{}, false, fmt.Errorf("unmarshal session: %w", err)
	}
	return s, true, nil
}

func (r *RedisSessionRepository) Save(ctx context.Context, conversationID string, session model.Session) error {
	b, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	key := r.sessionKey(conversationID)
	if err := r.rdb.Set(ctx, key, b, r.ttl).Err(); err != nil {
		logx.Error().Err(err).Str("key", key).Msg("failed to save session to redis")
		return errx.WrapRedis(err)
	}
	return nil
}

func (r *RedisSessionRepository) Delete(ctx context.Context, conversationID string) error {
	key := r.sessionKey(conversationID)
	if err := r.rdb.Del(ctx, key).Err(); err != nil {
		logx.Error().Err(err).Str("key", key).Msg("failed to delete session from redis")
		return errx.WrapRedis(err)
	}
	return nil
}

var _ model.SessionRepository = (*RedisSessionRepository)(nil)
