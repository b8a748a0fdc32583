package repo

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	errx "github.com/chative-tutor/server/internal/core/error"
	"github.com/chative-tutor/server/internal/tutor/model"
	logx "github.com/chative-tutor/server/pkg/logger"
	"github.com/cloudwego/eino/schema"
	"github.com/redis/go-redis/v9"
)

type RedisConversationRepository struct {
	rdb redis.Cmdable
	ttl time.Duration
	// maxMessages caps the stored list; zero keeps everything.
	maxMessages int64
}

func NewRedisConversationRepository(rdb redis.Cmdable, cfg model.ConversationConfig) *RedisConversationRepository {
	return &RedisConversationRepository{rdb: rdb, ttl: cfg.TTL, maxMessages: int64(cfg.MaxTurns) * 2}
}

func (r *RedisConversationRepository) conversationKey(learnerID string) string {
	return fmt.Sprintf("tutor:conversation:%s:messages", learnerID)
}

func (r *RedisConversationRepository) AddMessage(ctx context.Context, learnerID string, message *schema.Message) error {
	b, err := json.Marshal(message)
	if err != nil {
		logx.Error().Err(err).Str("learner_id", learnerID).Msg("failed to marshal message")
		return fmt.Errorf("marshal message: %w", err)
	}
	key := r.conversationKey(learnerID)

	pipe := r.rdb.TxPipeline()
	pipe.RPush(ctx, key, b)
	if r.maxMessages > 0 {
		pipe.LTrim(ctx, key, -r.maxMessages, -1)
	}
	// extend TTL on touch
	if r.ttl > 0 {
		pipe.Expire(ctx, key, r.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		logx.Error().Err(err).Str("key", key).Msg("failed to push message to redis")
		return errx.WrapRedis(err)
	}
	return nil
}

func (r *RedisConversationRepository) LoadHistory(ctx context.Context, learnerID string) (*model.ConversationHistory, error) {
	key := r.conversationKey(learnerID)

	rows, err := r.rdb.LRange(ctx, key, 0, -1).Result()
	if err != nil {
		if err == redis.Nil {
			return &model.ConversationHistory{ConversationID: learnerID, Messages: []*schema.Message{}}, nil
		}
		logx.Error().Err(err).Str("key", key).Msg("failed to load conversation history from redis")
		return nil, errx.WrapRedis(err)
	}

	msgs := make([]*schema.Message, 0, len(rows))
	for i, s := range rows {
		var m schema.Message
		if err := json.Unmarshal([]byte(s), &m); err != nil {
			logx.Error().Err(err).Str("learner_id", learnerID).Int("index", i).Msg("failed to unmarshal message")
			return nil, fmt.Errorf("unmarshal message at index %d: %w", i, err)
		}
		msgs = append(msgs, &m)
	}
	return &model.ConversationHistory{ConversationID: learnerID, Messages: msgs}, nil
}

func (r *RedisConversationRepository) ClearHistory(ctx context.Context, learnerID string) error {
	key := r.conversationKey(learnerID)
	if err := r.rdb.Del(ctx, key).Err(); err != nil {
		logx.Error().Err(err).Str("key", key).Msg("failed to delete conversation history from redis")
		return errx.WrapRedis(err)
	}
	return nil
}

var _ model.ConversationRepository = (*RedisConversationRepository)(nil)
