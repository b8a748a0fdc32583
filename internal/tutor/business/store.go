package business

import (
	"context"
	"errors"
	"fmt"
	"time"

	errx "github.com/chative-tutor/server/internal/core/error"
	"github.com/chative-tutor/server/internal/tutor/model"
	logx "github.com/chative-tutor/server/pkg/logger"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/redis/go-redis/v9"
)

// ModeStore keeps the active scenario per user identity.
type ModeStore interface {
	Get(ctx context.Context, userID string) (model.Mode, bool, error)
	Set(ctx context.Context, userID string, mode model.Mode) error
	Clear(ctx context.Context, userID string) error
}

// MemoryStore is a bounded in-process ModeStore.
type MemoryStore struct {
	cache *expirable.LRU[string, model.Mode]
}

func NewMemoryStore(maxEntries int, ttl time.Duration) *MemoryStore {
	return &MemoryStore{cache: expirable.NewLRU[string, model.Mode](maxEntries, nil, ttl)}
}

func (m *MemoryStore) Get(_ context.Context, userID string) (model.Mode, bool, error) {
	mode, ok := m.cache.Get(userID)
	return mode, ok, nil
}

func (m *MemoryStore) Set(_ context.Context, userID string, mode model.Mode) error {
	m.cache.Add(userID, mode)
	return nil
}

func (m *MemoryStore) Clear(_ context.Context, userID string) error {
	m.cache.Remove(userID)
	return nil
}

// RedisStore keeps scenarios under tutor:business:<userID>.
type RedisStore struct {
	rdb redis.Cmdable
	ttl time.Duration
}

func NewRedisStore(rdb redis.Cmdable, ttl time.Duration) *RedisStore {
	return &RedisStore{rdb: rdb, ttl: ttl}
}

func (r *RedisStore) modeKey(userID string) string {
	return fmt.Sprintf("tutor:business:%s", userID)
}

func (r *RedisStore) Get(ctx context.Context, userID string) (model.Mode, bool, error) {
	v, err := r.rdb.Get(ctx, r.modeKey(userID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		logx.Error().Err(err).Str("user_id", userID).Msg("failed to load business mode from redis")
		return "", false, errx.WrapRedis(err)
	}
	return model.Mode(v), true, nil
}

func (r *RedisStore) Set(ctx context.Context, userID string, mode model.Mode) error {
	if err := r.rdb.Set(ctx, r.modeKey(userID), string(mode), r.ttl).Err(); err != nil {
		logx.Error().Err(err).Str("user_id", userID).Msg("failed to save business mode to redis")
		return errx.WrapRedis(err)
	}
	return nil
}

func (r *RedisStore) Clear(ctx context.Context, userID string) error {
	if err := r.rdb.Del(ctx, r.modeKey(userID)).Err(); err != nil {
		logx.Error().Err(err).Str("user_id", userID).Msg("failed to clear business mode in redis")
		return errx.WrapRedis(err)
	}
	return nil
}

var (
	_ ModeStore = (*MemoryStore)(nil)
	_ ModeStore = (*RedisStore)(nil)
)
