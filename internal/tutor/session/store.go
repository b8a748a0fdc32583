package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	errx "github.com/chative-tutor/server/internal/core/error"
	logx "github.com/chative-tutor/server/pkg/logger"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/redis/go-redis/v9"
)

// Store persists sessions by key. Implementations must be safe for concurrent use.
type Store interface {
	Get(ctx context.Context, key string) (*Session, error)
	Put(ctx context.Context, s *Session) error
	Delete(ctx context.Context, key string) error
}

// MemoryStore is a bounded in-process store. Least recently used entries are
// evicted past maxEntries and every entry expires ttl after its last Put.
type MemoryStore struct {
	cache *expirable.LRU[string, Session]
}

func NewMemoryStore(maxEntries int, ttl time.Duration) *MemoryStore {
	return &MemoryStore{cache: expirable.NewLRU[string, Session](maxEntries, nil, ttl)}
}

func (m *MemoryStore) Get(_ context.Context, key string) (*Session, error) {
	s, ok := m.cache.Get(key)
	if !ok {
		return nil, ErrNotFound
	}
	return &s, nil
}

func (m *MemoryStore) Put(_ context.Context, s *Session) error {
	m.cache.Add(s.Key, *s)
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, key string) error {
	m.cache.Remove(key)
	return nil
}

// Len returns the number of live entries.
func (m *MemoryStore) Len() int {
	return m.cache.Len()
}

// RedisStore keeps sessions as JSON values with a sliding TTL.
type RedisStore struct {
	rdb redis.Cmdable
	ttl time.Duration
}

func NewRedisStore(rdb redis.Cmdable, ttl time.Duration) *RedisStore {
	return &RedisStore{rdb: rdb, ttl: ttl}
}

func (r *RedisStore) sessionKey(key string) string {
	return fmt.Sprintf("tutor:session:%s", key)
}

func (r *RedisStore) Get(ctx context.Context, key string) (*Session, error) {
	raw, err := r.rdb.Get(ctx, r.sessionKey(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		logx.Error().Err(err).Str("session_key", key).Msg("failed to load session from redis")
		return nil, errx.WrapRedis(err)
	}
	var s Session
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("unmarshal session: %w", err)
	}
	return &s, nil
}

func (r *RedisStore) Put(ctx context.Context, s *Session) error {
	b, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	if err := r.rdb.Set(ctx, r.sessionKey(s.Key), b, r.ttl).Err(); err != nil {
		logx.Error().Err(err).Str("session_key", s.Key).Msg("failed to save session to redis")
		return errx.WrapRedis(err)
	}
	return nil
}

func (r *RedisStore) Delete(ctx context.Context, key string) error {
	if err := r.rdb.Del(ctx, r.sessionKey(key)).Err(); err != nil {
		logx.Error().Err(err).Str("session_key", key).Msg("failed to delete session from redis")
		return errx.WrapRedis(err)
	}
	return nil
}

var (
	_ Store = (*MemoryStore)(nil)
	_ Store = (*RedisStore)(nil)
)
