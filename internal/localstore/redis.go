package localstore

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"shifttrack/internal/model"
)

const redisOpTimeout = 2 * time.Second

// RedisStore keeps the slot under a single Redis key.
type RedisStore struct {
	client *redis.Client
	key    string
	logger *slog.Logger
}

func NewRedisStore(client *redis.Client, key string, logger *slog.Logger) *RedisStore {
	if key == "" {
		key = DefaultKey
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisStore{client: client, key: key, logger: logger.With("store", "redis", "key", key)}
}

func (s *RedisStore) Save(entry model.LocalEntry) {
	data, err := encode(entry)
	if err != nil {
		s.logger.Warn("encode local entry", "error", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()
	if err := s.client.Set(ctx, s.key, data, 0).Err(); err != nil {
		s.logger.Warn("write local entry", "error", err)
	}
}

func (s *RedisStore) Load() (model.LocalEntry, bool) {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()

	data, err := s.client.Get(ctx, s.key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.logger.Warn("read local entry", "error", err)
		}
		return model.LocalEntry{}, false
	}

	entry, err := decode(data)
	if err != nil {
		s.logger.Warn("discarding local entry", "error", err)
		return model.LocalEntry{}, false
	}
	if entry.SwapIn == nil {
		return model.LocalEntry{}, false
	}
	return entry, true
}

func (s *RedisStore) Clear() {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()
	if err := s.client.Del(ctx, s.key).Err(); err != nil {
		s.logger.Warn("clear local entry", "error", err)
	}
}
