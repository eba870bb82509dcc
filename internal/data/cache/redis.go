package cache

import (
	"context"
	"errors"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/modulegate-backend/internal/platform/logger"
)

type Redis struct {
	rdb    goredis.UniversalClient
	prefix string
	ttl    time.Duration
	log    *logger.Logger
}

// NewRedis stores entries under prefix with a Redis-side expiry of ttl.
func NewRedis(rdb goredis.UniversalClient, prefix string, ttl time.Duration, log *logger.Logger) *Redis {
	return &Redis{rdb: rdb, prefix: prefix, ttl: ttl, log: log.With("service", "RedisCache")}
}

func (r *Redis) key(k string) string { return r.prefix + k }

func (r *Redis) Get(ctx context.Context, key string, dest any) (time.Duration, bool, error) {
	raw, err := r.rdb.Get(ctx, r.key(key)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	age, err := decode(raw, dest, time.Now())
	if err != nil {
		r.log.Warn("dropping undecodable cache entry", "key", key, "error", err)
		_ = r.rdb.Del(ctx, r.key(key)).Err()
		return 0, false, nil
	}
	return age, true, nil
}

func (r *Redis) Set(ctx context.Context, key string, value any) error {
	raw, err := encode(value, time.Now())
	if err != nil {
		return err
	}
	return r.rdb.Set(ctx, r.key(key), raw, r.ttl).Err()
}

func (r *Redis) Delete(ctx context.Context, key string) error {
	return r.rdb.Del(ctx, r.key(key)).Err()
}
