package app

import (
	"context"
	"fmt"
	"strings"

	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/modulegate-backend/internal/clients/redis"
	"github.com/yungbote/modulegate-backend/internal/data/cache"
	"github.com/yungbote/modulegate-backend/internal/platform/logger"
	"github.com/yungbote/modulegate-backend/internal/realtime/bus"
)

type Clients struct {
	Redis *goredis.Client
	Cache cache.Cache
	Bus   bus.Bus
}

// wireClients uses Redis for the content cache and event bus when
// REDIS_ADDR is set, otherwise in-process versions of both.
func wireClients(ctx context.Context, log *logger.Logger, cfg Config) (Clients, error) {
	log.Info("Wiring clients...")

	if strings.TrimSpace(cfg.RedisAddr) == "" {
		log.Info("REDIS_ADDR not set; using in-process cache and event bus")
		return Clients{
			Cache: cache.NewMemory(cfg.ContentCacheTTL),
			Bus:   bus.NewMemoryBus(),
		}, nil
	}

	rdb, err := redis.NewClient(ctx, cfg.RedisAddr, log)
	if err != nil {
		return Clients{}, fmt.Errorf("init redis: %w", err)
	}
	b, err := bus.NewRedisBus(rdb, cfg.RedisChannel, log)
	if err != nil {
		_ = rdb.Close()
		return Clients{}, fmt.Errorf("init redis bus: %w", err)
	}
	return Clients{
		Redis: rdb,
		Cache: cache.NewRedis(rdb, "modulegate:content:", cfg.ContentCacheTTL, log),
		Bus:   b,
	}, nil
}

func (c Clients) Close() {
	if c.Bus != nil {
		_ = c.Bus.Close()
	}
	if c.Redis != nil {
		_ = c.Redis.Close()
	}
}
