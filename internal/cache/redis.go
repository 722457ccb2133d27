package cache

import (
	"context"
	"os"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Client is nil when Redis is unreachable; StatsCache then degrades to
// pass-through.
var Client *redis.Client

func InitRedis(ctx context.Context) {
	addr := os.Getenv("REDIS_URL")
	if addr == "" {
		addr = "localhost:6379"
	}
	c := redis.NewClient(&redis.Options{Addr: addr})
	if err := c.Ping(ctx).Err(); err != nil {
		zap.L().Warn("Redis unreachable, stats cache disabled", zap.String("addr", addr), zap.Error(err))
		_ = c.Close()
		Client = nil
		return
	}
	Client = c
	zap.L().Info("Connected to Redis", zap.String("addr", addr))
}
