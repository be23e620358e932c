package app

import (
	"context"
	"strings"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// NewRedisClient returns a client or nil when addr is empty or unreachable.
// Notifications are optional; the core keeps working without them.
func NewRedisClient(ctx context.Context, addr, password string, logger *zap.Logger) *redis.Client {
	if strings.TrimSpace(addr) == "" {
		return nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("Redis not available, notifications disabled", zap.String("addr", addr), zap.Error(err))
		_ = client.Close()
		return nil
	}

	return client
}
