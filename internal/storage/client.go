package storage

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/redis/go-redis/v9"
)

// NewRedisClient builds a client from either a redis:// URL or a bare host:port.
// It does not dial; use RedisStorage.WaitForConnection at startup.
func NewRedisClient(redisURL string, logger *slog.Logger) (*redis.Client, error) {
	if !strings.Contains(redisURL, "://") {
		return redis.NewClient(&redis.Options{Addr: redisURL}), nil
	}

	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}
	logger.Debug("Redis client configured", "addr", opt.Addr, "db", opt.DB)
	return redis.NewClient(opt), nil
}
