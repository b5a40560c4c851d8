package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/jwebster45206/heartbeat-engine/pkg/being"
	"github.com/jwebster45206/heartbeat-engine/pkg/storage"
	"github.com/jwebster45206/heartbeat-engine/pkg/world"
	"github.com/redis/go-redis/v9"
)

// RedisStorage implements the Storage interface using Redis for being and
// sandbox documents and SQLite for history records (objects, world events).
type RedisStorage struct {
	*SQLiteHistory
	client *redis.Client
	logger *slog.Logger
}

// Ensure RedisStorage implements Storage interface
var _ storage.Storage = (*RedisStorage)(nil)

// NewRedisStorage creates a new Redis storage instance on an existing client.
func NewRedisStorage(client *redis.Client, history *SQLiteHistory, logger *slog.Logger) *RedisStorage {
	return &RedisStorage{
		SQLiteHistory: history,
		client:        client,
		logger:        logger,
	}
}

// Client exposes the underlying Redis client for components sharing the connection.
func (r *RedisStorage) Client() *redis.Client {
	return r.client
}

func beingKey(id string) string   { return "being:" + id }
func sandboxKey(id string) string { return "sandbox:" + id }
func npcSetKey(id string) string  { return "npcs:" + id }

// Health and lifecycle methods

func (r *RedisStorage) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

func (r *RedisStorage) Close() error {
	var errs []error
	if r.SQLiteHistory != nil {
		if err := r.SQLiteHistory.Close(); err != nil {
			r.logger.Error("Failed to close history db", "error", err)
			errs = append(errs, err)
		}
	}
	if err := r.client.Close(); err != nil {
		r.logger.Error("Failed to close Redis connection", "error", err)
		errs = append(errs, err)
	}
	r.logger.Info("Storage closed")
	return errors.Join(errs...)
}

// WaitForConnection waits for Redis to become available (used during startup)
func (r *RedisStorage) WaitForConnection(ctx context.Context) error {
	maxRetries := 30
	retryDelay := 2 * time.Second

	for i := 0; i < maxRetries; i++ {
		if err := r.Ping(ctx); err != nil {
			r.logger.Debug("Redis not ready yet", "error", err, "attempt", i+1)

			select {
			case <-ctx.Done():
				return fmt.Errorf("context cancelled while waiting for redis: %w", ctx.Err())
			case <-time.After(retryDelay):
				continue
			}
		}

		r.logger.Info("Redis connection established")
		return nil
	}

	return fmt.Errorf("redis did not become available after %d attempts", maxRetries)
}

// Being operations

func (r *RedisStorage) LoadBeing(ctx context.Context, id string) (*being.Being, error) {
	raw, err := r.client.Get(ctx, beingKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		r.logger.Error("Failed to load being", "being_id", id, "error", err)
		return nil, fmt.Errorf("failed to load being: %w", err)
	}

	var b being.Being
	if err := decodeDoc(raw, &b); err != nil {
		return nil, fmt.Errorf("failed to decode being %s: %w", id, err)
	}
	return &b, nil
}

func (r *RedisStorage) SaveBeing(ctx context.Context, b *being.Being) error {
	data, err := encodeDoc(b)
	if err != nil {
		return err
	}

	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, beingKey(b.ID), data, 0)
		if !b.IsMain && b.MainCharacterID != "" {
			pipe.SAdd(ctx, npcSetKey(b.MainCharacterID), b.ID)
		}
		return nil
	})
	if err != nil {
		r.logger.Error("Failed to save being", "being_id", b.ID, "error", err)
		return fmt.Errorf("failed to save being: %w", err)
	}
	return nil
}

func (r *RedisStorage) ListNPCs(ctx context.Context, mainCharacterID string) ([]*being.Being, error) {
	ids, err := r.client.SMembers(ctx, npcSetKey(mainCharacterID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list npc ids: %w", err)
	}
	if len(ids) == 0 {
		return nil, nil
	}
	sort.Strings(ids)

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = beingKey(id)
	}
	vals, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load npcs: %w", err)
	}

	npcs := make([]*being.Being, 0, len(vals))
	for i, v := range vals {
		s, ok := v.(string)
		if !ok {
			r.logger.Warn("NPC listed but missing", "npc_id", ids[i], "character_id", mainCharacterID)
			continue
		}
		var npc being.Being
		if err := decodeDoc([]byte(s), &npc); err != nil {
			return nil, fmt.Errorf("failed to decode npc %s: %w", ids[i], err)
		}
		npcs = append(npcs, &npc)
	}
	return npcs, nil
}

// Sandbox operations

func (r *RedisStorage) LoadSandbox(ctx context.Context, id string) (*world.Sandbox, error) {
	raw, err := r.client.Get(ctx, sandboxKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		r.logger.Error("Failed to load sandbox", "sandbox_id", id, "error", err)
		return nil, fmt.Errorf("failed to load sandbox: %w", err)
	}

	var sb world.Sandbox
	if err := decodeDoc(raw, &sb); err != nil {
		return nil, fmt.Errorf("failed to decode sandbox %s: %w", id, err)
	}
	return &sb, nil
}

func (r *RedisStorage) SaveSandbox(ctx context.Context, sb *world.Sandbox) error {
	data, err := encodeDoc(sb)
	if err != nil {
		return err
	}
	if err := r.client.Set(ctx, sandboxKey(sb.ID), data, 0).Err(); err != nil {
		r.logger.Error("Failed to save sandbox", "sandbox_id", sb.ID, "error", err)
		return fmt.Errorf("failed to save sandbox: %w", err)
	}
	return nil
}
