package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jwebster45206/heartbeat-engine/pkg/choice"
	"github.com/redis/go-redis/v9"
)

// RedisChoiceStore keeps pending choices in Redis so they survive a process restart.
// Entries never expire; they are removed by Delete only.
type RedisChoiceStore struct {
	client *redis.Client
}

var _ choice.Store = (*RedisChoiceStore)(nil)

func NewRedisChoiceStore(client *redis.Client) *RedisChoiceStore {
	return &RedisChoiceStore{client: client}
}

func choiceKey(heartbeatID string) string { return "pending-choice:" + heartbeatID }

func (s *RedisChoiceStore) Set(ctx context.Context, heartbeatID string, pc *choice.PendingChoice) error {
	data, err := encodeDoc(pc)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, choiceKey(heartbeatID), data, 0).Err(); err != nil {
		return fmt.Errorf("failed to store pending choice: %w", err)
	}
	return nil
}

func (s *RedisChoiceStore) Get(ctx context.Context, heartbeatID string) (*choice.PendingChoice, error) {
	raw, err := s.client.Get(ctx, choiceKey(heartbeatID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load pending choice: %w", err)
	}
	var pc choice.PendingChoice
	if err := decodeDoc(raw, &pc); err != nil {
		return nil, err
	}
	return &pc, nil
}

func (s *RedisChoiceStore) Delete(ctx context.Context, heartbeatID string) error {
	if err := s.client.Del(ctx, choiceKey(heartbeatID)).Err(); err != nil {
		return fmt.Errorf("failed to delete pending choice: %w", err)
	}
	return nil
}
