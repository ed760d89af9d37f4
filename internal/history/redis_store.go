package history

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/aura-classroom/livepoll/internal/models"
)

// DefaultRedisKey is the list that receives archived polls.
const DefaultRedisKey = "livepoll:history"

// RedisStore appends ended polls as JSON to a Redis list.
type RedisStore struct {
	client *redis.Client
	key    string
}

// NewRedisStore creates a store writing to key (DefaultRedisKey when empty).
func NewRedisStore(client *redis.Client, key string) *RedisStore {
	if key == "" {
		key = DefaultRedisKey
	}
	return &RedisStore{client: client, key: key}
}

// Name identifies the store in logs.
func (s *RedisStore) Name() string { return "redis" }

// Save pushes p onto the list.
func (s *RedisStore) Save(ctx context.Context, p *models.Poll) error {
	raw, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal poll: %w", err)
	}
	if err := s.client.RPush(ctx, s.key, raw).Err(); err != nil {
		return fmt.Errorf("rpush: %w", err)
	}
	return nil
}

// List reads the archived polls back, oldest first.
func (s *RedisStore) List(ctx context.Context) ([]*models.Poll, error) {
	raw, err := s.client.LRange(ctx, s.key, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("lrange: %w", err)
	}
	out := make([]*models.Poll, 0, len(raw))
	for _, r := range raw {
		var p models.Poll
		if err := json.Unmarshal([]byte(r), &p); err != nil {
			return nil, fmt.Errorf("unmarshal poll: %w", err)
		}
		out = append(out, &p)
	}
	return out, nil
}
