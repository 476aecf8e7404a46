package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"trustbridge/internal/reputation"
	id "trustbridge/pkg/domain"
)

// ProfileCache caches computed score results per owner. A nil cache on the
// service means every profile read recomputes.
type ProfileCache interface {
	GetScore(ctx context.Context, owner id.UserID) (*reputation.ScoreResult, error)
	SetScore(ctx context.Context, owner id.UserID, result reputation.ScoreResult) error
	Invalidate(ctx context.Context, owner id.UserID) error
}

// RedisProfileCache stores score results as JSON under a per-owner key.
// Cache errors are returned to the caller, which treats them as misses —
// Redis being down never breaks profile reads.
type RedisProfileCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisProfileCache(client *redis.Client, ttl time.Duration) *RedisProfileCache {
	return &RedisProfileCache{client: client, ttl: ttl}
}

func profileKey(owner id.UserID) string {
	return "trustbridge:profile:" + owner.String()
}

func (c *RedisProfileCache) GetScore(ctx context.Context, owner id.UserID) (*reputation.ScoreResult, error) {
	raw, err := c.client.Get(ctx, profileKey(owner)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("profile cache get: %w", err)
	}
	var result reputation.ScoreResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("profile cache decode: %w", err)
	}
	return &result, nil
}

func (c *RedisProfileCache) SetScore(ctx context.Context, owner id.UserID, result reputation.ScoreResult) error {
	raw, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("profile cache encode: %w", err)
	}
	if err := c.client.Set(ctx, profileKey(owner), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("profile cache set: %w", err)
	}
	return nil
}

func (c *RedisProfileCache) Invalidate(ctx context.Context, owner id.UserID) error {
	if err := c.client.Del(ctx, profileKey(owner)).Err(); err != nil {
		return fmt.Errorf("profile cache invalidate: %w", err)
	}
	return nil
}
