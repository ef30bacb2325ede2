package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"modelhub-backend/internal/models"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// Redis caches model documents as JSON with a TTL.
// Failures degrade to cache misses.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedis connects to Redis and verifies the connection
func NewRedis(ctx context.Context, addr, password string, db int, ttl time.Duration) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping Redis: %w", err)
	}

	return &Redis{client: client, ttl: ttl}, nil
}

// Close closes the Redis connection
func (c *Redis) Close() error {
	return c.client.Close()
}

func modelKey(id string) string {
	return "model:" + id
}

// Get returns the cached model, if any
func (c *Redis) Get(ctx context.Context, id string) (*models.Model, bool) {
	data, err := c.client.Get(ctx, modelKey(id)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Warn().Err(err).Str("model_id", id).Msg("Redis cache read failed")
		}
		return nil, false
	}

	var m models.Model
	if err := json.Unmarshal(data, &m); err != nil {
		log.Warn().Err(err).Str("model_id", id).Msg("Failed to decode cached model")
		return nil, false
	}
	return &m, true
}

// Set stores the model under its ID
func (c *Redis) Set(ctx context.Context, m *models.Model) {
	data, err := json.Marshal(m)
	if err != nil {
		log.Warn().Err(err).Str("model_id", m.ID).Msg("Failed to encode model for cache")
		return
	}
	if err := c.client.Set(ctx, modelKey(m.ID), data, c.ttl).Err(); err != nil {
		log.Warn().Err(err).Str("model_id", m.ID).Msg("Redis cache write failed")
	}
}

// Invalidate removes the cached model
func (c *Redis) Invalidate(ctx context.Context, id string) {
	if err := c.client.Del(ctx, modelKey(id)).Err(); err != nil {
		log.Warn().Err(err).Str("model_id", id).Msg("Redis cache invalidation failed")
	}
}
