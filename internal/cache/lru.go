package cache

import (
	"context"
	"time"

	"modelhub-backend/internal/models"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// LRU is an in-process model cache with per-entry TTL
type LRU struct {
	cache *expirable.LRU[string, models.Model]
}

// NewLRU creates a cache holding at most size entries for ttl each
func NewLRU(size int, ttl time.Duration) *LRU {
	return &LRU{cache: expirable.NewLRU[string, models.Model](size, nil, ttl)}
}

// Get returns a copy of the cached model
func (c *LRU) Get(_ context.Context, id string) (*models.Model, bool) {
	m, ok := c.cache.Get(id)
	if !ok {
		return nil, false
	}
	m.Tags = append([]string(nil), m.Tags...)
	return &m, true
}

// Set stores a copy of the model
func (c *LRU) Set(_ context.Context, m *models.Model) {
	stored := *m
	stored.Tags = append([]string(nil), m.Tags...)
	c.cache.Add(m.ID, stored)
}

// Invalidate drops the entry for id
func (c *LRU) Invalidate(_ context.Context, id string) {
	c.cache.Remove(id)
}
