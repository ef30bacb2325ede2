// Package cache keeps recently read model documents close to the service.
package cache

import (
	"context"

	"modelhub-backend/internal/models"
)

// ModelCache caches model documents by ID
type ModelCache interface {
	Get(ctx context.Context, id string) (*models.Model, bool)
	Set(ctx context.Context, m *models.Model)
	Invalidate(ctx context.Context, id string)
}

// Nop is a cache that never holds anything
type Nop struct{}

func (Nop) Get(context.Context, string) (*models.Model, bool) { return nil, false }
func (Nop) Set(context.Context, *models.Model) {}
func (Nop) Invalidate(context.Context, string) {}
