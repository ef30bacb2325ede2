package repository

import (
	"context"
	"errors"
	"fmt"

	"modelhub-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const modelColumns = `id, title, description, category, tags, user_id, is_public,
	file_path, thumbnail_path, file_size, file_type,
	downloads_count, view_count, likes_count, created_at`

// ModelRepository handles database operations for models
type ModelRepository struct {
	db *pgxpool.Pool
}

// NewModelRepository creates a new model repository
func NewModelRepository(db *pgxpool.Pool) *ModelRepository {
	return &ModelRepository{db: db}
}

// Create creates a new model
func (r *ModelRepository) Create(ctx context.Context, m *models.Model) error {
	query := `
		INSERT INTO models (` + modelColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`
	_, err := r.db.Exec(ctx, query,
		m.ID, m.Title, m.Description, m.Category, m.Tags, m.UserID, m.IsPublic,
		m.FilePath, m.ThumbnailPath, m.FileSize, m.FileType,
		m.DownloadsCount, m.ViewCount, m.LikesCount, m.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create model: %w", err)
	}
	return nil
}

// GetByID retrieves a model by ID
func (r *ModelRepository) GetByID(ctx context.Context, id string) (*models.Model, error) {
	query := `SELECT ` + modelColumns + ` FROM models WHERE id = $1`
	m, err := scanModel(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get model: %w", err)
	}
	return m, nil
}

// ListRecent retrieves the most recently created models regardless of visibility
func (r *ModelRepository) ListRecent(ctx context.Context, limit int) ([]*models.Model, error) {
	query := `SELECT ` + modelColumns + ` FROM models ORDER BY created_at DESC LIMIT $1`
	return r.list(ctx, query, limit)
}

// ListByUser retrieves all models owned by a user, newest first
func (r *ModelRepository) ListByUser(ctx context.Context, userID string) ([]*models.Model, error) {
	query := `SELECT ` + modelColumns + ` FROM models WHERE user_id = $1 ORDER BY created_at DESC`
	return r.list(ctx, query, userID)
}

func (r *ModelRepository) list(ctx context.Context, query string, args ...any) ([]*models.Model, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get models: %w", err)
	}
	defer rows.Close()

	result := make([]*models.Model, 0)
	for rows.Next() {
		m, err := scanModel(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan model: %w", err)
		}
		result = append(result, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating models: %w", err)
	}

	return result, nil
}

func scanModel(row pgx.Row) (*models.Model, error) {
	var m models.Model
	err := row.Scan(
		&m.ID, &m.Title, &m.Description, &m.Category, &m.Tags, &m.UserID, &m.IsPublic,
		&m.FilePath, &m.ThumbnailPath, &m.FileSize, &m.FileType,
		&m.DownloadsCount, &m.ViewCount, &m.LikesCount, &m.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &m, nil
}
