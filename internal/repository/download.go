package repository

import (
	"context"
	"errors"
	"fmt"

	"modelhub-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DownloadRepository handles the append-only download log
type DownloadRepository struct {
	db *pgxpool.Pool
}

// NewDownloadRepository creates a new download repository
func NewDownloadRepository(db *pgxpool.Pool) *DownloadRepository {
	return &DownloadRepository{db: db}
}

// Record appends a download event and increments the model's counter.
// Both writes share one transaction and the increment is done in SQL,
// so concurrent downloads never lose a count.
func (r *DownloadRepository) Record(ctx context.Context, event *models.DownloadEvent) (*models.DownloadTally, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO downloads (id, user_id, model_id, created_at)
		SELECT $1, $2, $3, $4
		WHERE EXISTS (SELECT 1 FROM models WHERE id = $3)
	`, event.ID, event.UserID, event.ModelID, event.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to record download: %w", err)
	}

	tally := models.DownloadTally{ModelID: event.ModelID}
	err = tx.QueryRow(ctx, `
		UPDATE models SET downloads_count = downloads_count + 1
		WHERE id = $1
		RETURNING user_id, title, file_path, downloads_count
	`, event.ModelID).Scan(&tally.OwnerID, &tally.Title, &tally.FilePath, &tally.DownloadsCount)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to increment download count: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit download: %w", err)
	}
	return &tally, nil
}
