package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"modelhub-backend/internal/cache"
	"modelhub-backend/internal/metrics"
	"modelhub-backend/internal/models"
	"modelhub-backend/internal/repository"
	"modelhub-backend/internal/storage"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const (
	DefaultModelCount = 20
	MaxModelCount     = 100

	defaultFileType = "application/octet-stream"
)

// ModelRepository is the model storage used by ModelService
type ModelRepository interface {
	Create(ctx context.Context, m *models.Model) error
	GetByID(ctx context.Context, id string) (*models.Model, error)
	ListRecent(ctx context.Context, limit int) ([]*models.Model, error)
	ListByUser(ctx context.Context, userID string) ([]*models.Model, error)
}

// DownloadRepository is the download log used by ModelService
type DownloadRepository interface {
	Record(ctx context.Context, event *models.DownloadEvent) (*models.DownloadTally, error)
}

// DownloadNotifier tells a model owner about a new download
type DownloadNotifier interface {
	NotifyModelDownloaded(ctx context.Context, tally *models.DownloadTally, downloaderID string)
}

// FilePayload is an uploaded file
type FilePayload struct {
	Name        string
	ContentType string
	Size        int64
	Body        io.Reader
}

// ModelService handles model listing, upload and download bookkeeping
type ModelService struct {
	models    ModelRepository
	downloads DownloadRepository
	blobs     storage.BlobStore
	cache     cache.ModelCache
	notifier  DownloadNotifier
	metrics   metrics.Recorder
	now       func() time.Time
}

// NewModelService creates a new model service
func NewModelService(
	modelRepo ModelRepository,
	downloadRepo DownloadRepository,
	blobs storage.BlobStore,
	modelCache cache.ModelCache,
	notifier DownloadNotifier,
	recorder metrics.Recorder,
) *ModelService {
	if modelCache == nil {
		modelCache = cache.Nop{}
	}
	if recorder == nil {
		recorder = metrics.Nop{}
	}
	return &ModelService{
		models:    modelRepo,
		downloads: downloadRepo,
		blobs:     blobs,
		cache:     modelCache,
		notifier:  notifier,
		metrics:   recorder,
		now:       time.Now,
	}
}

// GetModels returns public models from the count most recent uploads.
// Filtering happens after the window is fetched, so fewer than count
// models may come back.
func (s *ModelService) GetModels(ctx context.Context, count int) ([]*models.Model, error) {
	if count <= 0 {
		count = DefaultModelCount
	}
	if count > MaxModelCount {
		count = MaxModelCount
	}

	recent, err := s.models.ListRecent(ctx, count)
	if err != nil {
		return nil, err
	}

	public := make([]*models.Model, 0, len(recent))
	for _, m := range recent {
		if m.IsPublic {
			public = append(public, m)
		}
	}
	return public, nil
}

// GetModelByID retrieves a single model
func (s *ModelService) GetModelByID(ctx context.Context, id string) (*models.Model, error) {
	if m, ok := s.cache.Get(ctx, id); ok {
		return m, nil
	}

	m, err := s.models.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrModelNotFound
		}
		return nil, err
	}

	s.cache.Set(ctx, m)
	return m, nil
}

// GetUserModels returns every model owned by a user, newest first
func (s *ModelService) GetUserModels(ctx context.Context, userID string) ([]*models.Model, error) {
	result, err := s.models.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if result == nil {
		result = make([]*models.Model, 0)
	}
	return result, nil
}

// UploadModel stores the model file, then the thumbnail, then the model
// document. Blobs written before a later step fails are removed.
func (s *ModelService) UploadModel(ctx context.Context, input models.ModelInput, file, thumbnail *FilePayload) (*models.Model, error) {
	if err := s.validateUpload(input, file, thumbnail); err != nil {
		s.metrics.RecordUpload("rejected", 0)
		return nil, err
	}

	fileType := file.ContentType
	if fileType == "" {
		fileType = defaultFileType
	}

	fileKey := storage.NewKey(storage.NamespaceModels, file.Name)
	fileURL, err := s.blobs.Put(ctx, fileKey, fileType, file.Body, file.Size)
	if err != nil {
		s.metrics.RecordUpload("error", 0)
		return nil, fmt.Errorf("failed to store model file: %w", err)
	}

	thumbKey := storage.NewKey(storage.NamespaceThumbnails, thumbnail.Name)
	thumbURL, err := s.blobs.Put(ctx, thumbKey, thumbnail.ContentType, thumbnail.Body, thumbnail.Size)
	if err != nil {
		s.removeBlobs(fileKey)
		s.metrics.RecordUpload("error", 0)
		return nil, fmt.Errorf("failed to store thumbnail: %w", err)
	}

	m := &models.Model{
		ID:            uuid.New().String(),
		Title:         strings.TrimSpace(input.Title),
		Description:   strings.TrimSpace(input.Description),
		Category:      NormalizeCategory(input.Category),
		Tags:          input.Tags,
		UserID:        input.UserID,
		IsPublic:      input.IsPublic,
		FilePath:      fileURL,
		ThumbnailPath: thumbURL,
		FileSize:      file.Size,
		FileType:      fileType,
		CreatedAt:     s.now().UTC(),
	}
	if m.Tags == nil {
		m.Tags = make([]string, 0)
	}

	if err := s.models.Create(ctx, m); err != nil {
		s.removeBlobs(fileKey, thumbKey)
		s.metrics.RecordUpload("error", 0)
		return nil, err
	}

	log.Info().
		Str("model_id", m.ID).
		Str("user_id", m.UserID).
		Int64("file_size", m.FileSize).
		Msg("Model uploaded")

	s.metrics.RecordUpload("success", m.FileSize)
	return m, nil
}

func (s *ModelService) validateUpload(input models.ModelInput, file, thumbnail *FilePayload) error {
	if err := ValidateModelInput(input); err != nil {
		return err
	}
	if err := ValidateModelFile(file); err != nil {
		return err
	}
	return ValidateThumbnail(thumbnail)
}

// removeBlobs deletes orphaned blobs; failures are only logged
func (s *ModelService) removeBlobs(keys ...string) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	for _, key := range keys {
		if err := s.blobs.Delete(ctx, key); err != nil {
			log.Warn().Err(err).Str("key", key).Msg("Failed to remove orphaned blob")
		}
	}
}

// RecordDownload appends a download event and increments the model's counter
func (s *ModelService) RecordDownload(ctx context.Context, userID, modelID string) (*models.DownloadTally, error) {
	if strings.TrimSpace(modelID) == "" {
		return nil, ErrModelNotFound
	}

	event := &models.DownloadEvent{
		ID:        uuid.New().String(),
		UserID:    userID,
		ModelID:   modelID,
		CreatedAt: s.now().UTC(),
	}

	tally, err := s.downloads.Record(ctx, event)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.metrics.RecordDownload("not_found")
			return nil, ErrModelNotFound
		}
		s.metrics.RecordDownload("error")
		return nil, err
	}

	s.cache.Invalidate(ctx, modelID)
	s.metrics.RecordDownload("success")

	if s.notifier != nil && tally.OwnerID != userID {
		s.notifier.NotifyModelDownloaded(ctx, tally, userID)
	}

	return tally, nil
}
