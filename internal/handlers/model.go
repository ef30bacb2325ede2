package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"modelhub-backend/internal/middleware"
	"modelhub-backend/internal/models"
	"modelhub-backend/internal/services"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

const (
	multipartMemory = 32 << 20
	// extra room for form fields and multipart framing
	uploadOverhead = 1 << 20
)

// ModelService is the model surface used by ModelHandler
type ModelService interface {
	GetModels(ctx context.Context, count int) ([]*models.Model, error)
	GetModelByID(ctx context.Context, id string) (*models.Model, error)
	GetUserModels(ctx context.Context, userID string) ([]*models.Model, error)
	UploadModel(ctx context.Context, input models.ModelInput, file, thumbnail *services.FilePayload) (*models.Model, error)
	RecordDownload(ctx context.Context, userID, modelID string) (*models.DownloadTally, error)
}

// ModelHandler handles model-related requests
type ModelHandler struct {
	models ModelService
}

// NewModelHandler creates a new model handler
func NewModelHandler(models ModelService) *ModelHandler {
	return &ModelHandler{models: models}
}

// ModelListResponse is the body of catalog listings
type ModelListResponse struct {
	Models []*models.Model       `json:"models"`
	Stats  services.CatalogStats `json:"stats"`
	Error  *string               `json:"error"`
}

// DashboardResponse is the body of GET /dashboard
type DashboardResponse struct {
	Models         []*models.Model       `json:"models"`
	Stats          services.CatalogStats `json:"stats"`
	RecentActivity []services.Activity   `json:"recent_activity"`
	TopModels      []*models.Model       `json:"top_models"`
	Error          *string               `json:"error"`
}

// UploadResponse is the body of a successful upload
type UploadResponse struct {
	ModelID       string        `json:"model_id"`
	Model         *models.Model `json:"model"`
	FileSizeLabel string        `json:"file_size_label"`
	Error         *string       `json:"error"`
}

func catalogQuery(r *http.Request) services.CatalogQuery {
	q := r.URL.Query()
	return services.CatalogQuery{
		Search:   q.Get("q"),
		Category: q.Get("category"),
		Sort:     q.Get("sort"),
	}
}

// ListModels handles GET /api/v1/models
func (h *ModelHandler) ListModels(w http.ResponseWriter, r *http.Request) {
	count := 0
	if raw := r.URL.Query().Get("count"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			respondFailure(w, "models", &services.ValidationError{Field: "count", Message: "count must be a positive integer"})
			return
		}
		count = n
	}

	list, err := h.models.GetModels(r.Context(), count)
	if err != nil {
		respondFailure(w, "models", err)
		return
	}

	respondJSON(w, http.StatusOK, ModelListResponse{
		Models: services.FilterModels(list, catalogQuery(r)),
		Stats:  services.SummarizeModels(list),
	})
}

// visibleModel loads a model, hiding private ones from everyone but the owner
func (h *ModelHandler) visibleModel(r *http.Request) (*models.Model, error) {
	m, err := h.models.GetModelByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		return nil, err
	}
	if !m.IsPublic && m.UserID != middleware.GetUserID(r.Context()) {
		return nil, services.ErrModelNotFound
	}
	return m, nil
}

// GetModel handles GET /api/v1/models/{id}
func (h *ModelHandler) GetModel(w http.ResponseWriter, r *http.Request) {
	m, err := h.visibleModel(r)
	if err != nil {
		respondFailure(w, "model", err)
		return
	}
	respondResult(w, http.StatusOK, "model", m)
}

// GetRelatedModels handles GET /api/v1/models/{id}/related
func (h *ModelHandler) GetRelatedModels(w http.ResponseWriter, r *http.Request) {
	target, err := h.visibleModel(r)
	if err != nil {
		respondFailure(w, "models", err)
		return
	}

	candidates, err := h.models.GetModels(r.Context(), services.DefaultModelCount)
	if err != nil {
		respondFailure(w, "models", err)
		return
	}

	respondResult(w, http.StatusOK, "models", services.RelatedModels(target, candidates))
}

// GetUserModels handles GET /api/v1/users/{id}/models
func (h *ModelHandler) GetUserModels(w http.ResponseWriter, r *http.Request) {
	list, err := h.models.GetUserModels(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondFailure(w, "models", err)
		return
	}

	// private models are only listed for their owner
	if middleware.GetUserID(r.Context()) != chi.URLParam(r, "id") {
		public := make([]*models.Model, 0, len(list))
		for _, m := range list {
			if m.IsPublic {
				public = append(public, m)
			}
		}
		list = public
	}

	respondResult(w, http.StatusOK, "models", list)
}

// Dashboard handles GET /api/v1/dashboard
func (h *ModelHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		respondError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	list, err := h.models.GetUserModels(r.Context(), userID)
	if err != nil {
		respondFailure(w, "models", err)
		return
	}

	respondJSON(w, http.StatusOK, DashboardResponse{
		Models:         services.FilterModels(list, services.CatalogQuery{Search: r.URL.Query().Get("q")}),
		Stats:          services.SummarizeModels(list),
		RecentActivity: services.RecentActivity(list),
		TopModels:      services.TopModels(list),
	})
}

// UploadModel handles POST /api/v1/models
func (h *ModelHandler) UploadModel(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		respondError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, services.MaxModelFileSize+services.MaxThumbnailSize+uploadOverhead)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		respondFailure(w, "model_id", &services.ValidationError{Field: "file", Message: "Invalid or oversized upload"})
		return
	}
	defer r.MultipartForm.RemoveAll()

	isPublic := true
	if raw := r.FormValue("is_public"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			respondFailure(w, "model_id", &services.ValidationError{Field: "is_public", Message: "is_public must be true or false"})
			return
		}
		isPublic = v
	}

	input := models.ModelInput{
		Title:       r.FormValue("title"),
		Description: r.FormValue("description"),
		Category:    r.FormValue("category"),
		Tags:        services.ParseTags(r.FormValue("tags")),
		UserID:      userID,
		IsPublic:    isPublic,
	}

	file, closeFile, err := formFile(r, "file")
	if err != nil {
		respondFailure(w, "model_id", err)
		return
	}
	defer closeFile()

	thumbnail, closeThumbnail, err := formFile(r, "thumbnail")
	if err != nil {
		respondFailure(w, "model_id", err)
		return
	}
	defer closeThumbnail()

	m, err := h.models.UploadModel(r.Context(), input, file, thumbnail)
	if err != nil {
		respondFailure(w, "model_id", err)
		return
	}

	log.Info().Str("model_id", m.ID).Str("user_id", userID).Msg("Model uploaded")
	respondJSON(w, http.StatusCreated, UploadResponse{
		ModelID:       m.ID,
		Model:         m,
		FileSizeLabel: services.FormatFileSize(m.FileSize),
	})
}

// formFile returns the named part as a payload, or nil when it is absent
func formFile(r *http.Request, field string) (*services.FilePayload, func(), error) {
	f, header, err := r.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, func() {}, nil
	}
	if err != nil {
		return nil, func() {}, &services.ValidationError{Field: field, Message: "Invalid " + field}
	}
	payload := &services.FilePayload{
		Name:        header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Body:        f,
	}
	return payload, func() { f.Close() }, nil
}

// RecordDownload handles POST /api/v1/models/{id}/downloads
func (h *ModelHandler) RecordDownload(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		respondError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	tally, err := h.models.RecordDownload(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		respondFailure(w, "download", err)
		return
	}
	respondResult(w, http.StatusOK, "download", tally)
}
