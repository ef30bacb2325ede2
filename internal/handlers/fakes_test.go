package handlers

import (
	"context"
	"io"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"
	"time"

	"modelhub-backend/internal/auth"
	"modelhub-backend/internal/models"
	"modelhub-backend/internal/repository"
	"modelhub-backend/internal/services"
	"modelhub-backend/internal/session"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
)

const testSecret = "handlers-test-secret"

// memStore keeps accounts and profiles in memory for auth and profile services
type memStore struct {
	mu       sync.Mutex
	accounts map[string]*models.Account
	hashes   map[string][]byte
	profiles map[string]*models.Profile
}

func newMemStore() *memStore {
	return &memStore{
		accounts: make(map[string]*models.Account),
		hashes:   make(map[string][]byte),
		profiles: make(map[string]*models.Profile),
	}
}

func (s *memStore) CreateWithProfile(_ context.Context, account *models.Account, hash []byte, profile *models.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.accounts {
		if a.Email == account.Email {
			return repository.ErrDuplicateEmail
		}
	}
	for _, p := range s.profiles {
		if p.Username == profile.Username {
			return repository.ErrDuplicateUsername
		}
	}
	acc, prof := *account, *profile
	s.accounts[account.ID] = &acc
	s.hashes[account.ID] = hash
	s.profiles[profile.ID] = &prof
	return nil
}

func (s *memStore) GetCredentials(_ context.Context, email string) (*models.Account, []byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.accounts {
		if a.Email == email {
			acc := *a
			return &acc, s.hashes[a.ID], nil
		}
	}
	return nil, nil, repository.ErrNotFound
}

func (s *memStore) GetByID(_ context.Context, id string) (*models.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (s *memStore) GetByUsername(_ context.Context, username string) (*models.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.profiles {
		if p.Username == username {
			cp := *p
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *memStore) InsertIfAbsent(_ context.Context, profile *models.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.profiles[profile.ID]; ok {
		return nil
	}
	cp := *profile
	s.profiles[profile.ID] = &cp
	return nil
}

func (s *memStore) UpdatePushToken(_ context.Context, id string, token *string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[id]
	if !ok {
		return repository.ErrNotFound
	}
	p.PushToken = token
	return nil
}

func (s *memStore) deleteProfile(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.profiles, id)
}

// accountStore exposes the account half of memStore, whose GetByID
// would otherwise clash with the profile lookup
type accountStore struct{ *memStore }

func (a accountStore) GetByID(_ context.Context, id string) (*models.Account, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	acc, ok := a.accounts[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *acc
	return &cp, nil
}

// fakeModels is an in-memory ModelService
type fakeModels struct {
	mu        sync.Mutex
	models    map[string]*models.Model
	uploads   []models.ModelInput
	uploaded  []string
	downloads []string
	err       error
}

func newFakeModels() *fakeModels {
	return &fakeModels{models: make(map[string]*models.Model)}
}

func (f *fakeModels) put(m *models.Model) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.models[m.ID] = m
}

func (f *fakeModels) sorted(keep func(*models.Model) bool) []*models.Model {
	list := make([]*models.Model, 0, len(f.models))
	for _, m := range f.models {
		if keep(m) {
			list = append(list, m)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].CreatedAt.After(list[j].CreatedAt) })
	return list
}

func (f *fakeModels) GetModels(_ context.Context, count int) ([]*models.Model, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return f.sorted(func(m *models.Model) bool { return m.IsPublic }), nil
}

func (f *fakeModels) GetModelByID(_ context.Context, id string) (*models.Model, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.models[id]
	if !ok {
		return nil, services.ErrModelNotFound
	}
	return m, nil
}

func (f *fakeModels) GetUserModels(_ context.Context, userID string) ([]*models.Model, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sorted(func(m *models.Model) bool { return m.UserID == userID }), nil
}

func (f *fakeModels) UploadModel(_ context.Context, input models.ModelInput, file, thumbnail *services.FilePayload) (*models.Model, error) {
	if err := services.ValidateModelInput(input); err != nil {
		return nil, err
	}
	if err := services.ValidateModelFile(file); err != nil {
		return nil, err
	}
	if err := services.ValidateThumbnail(thumbnail); err != nil {
		return nil, err
	}
	body, err := io.ReadAll(file.Body)
	if err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	m := &models.Model{
		ID:        "model-" + input.Title,
		Title:     input.Title,
		Category:  services.NormalizeCategory(input.Category),
		Tags:      input.Tags,
		UserID:    input.UserID,
		IsPublic:  input.IsPublic,
		FilePath:  "models/" + file.Name,
		FileSize:  int64(len(body)),
		FileType:  file.ContentType,
		CreatedAt: time.Now(),
	}
	m.ThumbnailPath = "thumbnails/" + thumbnail.Name
	f.models[m.ID] = m
	f.uploads = append(f.uploads, input)
	f.uploaded = append(f.uploaded, string(body))
	return m, nil
}

func (f *fakeModels) RecordDownload(_ context.Context, userID, modelID string) (*models.DownloadTally, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.models[modelID]
	if !ok {
		return nil, services.ErrModelNotFound
	}
	m.DownloadsCount++
	f.downloads = append(f.downloads, userID)
	return &models.DownloadTally{
		ModelID:        m.ID,
		OwnerID:        m.UserID,
		Title:          m.Title,
		FilePath:       m.FilePath,
		DownloadsCount: m.DownloadsCount,
	}, nil
}

type testEnv struct {
	store  *memStore
	models *fakeModels
	auth   *auth.Service
	hub    *services.WSHub
	server *httptest.Server
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	env := &testEnv{
		store:  newMemStore(),
		models: newFakeModels(),
		hub:    services.NewWSHub(),
	}
	env.auth = auth.NewService(accountStore{env.store}, testSecret, time.Hour)
	profiles := services.NewProfileService(env.store)
	factory := session.NewFactory(env.auth, profiles, session.Options{InitTimeout: time.Second})

	r := chi.NewRouter()
	Mount(r, Routes{
		Auth:      NewAuthHandler(factory),
		Profiles:  NewProfileHandler(profiles),
		Models:    NewModelHandler(env.models),
		Sessions:  NewSessionHandler(factory, env.hub),
		Validator: env.auth,
	})
	env.server = httptest.NewServer(r)
	t.Cleanup(env.server.Close)
	return env
}

// signUp registers an account through the service and returns its ID and token
func (e *testEnv) signUp(t *testing.T, email, username string) (string, string) {
	t.Helper()
	creds, err := e.auth.SignUp(context.Background(), email, "secret123", username)
	require.NoError(t, err)
	return creds.Account.ID, creds.Token
}
