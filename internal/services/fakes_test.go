package services

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sort"
	"strings"
	"sync"

	"modelhub-backend/internal/models"
	"modelhub-backend/internal/repository"
)

type fakeProfileRepo struct {
	mu       sync.Mutex
	profiles map[string]*models.Profile
	inserts  int
	getErr   error
	// lostRace stores the profile but reports a username clash, as
	// Postgres does when a concurrent twin insert wins on that index
	lostRace bool
}

func newFakeProfileRepo() *fakeProfileRepo {
	return &fakeProfileRepo{profiles: make(map[string]*models.Profile)}
}

func (f *fakeProfileRepo) GetByID(_ context.Context, id string) (*models.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	p, ok := f.profiles[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakeProfileRepo) GetByUsername(_ context.Context, username string) (*models.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.profiles {
		if p.Username == username {
			cp := *p
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeProfileRepo) InsertIfAbsent(_ context.Context, profile *models.Profile) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.profiles[profile.ID]; ok {
		return nil
	}
	if f.lostRace {
		cp := *profile
		f.profiles[profile.ID] = &cp
		return repository.ErrDuplicateUsername
	}
	for _, p := range f.profiles {
		if p.Username == profile.Username {
			return repository.ErrDuplicateUsername
		}
	}
	cp := *profile
	f.profiles[profile.ID] = &cp
	f.inserts++
	return nil
}

func (f *fakeProfileRepo) UpdatePushToken(_ context.Context, id string, token *string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.profiles[id]
	if !ok {
		return repository.ErrNotFound
	}
	p.PushToken = token
	return nil
}

// fakeStore backs both the model and download repositories
type fakeStore struct {
	mu        sync.Mutex
	models    map[string]*models.Model
	downloads []*models.DownloadEvent
	createErr error
	listErr   error
}

func newFakeStore() *fakeStore {
	return &fakeStore{models: make(map[string]*models.Model)}
}

func (f *fakeStore) Create(_ context.Context, m *models.Model) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	cp := *m
	f.models[m.ID] = &cp
	return nil
}

func (f *fakeStore) GetByID(_ context.Context, id string) (*models.Model, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.models[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *m
	return &cp, nil
}

func (f *fakeStore) ListRecent(_ context.Context, limit int) ([]*models.Model, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	all := f.sorted(func(*models.Model) bool { return true })
	if len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

func (f *fakeStore) ListByUser(_ context.Context, userID string) ([]*models.Model, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.sorted(func(m *models.Model) bool { return m.UserID == userID }), nil
}

func (f *fakeStore) sorted(keep func(*models.Model) bool) []*models.Model {
	result := make([]*models.Model, 0)
	for _, m := range f.models {
		if keep(m) {
			cp := *m
			result = append(result, &cp)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result
}

func (f *fakeStore) Record(_ context.Context, event *models.DownloadEvent) (*models.DownloadTally, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.models[event.ModelID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	f.downloads = append(f.downloads, event)
	m.DownloadsCount++
	return &models.DownloadTally{
		ModelID:        m.ID,
		OwnerID:        m.UserID,
		Title:          m.Title,
		FilePath:       m.FilePath,
		DownloadsCount: m.DownloadsCount,
	}, nil
}

type fakeBlobStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string
	failOn  string
	deleted []string
}

func newFakeBlobStore() *fakeBlobStore {
	return &fakeBlobStore{
		objects: make(map[string][]byte),
		types:   make(map[string]string),
	}
}

func (f *fakeBlobStore) Put(_ context.Context, key, contentType string, body io.Reader, _ int64) (string, error) {
	if f.failOn != "" && strings.HasPrefix(key, f.failOn) {
		return "", errors.New("bucket unavailable")
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[key] = data
	f.types[key] = contentType
	return "https://blobs.test/" + key, nil
}

func (f *fakeBlobStore) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, key)
	f.deleted = append(f.deleted, key)
	return nil
}

type notification struct {
	tally        models.DownloadTally
	downloaderID string
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []notification
}

func (f *fakeNotifier) NotifyModelDownloaded(_ context.Context, tally *models.DownloadTally, downloaderID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, notification{tally: *tally, downloaderID: downloaderID})
}

func payload(name, contentType string, size int) *FilePayload {
	return &FilePayload{
		Name:        name,
		ContentType: contentType,
		Size:        int64(size),
		Body:        bytes.NewReader(make([]byte, size)),
	}
}
