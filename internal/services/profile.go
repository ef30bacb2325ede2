package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"modelhub-backend/internal/models"
	"modelhub-backend/internal/repository"
)

const (
	fallbackUsername  = "user"
	minUsernameLength = 3
)

// ProfileRepository is the profile storage used by ProfileService
type ProfileRepository interface {
	GetByID(ctx context.Context, id string) (*models.Profile, error)
	GetByUsername(ctx context.Context, username string) (*models.Profile, error)
	InsertIfAbsent(ctx context.Context, profile *models.Profile) error
	UpdatePushToken(ctx context.Context, id string, pushToken *string) error
}

// ProfileService handles profile lookups and creation
type ProfileService struct {
	repo ProfileRepository
	now  func() time.Time
}

// NewProfileService creates a new profile service
func NewProfileService(repo ProfileRepository) *ProfileService {
	return &ProfileService{repo: repo, now: time.Now}
}

// DefaultUsername derives a username from the local part of an email.
// Local parts shorter than a valid username fall back to "user".
func DefaultUsername(email string) string {
	local, _, _ := strings.Cut(strings.TrimSpace(email), "@")
	if len([]rune(local)) < minUsernameLength {
		return fallbackUsername
	}
	return local
}

// GetProfile retrieves the profile of an account
func (s *ProfileService) GetProfile(ctx context.Context, id string) (*models.Profile, error) {
	profile, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, err
	}
	return profile, nil
}

// GetProfileByUsername retrieves a profile by exact username
func (s *ProfileService) GetProfileByUsername(ctx context.Context, username string) (*models.Profile, error) {
	if username == "" {
		return nil, ErrProfileNotFound
	}
	profile, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, err
	}
	return profile, nil
}

// EnsureProfile returns the profile of an account, creating a default
// one with username if none exists. Concurrent callers end up with the
// same single profile.
func (s *ProfileService) EnsureProfile(ctx context.Context, id, username string) (*models.Profile, error) {
	profile, err := s.GetProfile(ctx, id)
	if err == nil {
		return profile, nil
	}
	if !errors.Is(err, ErrProfileNotFound) {
		return nil, err
	}

	candidate := &models.Profile{
		ID:          id,
		Username:    username,
		DisplayName: username,
		CreatedAt:   s.now().UTC(),
	}
	if err := s.repo.InsertIfAbsent(ctx, candidate); err != nil {
		if errors.Is(err, repository.ErrDuplicateUsername) {
			// a concurrent insert for the same account can clash on username first
			if existing, getErr := s.GetProfile(ctx, id); getErr == nil {
				return existing, nil
			}
			return nil, ErrUsernameTaken
		}
		return nil, fmt.Errorf("failed to create profile: %w", err)
	}

	return s.GetProfile(ctx, id)
}

// UpdatePushToken registers or clears the APNs device token of a profile
func (s *ProfileService) UpdatePushToken(ctx context.Context, id, token string) error {
	var pushToken *string
	if token = strings.TrimSpace(token); token != "" {
		pushToken = &token
	}
	if err := s.repo.UpdatePushToken(ctx, id, pushToken); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrProfileNotFound
		}
		return err
	}
	return nil
}
