package session

import (
	"context"

	"modelhub-backend/internal/models"
	"modelhub-backend/internal/services"
)

// ResolutionKind says how a profile was obtained for an account
type ResolutionKind int

const (
	ProfileFound ResolutionKind = iota
	ProfileCreatedFallback
	ProfileFailed
)

func (k ResolutionKind) String() string {
	switch k {
	case ProfileFound:
		return "found"
	case ProfileCreatedFallback:
		return "created_fallback"
	default:
		return "failed"
	}
}

// ProfileResolution is the outcome of ResolveProfile
type ProfileResolution struct {
	Kind    ResolutionKind
	Profile *models.Profile
	// FetchErr is the error of the initial lookup, if any
	FetchErr error
	Err      error
}

// ProfileStore is the profile surface the session manager needs
type ProfileStore interface {
	GetProfile(ctx context.Context, id string) (*models.Profile, error)
	EnsureProfile(ctx context.Context, id, username string) (*models.Profile, error)
}

// ResolveProfile fetches the profile of account. When the fetch misses or
// fails it makes exactly one attempt to create a default profile.
func ResolveProfile(ctx context.Context, store ProfileStore, account *models.Account) ProfileResolution {
	profile, err := store.GetProfile(ctx, account.ID)
	if err == nil && profile != nil {
		return ProfileResolution{Kind: ProfileFound, Profile: profile}
	}

	created, createErr := store.EnsureProfile(ctx, account.ID, services.DefaultUsername(account.Email))
	if createErr != nil {
		return ProfileResolution{Kind: ProfileFailed, FetchErr: err, Err: createErr}
	}
	return ProfileResolution{Kind: ProfileCreatedFallback, Profile: created, FetchErr: err}
}
