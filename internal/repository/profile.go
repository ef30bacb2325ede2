package repository

import (
	"context"
	"errors"
	"fmt"

	"modelhub-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const profileColumns = `id, username, display_name, avatar_url, bio, social_links, push_token, created_at`

const insertProfileQuery = `
	INSERT INTO profiles (id, username, display_name, avatar_url, bio, social_links, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7)
`

// ProfileRepository handles database operations for profiles
type ProfileRepository struct {
	db *pgxpool.Pool
}

// NewProfileRepository creates a new profile repository
func NewProfileRepository(db *pgxpool.Pool) *ProfileRepository {
	return &ProfileRepository{db: db}
}

// GetByID retrieves a profile by account ID
func (r *ProfileRepository) GetByID(ctx context.Context, id string) (*models.Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM profiles WHERE id = $1`
	profile, err := scanProfile(r.db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	return profile, nil
}

// GetByUsername retrieves a profile by exact username
func (r *ProfileRepository) GetByUsername(ctx context.Context, username string) (*models.Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM profiles WHERE username = $1 LIMIT 1`
	profile, err := scanProfile(r.db.QueryRow(ctx, query, username))
	if err != nil {
		return nil, fmt.Errorf("failed to get profile by username: %w", err)
	}
	return profile, nil
}

// InsertIfAbsent creates the profile unless one already exists for the account
func (r *ProfileRepository) InsertIfAbsent(ctx context.Context, profile *models.Profile) error {
	_, err := r.db.Exec(ctx, insertProfileQuery+` ON CONFLICT (id) DO NOTHING`,
		profile.ID, profile.Username, profile.DisplayName, profile.AvatarURL,
		profile.Bio, profile.SocialLinks, profile.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert profile: %w", translateWriteError(err))
	}
	return nil
}

// UpdatePushToken updates the push token for a profile
func (r *ProfileRepository) UpdatePushToken(ctx context.Context, id string, pushToken *string) error {
	result, err := r.db.Exec(ctx, `UPDATE profiles SET push_token = $1 WHERE id = $2`, pushToken, id)
	if err != nil {
		return fmt.Errorf("failed to update push token: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanProfile(row pgx.Row) (*models.Profile, error) {
	var p models.Profile
	err := row.Scan(
		&p.ID, &p.Username, &p.DisplayName, &p.AvatarURL,
		&p.Bio, &p.SocialLinks, &p.PushToken, &p.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}
