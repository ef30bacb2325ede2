package repository

import (
	"context"
	"errors"
	"fmt"

	"modelhub-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// AccountRepository handles database operations for accounts
type AccountRepository struct {
	db *pgxpool.Pool
}

// NewAccountRepository creates a new account repository
func NewAccountRepository(db *pgxpool.Pool) *AccountRepository {
	return &AccountRepository{db: db}
}

// CreateWithProfile inserts an account and its profile in one transaction
func (r *AccountRepository) CreateWithProfile(ctx context.Context, account *models.Account, passwordHash []byte, profile *models.Profile) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO accounts (id, email, password_hash, created_at)
		VALUES ($1, $2, $3, $4)
	`, account.ID, account.Email, passwordHash, account.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create account: %w", translateWriteError(err))
	}

	_, err = tx.Exec(ctx, insertProfileQuery,
		profile.ID, profile.Username, profile.DisplayName, profile.AvatarURL,
		profile.Bio, profile.SocialLinks, profile.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create profile: %w", translateWriteError(err))
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit account: %w", err)
	}
	return nil
}

// GetCredentials retrieves an account and its password hash by email
func (r *AccountRepository) GetCredentials(ctx context.Context, email string) (*models.Account, []byte, error) {
	query := `
		SELECT id, email, password_hash, created_at
		FROM accounts
		WHERE email = $1
	`
	var account models.Account
	var hash []byte
	err := r.db.QueryRow(ctx, query, email).Scan(&account.ID, &account.Email, &hash, &account.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, ErrNotFound
		}
		return nil, nil, fmt.Errorf("failed to get account by email: %w", err)
	}
	return &account, hash, nil
}

// GetByID retrieves an account by ID
func (r *AccountRepository) GetByID(ctx context.Context, id string) (*models.Account, error) {
	query := `
		SELECT id, email, created_at
		FROM accounts
		WHERE id = $1
	`
	var account models.Account
	err := r.db.QueryRow(ctx, query, id).Scan(&account.ID, &account.Email, &account.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	return &account, nil
}
