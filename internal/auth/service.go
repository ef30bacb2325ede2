// Package auth issues and verifies account credentials.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"modelhub-backend/internal/models"
	"modelhub-backend/internal/repository"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const (
	minPasswordLength = 6
	minUsernameLength = 3
)

var (
	ErrInvalidEmail       = errors.New("Invalid email address")
	ErrWeakPassword       = errors.New("Password must be at least 6 characters")
	ErrShortUsername      = errors.New("Username must be at least 3 characters")
	ErrPasswordMismatch   = errors.New("Passwords do not match")
	ErrEmailInUse         = errors.New("Email already in use")
	ErrUsernameTaken      = errors.New("Username already taken")
	ErrInvalidCredentials = errors.New("Invalid email or password")
	ErrInvalidToken       = errors.New("Invalid or expired session")
)

// AccountStore persists accounts and their credentials
type AccountStore interface {
	CreateWithProfile(ctx context.Context, account *models.Account, passwordHash []byte, profile *models.Profile) error
	GetCredentials(ctx context.Context, email string) (*models.Account, []byte, error)
	GetByID(ctx context.Context, id string) (*models.Account, error)
}

// Credentials is an authenticated account together with its session token
type Credentials struct {
	Account *models.Account
	Token   string
}

// Service handles sign up, sign in and token verification
type Service struct {
	accounts   AccountStore
	jwtSecret  string
	tokenTTL   time.Duration
	bcryptCost int
	now        func() time.Time
}

// NewService creates a new auth service
func NewService(accounts AccountStore, jwtSecret string, tokenTTL time.Duration) *Service {
	return &Service{
		accounts:   accounts,
		jwtSecret:  jwtSecret,
		tokenTTL:   defaultTokenTTL(tokenTTL),
		bcryptCost: bcrypt.DefaultCost,
		now:        time.Now,
	}
}

// NormalizeEmail trims and lowercases an email address
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidateSignup checks signup fields before any backend call.
// An empty confirmation is not compared.
func ValidateSignup(email, password, confirmPassword, username string) error {
	if _, err := mail.ParseAddress(NormalizeEmail(email)); err != nil {
		return ErrInvalidEmail
	}
	if len(password) < minPasswordLength {
		return ErrWeakPassword
	}
	if confirmPassword != "" && confirmPassword != password {
		return ErrPasswordMismatch
	}
	if len([]rune(strings.TrimSpace(username))) < minUsernameLength {
		return ErrShortUsername
	}
	return nil
}

// SignUp creates an account and its profile, then issues a token
func (s *Service) SignUp(ctx context.Context, email, password, username string) (*Credentials, error) {
	if err := ValidateSignup(email, password, "", username); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := s.now().UTC()
	account := &models.Account{
		ID:        uuid.New().String(),
		Email:     NormalizeEmail(email),
		CreatedAt: now,
	}
	username = strings.TrimSpace(username)
	profile := &models.Profile{
		ID:          account.ID,
		Username:    username,
		DisplayName: username,
		CreatedAt:   now,
	}

	if err := s.accounts.CreateWithProfile(ctx, account, hash, profile); err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicateEmail):
			return nil, ErrEmailInUse
		case errors.Is(err, repository.ErrDuplicateUsername):
			return nil, ErrUsernameTaken
		}
		return nil, fmt.Errorf("failed to create account: %w", err)
	}

	return s.issue(account)
}

// SignIn verifies an email and password and issues a token
func (s *Service) SignIn(ctx context.Context, email, password string) (*Credentials, error) {
	account, hash, err := s.accounts.GetCredentials(ctx, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to get credentials: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword(hash, []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return s.issue(account)
}

// Authenticate resolves a token to its account
func (s *Service) Authenticate(ctx context.Context, token string) (*models.Account, error) {
	accountID, err := s.ValidateJWT(token)
	if err != nil {
		return nil, err
	}

	account, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	return account, nil
}

func (s *Service) issue(account *models.Account) (*Credentials, error) {
	token, err := s.GenerateJWT(account.ID)
	if err != nil {
		return nil, err
	}
	return &Credentials{Account: account, Token: token}, nil
}
