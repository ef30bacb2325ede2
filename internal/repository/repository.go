package repository

import (
	"errors"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrNotFound is returned when a point lookup matches no row
	ErrNotFound = errors.New("not found")
	// ErrDuplicateEmail is returned when an account email is already registered
	ErrDuplicateEmail = errors.New("duplicate email")
	// ErrDuplicateUsername is returned when a profile username is already taken
	ErrDuplicateUsername = errors.New("duplicate username")
)

const (
	accountsEmailKey    = "accounts_email_key"
	profilesUsernameKey = "profiles_username_key"
)

// uniqueViolation reports the constraint name of a unique violation, if err is one
func uniqueViolation(err error) (string, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
		return pgErr.ConstraintName, true
	}
	return "", false
}

// translateWriteError maps unique violations to the package sentinels
func translateWriteError(err error) error {
	constraint, ok := uniqueViolation(err)
	if !ok {
		return err
	}
	switch constraint {
	case accountsEmailKey:
		return ErrDuplicateEmail
	case profilesUsernameKey:
		return ErrDuplicateUsername
	default:
		return err
	}
}
