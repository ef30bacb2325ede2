// Package session tracks the signed-in account and profile of one client session.
package session

import "modelhub-backend/internal/models"

// State is a session manager state
type State string

const (
	StateInitializing                State = "initializing"
	StateAccountKnown                State = "account_known"
	StateAuthenticatedWithProfile    State = "authenticated_with_profile"
	StateAuthenticatedWithoutProfile State = "authenticated_without_profile"
	StateUnauthenticated             State = "unauthenticated"
)

// Authenticated reports whether the state has a signed-in account
func (s State) Authenticated() bool {
	switch s {
	case StateAccountKnown, StateAuthenticatedWithProfile, StateAuthenticatedWithoutProfile:
		return true
	}
	return false
}

// Snapshot is a copy of the session state
type Snapshot struct {
	State   State           `json:"state"`
	Account *models.Account `json:"account"`
	Profile *models.Profile `json:"profile"`
	Loading bool            `json:"loading"`
}

// Result is the outcome of a session operation
type Result struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Profile *models.Profile `json:"profile,omitempty"`

	err error
}

// Err returns the error behind a failed result
func (r Result) Err() error {
	return r.err
}

func succeeded(profile *models.Profile) Result {
	return Result{Success: true, Profile: profile}
}

func failed(err error) Result {
	return Result{Success: false, Error: err.Error(), err: err}
}
