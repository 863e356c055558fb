// Package cache holds the client-facing synchronization core: per-user
// in-memory caches of journal entries and the current profile, mutated
// optimistically and reconciled asynchronously with the remote document
// store. UI collaborators read cache state and subscribe to change events;
// they never mutate the collections directly.
package cache

import (
	"errors"

	"github.com/andibalo/ujournal-sub000/internal/models"
)

var (
	// ErrNotFound is returned when an entry id is absent from the cache.
	ErrNotFound = errors.New("entry not found")
	// ErrDecode is returned when a remote document is missing required
	// fields or a field has the wrong shape.
	ErrDecode = errors.New("malformed document")
	// ErrValidation is raised for blank sign-in input before the
	// authentication gateway is ever contacted.
	ErrValidation = errors.New("Email or password can't be empty")
)

// Status is the shared Loading -> Success | Error state machine for the
// cache state flows. Terminal states transition back to Loading on the
// next operation.
type Status int

const (
	StatusLoading Status = iota
	StatusSuccess
	StatusError
)

// UserState is the observable state of the current-user profile flow.
type UserState struct {
	Status  Status
	User    *models.User
	Message string
}

// AuthStatus tracks the companion authentication-state flow.
type AuthStatus int

const (
	AuthLoading AuthStatus = iota
	AuthAuthenticated
	AuthUnauthenticated
	AuthError
)

// AuthState is the observable authentication state.
type AuthState struct {
	Status  AuthStatus
	Message string
}
