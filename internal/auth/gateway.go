// Package auth is the gateway to the identity provider: sign-in, sign-up,
// sign-out and current-session lookup. Consumers depend on the Gateway
// interface; the concrete Service keeps credential records in the document
// store and session tokens in Redis.
package auth

import (
	"context"
	"errors"
)

var (
	// ErrUnauthenticated is returned when no active session exists.
	ErrUnauthenticated = errors.New("no active session")
	// ErrInvalidCredentials covers unknown emails and wrong passwords alike.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrEmailTaken is returned when registering an email that already has an account.
	ErrEmailTaken = errors.New("an account with this email already exists")
	// ErrCredentialType is returned when an external credential's declared
	// provider type does not match the expected identity-token type.
	ErrCredentialType = errors.New("unsupported credential type")
)

// Session identifies an authenticated account.
type Session struct {
	UserID string
	Token  string
}

// Credential is an external-identity sign-in credential (e.g. a Google ID
// token). Provider declares the credential's type.
type Credential struct {
	Provider string
	IDToken  string
}

// Gateway is the boundary contract consumed by the session cache and handlers.
type Gateway interface {
	Login(ctx context.Context, email, password string) (Session, error)
	Register(ctx context.Context, email, password string) (Session, error)
	LoginWithCredential(ctx context.Context, cred Credential) (Session, error)
	Logout(ctx context.Context, token string) error
	// CurrentSession resolves a session token, returning ErrUnauthenticated
	// when the token is absent, expired or unknown.
	CurrentSession(ctx context.Context, token string) (Session, error)
}
