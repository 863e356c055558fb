package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/andibalo/ujournal-sub000/internal/store"
	"github.com/andibalo/ujournal-sub000/pkg/utils"
)

// CredentialVerifier validates an external identity token and returns the
// account email it asserts. The identity protocol itself lives behind this
// hook; the service only enforces the declared provider type.
type CredentialVerifier func(ctx context.Context, idToken string) (email string, err error)

// Service implements Gateway. Credential records (argon2id hashes) live in
// the document store; session tokens live in the SessionStore.
type Service struct {
	store    store.DocumentStore
	sessions SessionStore
	// expectedProvider is the only credential type LoginWithCredential accepts.
	expectedProvider string
	verifier         CredentialVerifier
	now              func() time.Time
}

func NewService(st store.DocumentStore, sessions SessionStore, expectedProvider string) *Service {
	return &Service{
		store:            st,
		sessions:         sessions,
		expectedProvider: expectedProvider,
		now:              time.Now,
	}
}

// SetCredentialVerifier installs the external-identity token verifier.
// Without one, LoginWithCredential fails for every credential.
func (s *Service) SetCredentialVerifier(v CredentialVerifier) {
	s.verifier = v
}

func (s *Service) Register(ctx context.Context, email, password string) (Session, error) {
	if email == "" || password == "" {
		return Session{}, ErrInvalidCredentials
	}

	existing, err := s.store.List(ctx, store.CollectionCredentials, store.Document{"email": email})
	if err != nil {
		return Session{}, fmt.Errorf("check existing account: %w", err)
	}
	if len(existing) > 0 {
		return Session{}, ErrEmailTaken
	}

	hash, err := utils.HashPassword(password)
	if err != nil {
		return Session{}, fmt.Errorf("hash password: %w", err)
	}

	userID := uuid.NewString()
	record := store.Document{
		"email":        email,
		"passwordHash": hash,
		"provider":     "password",
		"createdAt":    s.now(),
	}
	if err := s.store.Set(ctx, store.CollectionCredentials, userID, record); err != nil {
		return Session{}, fmt.Errorf("create account: %w", err)
	}

	token, err := s.sessions.Create(ctx, userID)
	if err != nil {
		return Session{}, fmt.Errorf("create session: %w", err)
	}

	return Session{UserID: userID, Token: token}, nil
}

func (s *Service) Login(ctx context.Context, email, password string) (Session, error) {
	if email == "" || password == "" {
		return Session{}, ErrInvalidCredentials
	}

	records, err := s.store.List(ctx, store.CollectionCredentials, store.Document{"email": email})
	if err != nil {
		return Session{}, fmt.Errorf("look up account: %w", err)
	}
	if len(records) == 0 {
		return Session{}, ErrInvalidCredentials
	}

	record := records[0]
	userID, ok := store.StringField(record, "_id")
	if !ok {
		return Session{}, fmt.Errorf("credential record for %s has no id", email)
	}

	hash, _ := store.StringField(record, "passwordHash")
	match, err := utils.VerifyPassword(password, hash)
	if err != nil || !match {
		return Session{}, ErrInvalidCredentials
	}

	token, err := s.sessions.Create(ctx, userID)
	if err != nil {
		return Session{}, fmt.Errorf("create session: %w", err)
	}

	return Session{UserID: userID, Token: token}, nil
}

func (s *Service) LoginWithCredential(ctx context.Context, cred Credential) (Session, error) {
	if cred.Provider != s.expectedProvider {
		return Session{}, fmt.Errorf("%w: got %q, want %q", ErrCredentialType, cred.Provider, s.expectedProvider)
	}
	if s.verifier == nil {
		return Session{}, fmt.Errorf("credential verifier not configured")
	}

	email, err := s.verifier(ctx, cred.IDToken)
	if err != nil {
		return Session{}, fmt.Errorf("verify credential: %w", err)
	}

	records, err := s.store.List(ctx, store.CollectionCredentials, store.Document{"email": email})
	if err != nil {
		return Session{}, fmt.Errorf("look up account: %w", err)
	}

	var userID string
	if len(records) > 0 {
		userID, _ = store.StringField(records[0], "_id")
	} else {
		// First sign-in with this identity: mint the account record
		userID = uuid.NewString()
		record := store.Document{
			"email":     email,
			"provider":  cred.Provider,
			"createdAt": s.now(),
		}
		if err := s.store.Set(ctx, store.CollectionCredentials, userID, record); err != nil {
			return Session{}, fmt.Errorf("create account: %w", err)
		}
	}

	token, err := s.sessions.Create(ctx, userID)
	if err != nil {
		return Session{}, fmt.Errorf("create session: %w", err)
	}

	return Session{UserID: userID, Token: token}, nil
}

func (s *Service) Logout(ctx context.Context, token string) error {
	return s.sessions.Invalidate(ctx, token)
}

func (s *Service) CurrentSession(ctx context.Context, token string) (Session, error) {
	userID, ok, err := s.sessions.Validate(ctx, token)
	if err != nil {
		return Session{}, err
	}
	if !ok {
		return Session{}, ErrUnauthenticated
	}
	return Session{UserID: userID, Token: token}, nil
}
