package cache

import (
	"context"
	"log"
	"sync"

	"github.com/andibalo/ujournal-sub000/internal/auth"
	"github.com/andibalo/ujournal-sub000/internal/store"
)

// Session bundles one user's caches. Sessions are constructed at sign-in
// (or when an existing token resumes) and torn down at logout; nothing is
// shared between users.
type Session struct {
	UserID  string
	Entries *EntryCache
	User    *UserSessionCache
}

// Registry owns the per-user cache sessions.
type Registry struct {
	store   store.DocumentStore
	gateway auth.Gateway
	policy  WritePolicy

	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewRegistry(st store.DocumentStore, gw auth.Gateway, policy WritePolicy) *Registry {
	return &Registry{
		store:    st,
		gateway:  gw,
		policy:   policy,
		sessions: make(map[string]*Session),
	}
}

// Login signs in through the user cache and starts the session's caches.
func (r *Registry) Login(ctx context.Context, email, password string) (*Session, error) {
	uc := NewUserSessionCache(r.store, r.gateway)
	if err := uc.Login(ctx, email, password); err != nil {
		return nil, err
	}
	return r.start(ctx, uc)
}

// Register creates the account and starts the session's caches.
func (r *Registry) Register(ctx context.Context, email, password string) (*Session, error) {
	uc := NewUserSessionCache(r.store, r.gateway)
	if err := uc.Register(ctx, email, password); err != nil {
		return nil, err
	}
	return r.start(ctx, uc)
}

// LoginWithCredential signs in with an external identity credential.
func (r *Registry) LoginWithCredential(ctx context.Context, cred auth.Credential) (*Session, error) {
	uc := NewUserSessionCache(r.store, r.gateway)
	if err := uc.LoginWithCredential(ctx, cred); err != nil {
		return nil, err
	}
	return r.start(ctx, uc)
}

// Attach resolves a session token to its cache session, resuming one when
// the token is valid but no caches exist yet (e.g. after a restart).
func (r *Registry) Attach(ctx context.Context, token string) (*Session, error) {
	sess, err := r.gateway.CurrentSession(ctx, token)
	if err != nil {
		return nil, err
	}

	r.mu.RLock()
	existing, ok := r.sessions[sess.UserID]
	r.mu.RUnlock()
	if ok {
		return existing, nil
	}

	uc := NewUserSessionCache(r.store, r.gateway)
	if err := uc.Resume(ctx, token); err != nil {
		return nil, err
	}
	return r.start(ctx, uc)
}

// Logout tears down the session's caches and invalidates the token.
func (r *Registry) Logout(ctx context.Context, token string) error {
	sess, err := r.gateway.CurrentSession(ctx, token)
	if err != nil {
		return err
	}

	r.mu.Lock()
	cs, ok := r.sessions[sess.UserID]
	delete(r.sessions, sess.UserID)
	r.mu.Unlock()

	if !ok {
		return r.gateway.Logout(ctx, token)
	}
	return cs.User.Logout(ctx)
}

// Get returns a user's cache session, if one is active.
func (r *Registry) Get(userID string) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[userID]
	return s, ok
}

func (r *Registry) start(ctx context.Context, uc *UserSessionCache) (*Session, error) {
	sess, err := r.gateway.CurrentSession(ctx, uc.Token())
	if err != nil {
		return nil, err
	}

	entries := NewEntryCache(r.store, sess.UserID, r.policy)
	if err := entries.Refresh(ctx); err != nil {
		// Start with an empty collection; the client can refresh later
		log.Printf("Warning: initial entry refresh for user %s failed: %v", sess.UserID, err)
	}

	cs := &Session{UserID: sess.UserID, Entries: entries, User: uc}

	r.mu.Lock()
	// Concurrent first requests for the same token can both miss the read-lock
	// check in Attach; whoever registered first wins and the loser's caches
	// are discarded. A fresh sign-in carries a new token and still replaces.
	if existing, ok := r.sessions[sess.UserID]; ok && existing.User.Token() == uc.Token() {
		r.mu.Unlock()
		return existing, nil
	}
	r.sessions[sess.UserID] = cs
	r.mu.Unlock()

	return cs, nil
}
