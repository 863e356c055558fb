package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/andibalo/ujournal-sub000/internal/auth"
	"github.com/andibalo/ujournal-sub000/internal/models"
	"github.com/andibalo/ujournal-sub000/internal/store"
)

// UserSessionCache holds the current authenticated user's profile and the
// companion authentication state, coordinating reads and writes between the
// authentication gateway and the remote store. Both state flows start in
// Loading and can return to Loading on the next operation.
type UserSessionCache struct {
	store   store.DocumentStore
	gateway auth.Gateway

	mu      sync.RWMutex
	token   string
	current *models.User

	userState UserState
	authState AuthState

	userSubMu sync.RWMutex
	userSubs  map[int]chan UserState
	authSubs  map[int]chan AuthState
	nextSub   int
}

func NewUserSessionCache(st store.DocumentStore, gw auth.Gateway) *UserSessionCache {
	return &UserSessionCache{
		store:     st,
		gateway:   gw,
		userState: UserState{Status: StatusLoading},
		authState: AuthState{Status: AuthLoading},
		userSubs:  make(map[int]chan UserState),
		authSubs:  make(map[int]chan AuthState),
	}
}

// UserState returns the current profile state flow value.
func (c *UserSessionCache) UserState() UserState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.userState
}

// AuthState returns the current authentication state flow value.
func (c *UserSessionCache) AuthState() AuthState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.authState
}

// CurrentUser returns a copy of the cached current user, if one is loaded.
func (c *UserSessionCache) CurrentUser() (models.User, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.current == nil {
		return models.User{}, false
	}
	return *c.current, true
}

// Token returns the active session token, empty when signed out.
func (c *UserSessionCache) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// Login validates the input, signs in through the gateway and binds the
// session. Blank email or password fails before the gateway is contacted.
func (c *UserSessionCache) Login(ctx context.Context, email, password string) error {
	return c.signIn(ctx, email, password, c.gateway.Login)
}

// Register validates the input and creates the account through the gateway.
func (c *UserSessionCache) Register(ctx context.Context, email, password string) error {
	return c.signIn(ctx, email, password, c.gateway.Register)
}

func (c *UserSessionCache) signIn(ctx context.Context, email, password string, op func(context.Context, string, string) (auth.Session, error)) error {
	if email == "" || password == "" {
		c.setAuthState(AuthState{Status: AuthError, Message: ErrValidation.Error()})
		return ErrValidation
	}

	c.setAuthState(AuthState{Status: AuthLoading})

	sess, err := op(ctx, email, password)
	if err != nil {
		c.setAuthState(AuthState{Status: AuthError, Message: err.Error()})
		return err
	}

	c.bindSession(sess)
	return nil
}

// LoginWithCredential signs in with an external identity credential.
func (c *UserSessionCache) LoginWithCredential(ctx context.Context, cred auth.Credential) error {
	c.setAuthState(AuthState{Status: AuthLoading})

	sess, err := c.gateway.LoginWithCredential(ctx, cred)
	if err != nil {
		c.setAuthState(AuthState{Status: AuthError, Message: err.Error()})
		return err
	}

	c.bindSession(sess)
	return nil
}

// Resume binds an existing session token, e.g. when the app restarts with a
// stored token. Returns ErrUnauthenticated when the token no longer resolves.
func (c *UserSessionCache) Resume(ctx context.Context, token string) error {
	sess, err := c.gateway.CurrentSession(ctx, token)
	if err != nil {
		if errors.Is(err, auth.ErrUnauthenticated) {
			c.setAuthState(AuthState{Status: AuthUnauthenticated})
		} else {
			c.setAuthState(AuthState{Status: AuthError, Message: err.Error()})
		}
		return err
	}

	c.bindSession(sess)
	return nil
}

func (c *UserSessionCache) bindSession(sess auth.Session) {
	c.mu.Lock()
	c.token = sess.Token
	c.mu.Unlock()
	c.setAuthState(AuthState{Status: AuthAuthenticated})
}

// LoadCurrentUser fetches and decodes the profile document for the active
// session. Requires an active session (ErrUnauthenticated), an existing
// document (store.ErrNotFound) and a well-shaped one (ErrDecode).
func (c *UserSessionCache) LoadCurrentUser(ctx context.Context) (models.User, error) {
	c.setUserState(UserState{Status: StatusLoading})

	sess, err := c.gateway.CurrentSession(ctx, c.Token())
	if err != nil {
		if errors.Is(err, auth.ErrUnauthenticated) {
			c.setAuthState(AuthState{Status: AuthUnauthenticated})
		}
		c.setUserState(UserState{Status: StatusError, Message: err.Error()})
		return models.User{}, err
	}

	doc, err := c.store.Get(ctx, store.CollectionUsers, sess.UserID)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			err = fmt.Errorf("fetch user %s: %w", sess.UserID, err)
		}
		c.setUserState(UserState{Status: StatusError, Message: err.Error()})
		return models.User{}, err
	}

	user, err := userFromDocument(sess.UserID, doc)
	if err != nil {
		c.setUserState(UserState{Status: StatusError, Message: err.Error()})
		return models.User{}, err
	}

	c.mu.Lock()
	u := user
	c.current = &u
	c.mu.Unlock()
	c.setUserState(UserState{Status: StatusSuccess, User: &u})

	return user, nil
}

// SaveUser writes the full user record, overwriting the durable copy. The
// cached current user advances only when the remote write succeeds; on
// failure the state flow carries the error and the previous current user
// stays as it was before the call.
func (c *UserSessionCache) SaveUser(user models.User) <-chan error {
	done := make(chan error, 1)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		defer cancel()

		if err := c.store.Set(ctx, store.CollectionUsers, user.ID, userFields(user)); err != nil {
			c.setUserState(UserState{Status: StatusError, Message: err.Error()})
			done <- fmt.Errorf("save user: %w", err)
			return
		}

		c.mu.Lock()
		u := user
		c.current = &u
		c.mu.Unlock()
		c.setUserState(UserState{Status: StatusSuccess, User: &u})
		done <- nil
	}()
	return done
}

// UpdateProfileImage pushes a partial update of just the image field. On
// success only profileImageURL is merged into the cached user, without a
// refetch; on failure the cached user is untouched.
func (c *UserSessionCache) UpdateProfileImage(userID, imageURI string) <-chan error {
	done := make(chan error, 1)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		defer cancel()

		fields := store.Document{"profileImageURL": imageURI}
		if err := c.store.Update(ctx, store.CollectionUsers, userID, fields); err != nil {
			c.setUserState(UserState{Status: StatusError, Message: err.Error()})
			done <- fmt.Errorf("update profile image: %w", err)
			return
		}

		c.mu.Lock()
		var merged *models.User
		if c.current != nil && c.current.ID == userID {
			c.current.ProfileImageURL = imageURI
			u := *c.current
			merged = &u
		}
		c.mu.Unlock()

		if merged != nil {
			c.setUserState(UserState{Status: StatusSuccess, User: merged})
		}
		done <- nil
	}()
	return done
}

// Logout clears the in-memory user and signs out through the gateway. The
// durable record is untouched.
func (c *UserSessionCache) Logout(ctx context.Context) error {
	c.mu.Lock()
	token := c.token
	c.token = ""
	c.current = nil
	c.mu.Unlock()

	c.setUserState(UserState{Status: StatusLoading})
	c.setAuthState(AuthState{Status: AuthUnauthenticated})

	if token == "" {
		return nil
	}
	return c.gateway.Logout(ctx, token)
}

// WatchUser subscribes to the profile state flow.
func (c *UserSessionCache) WatchUser() (<-chan UserState, func()) {
	ch := make(chan UserState, 16)

	c.userSubMu.Lock()
	id := c.nextSub
	c.nextSub++
	c.userSubs[id] = ch
	c.userSubMu.Unlock()

	return ch, func() {
		c.userSubMu.Lock()
		defer c.userSubMu.Unlock()
		if _, ok := c.userSubs[id]; ok {
			delete(c.userSubs, id)
			close(ch)
		}
	}
}

// WatchAuth subscribes to the authentication state flow.
func (c *UserSessionCache) WatchAuth() (<-chan AuthState, func()) {
	ch := make(chan AuthState, 16)

	c.userSubMu.Lock()
	id := c.nextSub
	c.nextSub++
	c.authSubs[id] = ch
	c.userSubMu.Unlock()

	return ch, func() {
		c.userSubMu.Lock()
		defer c.userSubMu.Unlock()
		if _, ok := c.authSubs[id]; ok {
			delete(c.authSubs, id)
			close(ch)
		}
	}
}

func (c *UserSessionCache) setUserState(s UserState) {
	c.mu.Lock()
	c.userState = s
	c.mu.Unlock()

	c.userSubMu.RLock()
	defer c.userSubMu.RUnlock()
	for _, ch := range c.userSubs {
		select {
		case ch <- s:
		default:
		}
	}
}

func (c *UserSessionCache) setAuthState(s AuthState) {
	c.mu.Lock()
	c.authState = s
	c.mu.Unlock()

	c.userSubMu.RLock()
	defer c.userSubMu.RUnlock()
	for _, ch := range c.authSubs {
		select {
		case ch <- s:
		default:
		}
	}
}
