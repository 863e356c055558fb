package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andibalo/ujournal-sub000/internal/auth"
	"github.com/andibalo/ujournal-sub000/internal/models"
	"github.com/andibalo/ujournal-sub000/internal/store"
)

type mockGateway struct {
	loginCalls     int
	login          func(ctx context.Context, email, password string) (auth.Session, error)
	register       func(ctx context.Context, email, password string) (auth.Session, error)
	loginCred      func(ctx context.Context, cred auth.Credential) (auth.Session, error)
	logout         func(ctx context.Context, token string) error
	currentSession func(ctx context.Context, token string) (auth.Session, error)
}

func (m *mockGateway) Login(ctx context.Context, email, password string) (auth.Session, error) {
	m.loginCalls++
	if m.login == nil {
		return auth.Session{}, auth.ErrInvalidCredentials
	}
	return m.login(ctx, email, password)
}

func (m *mockGateway) Register(ctx context.Context, email, password string) (auth.Session, error) {
	if m.register == nil {
		return auth.Session{}, auth.ErrInvalidCredentials
	}
	return m.register(ctx, email, password)
}

func (m *mockGateway) LoginWithCredential(ctx context.Context, cred auth.Credential) (auth.Session, error) {
	if m.loginCred == nil {
		return auth.Session{}, auth.ErrCredentialType
	}
	return m.loginCred(ctx, cred)
}

func (m *mockGateway) Logout(ctx context.Context, token string) error {
	if m.logout == nil {
		return nil
	}
	return m.logout(ctx, token)
}

func (m *mockGateway) CurrentSession(ctx context.Context, token string) (auth.Session, error) {
	if m.currentSession == nil {
		return auth.Session{}, auth.ErrUnauthenticated
	}
	return m.currentSession(ctx, token)
}

func activeSession(userID, token string) func(ctx context.Context, t string) (auth.Session, error) {
	return func(ctx context.Context, got string) (auth.Session, error) {
		if got != token {
			return auth.Session{}, auth.ErrUnauthenticated
		}
		return auth.Session{UserID: userID, Token: token}, nil
	}
}

func userDoc() store.Document {
	return store.Document{
		"firstName":       "Ada",
		"lastName":        "Lovelace",
		"email":           "ada@example.com",
		"provider":        "password",
		"profileImageURL": "http://img/a.png",
		"createdAt":       time.Date(2024, 2, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestLoginValidation(t *testing.T) {
	gw := &mockGateway{}
	c := NewUserSessionCache(&mockStore{}, gw)

	err := c.Login(context.Background(), "", "x")
	require.ErrorIs(t, err, ErrValidation)

	state := c.AuthState()
	assert.Equal(t, AuthError, state.Status)
	assert.Equal(t, "Email or password can't be empty", state.Message)
	// Validation fails before the gateway is ever contacted
	assert.Zero(t, gw.loginCalls)
}

func TestLoginBindsSession(t *testing.T) {
	gw := &mockGateway{
		login: func(ctx context.Context, email, password string) (auth.Session, error) {
			return auth.Session{UserID: "u1", Token: "tok"}, nil
		},
	}
	c := NewUserSessionCache(&mockStore{}, gw)

	require.NoError(t, c.Login(context.Background(), "ada@example.com", "pw"))
	assert.Equal(t, "tok", c.Token())
	assert.Equal(t, AuthAuthenticated, c.AuthState().Status)
}

func TestLoadCurrentUserUnauthenticated(t *testing.T) {
	c := NewUserSessionCache(&mockStore{}, &mockGateway{})

	_, err := c.LoadCurrentUser(context.Background())
	require.ErrorIs(t, err, auth.ErrUnauthenticated)
	assert.Equal(t, StatusError, c.UserState().Status)
	assert.Equal(t, AuthUnauthenticated, c.AuthState().Status)
}

func TestLoadCurrentUserNotFound(t *testing.T) {
	gw := &mockGateway{currentSession: activeSession("u1", "tok")}
	st := &mockStore{
		get: func(ctx context.Context, collection, id string) (store.Document, error) {
			return nil, store.ErrNotFound
		},
	}
	c := NewUserSessionCache(st, gw)
	require.NoError(t, c.Resume(context.Background(), "tok"))

	_, err := c.LoadCurrentUser(context.Background())
	require.ErrorIs(t, err, store.ErrNotFound)
	assert.Equal(t, StatusError, c.UserState().Status)
}

func TestLoadCurrentUserDecodeError(t *testing.T) {
	doc := userDoc()
	delete(doc, "firstName")

	gw := &mockGateway{currentSession: activeSession("u1", "tok")}
	st := &mockStore{
		get: func(ctx context.Context, collection, id string) (store.Document, error) {
			return doc, nil
		},
	}
	c := NewUserSessionCache(st, gw)
	require.NoError(t, c.Resume(context.Background(), "tok"))

	_, err := c.LoadCurrentUser(context.Background())
	require.ErrorIs(t, err, ErrDecode)
	assert.Equal(t, StatusError, c.UserState().Status)
	_, ok := c.CurrentUser()
	assert.False(t, ok)
}

func TestLoadCurrentUserSuccess(t *testing.T) {
	gw := &mockGateway{currentSession: activeSession("u1", "tok")}
	st := &mockStore{
		get: func(ctx context.Context, collection, id string) (store.Document, error) {
			assert.Equal(t, store.CollectionUsers, collection)
			assert.Equal(t, "u1", id)
			return userDoc(), nil
		},
	}
	c := NewUserSessionCache(st, gw)
	require.NoError(t, c.Resume(context.Background(), "tok"))

	user, err := c.LoadCurrentUser(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "u1", user.ID)
	assert.Equal(t, "Ada", user.FirstName)
	assert.Equal(t, "Lovelace", user.LastName)
	assert.Equal(t, "ada@example.com", user.Email)
	assert.Equal(t, "password", user.Provider)
	assert.Equal(t, "http://img/a.png", user.ProfileImageURL)
	assert.Nil(t, user.UpdatedAt)

	state := c.UserState()
	assert.Equal(t, StatusSuccess, state.Status)
	require.NotNil(t, state.User)
	assert.Equal(t, "Ada", state.User.FirstName)
}

func TestSaveUserFailureKeepsPreviousUser(t *testing.T) {
	gw := &mockGateway{currentSession: activeSession("u1", "tok")}
	st := &mockStore{
		get: func(ctx context.Context, collection, id string) (store.Document, error) {
			return userDoc(), nil
		},
	}
	c := NewUserSessionCache(st, gw)
	require.NoError(t, c.Resume(context.Background(), "tok"))
	_, err := c.LoadCurrentUser(context.Background())
	require.NoError(t, err)

	st.set = func(ctx context.Context, collection, id string, fields store.Document) error {
		return errors.New("store unreachable")
	}

	edited, _ := c.CurrentUser()
	edited.FirstName = "Renamed"

	require.Error(t, <-c.SaveUser(edited))

	state := c.UserState()
	assert.Equal(t, StatusError, state.Status)
	assert.Equal(t, "store unreachable", state.Message)

	// Current user stays as it was before the call began
	current, ok := c.CurrentUser()
	require.True(t, ok)
	assert.Equal(t, "Ada", current.FirstName)
}

func TestSaveUserAdvancesOnSuccess(t *testing.T) {
	var written store.Document
	st := &mockStore{
		set: func(ctx context.Context, collection, id string, fields store.Document) error {
			written = fields
			return nil
		},
	}
	c := NewUserSessionCache(st, &mockGateway{})

	user := models.User{
		ID:        "u1",
		FirstName: "Ada",
		Email:     "ada@example.com",
		CreatedAt: time.Date(2024, 2, 1, 12, 0, 0, 0, time.UTC),
	}
	require.NoError(t, <-c.SaveUser(user))

	current, ok := c.CurrentUser()
	require.True(t, ok)
	assert.Equal(t, "Ada", current.FirstName)
	assert.Equal(t, StatusSuccess, c.UserState().Status)

	// Absent optional fields are omitted from the remote document
	require.NotNil(t, written)
	assert.NotContains(t, written, "lastName")
	assert.NotContains(t, written, "profileImageURL")
}

func TestUpdateProfileImageMergesOnlyImage(t *testing.T) {
	var pushed store.Document
	st := &mockStore{
		set: func(ctx context.Context, collection, id string, fields store.Document) error {
			return nil
		},
		update: func(ctx context.Context, collection, id string, fields store.Document) error {
			pushed = fields
			return nil
		},
	}
	c := NewUserSessionCache(st, &mockGateway{})

	user := models.User{ID: "u1", FirstName: "A", Email: "a@example.com", CreatedAt: time.Now()}
	require.NoError(t, <-c.SaveUser(user))

	require.NoError(t, <-c.UpdateProfileImage("u1", "http://x/y.png"))

	assert.Equal(t, store.Document{"profileImageURL": "http://x/y.png"}, pushed)

	current, ok := c.CurrentUser()
	require.True(t, ok)
	assert.Equal(t, "A", current.FirstName)
	assert.Equal(t, "a@example.com", current.Email)
	assert.Equal(t, "http://x/y.png", current.ProfileImageURL)
}

func TestUpdateProfileImageFailureLeavesUserUntouched(t *testing.T) {
	st := &mockStore{
		update: func(ctx context.Context, collection, id string, fields store.Document) error {
			return errors.New("store unreachable")
		},
	}
	c := NewUserSessionCache(st, &mockGateway{})

	user := models.User{ID: "u1", FirstName: "A", Email: "a@example.com", CreatedAt: time.Now()}
	require.NoError(t, <-c.SaveUser(user))

	require.Error(t, <-c.UpdateProfileImage("u1", "http://x/y.png"))

	current, ok := c.CurrentUser()
	require.True(t, ok)
	assert.Empty(t, current.ProfileImageURL)
	assert.Equal(t, StatusError, c.UserState().Status)
}

func TestLogoutClearsSession(t *testing.T) {
	loggedOut := ""
	gw := &mockGateway{
		currentSession: activeSession("u1", "tok"),
		logout: func(ctx context.Context, token string) error {
			loggedOut = token
			return nil
		},
	}
	st := &mockStore{
		get: func(ctx context.Context, collection, id string) (store.Document, error) {
			return userDoc(), nil
		},
	}
	c := NewUserSessionCache(st, gw)
	require.NoError(t, c.Resume(context.Background(), "tok"))
	_, err := c.LoadCurrentUser(context.Background())
	require.NoError(t, err)

	require.NoError(t, c.Logout(context.Background()))

	_, ok := c.CurrentUser()
	assert.False(t, ok)
	assert.Empty(t, c.Token())
	assert.Equal(t, AuthUnauthenticated, c.AuthState().Status)
	assert.Equal(t, "tok", loggedOut)
}

func TestWatchAuthObservesTransitions(t *testing.T) {
	gw := &mockGateway{
		login: func(ctx context.Context, email, password string) (auth.Session, error) {
			return auth.Session{UserID: "u1", Token: "tok"}, nil
		},
	}
	c := NewUserSessionCache(&mockStore{}, gw)

	states, unsubscribe := c.WatchAuth()
	defer unsubscribe()

	require.NoError(t, c.Login(context.Background(), "ada@example.com", "pw"))

	assert.Equal(t, AuthLoading, (<-states).Status)
	assert.Equal(t, AuthAuthenticated, (<-states).Status)
}
