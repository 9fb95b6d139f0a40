package session_test

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"baerhub/internal/core"
	"baerhub/internal/persistence"
	"baerhub/internal/session"
	"baerhub/pkg/baerapi"
)

type fakeAuth struct {
	password string
	offline  atomic.Bool
	logins   atomic.Int32
	creates  atomic.Int32
	created  []baerapi.UserCreate
}

func (f *fakeAuth) Login(_ context.Context, username, password string) (*baerapi.Token, error) {
	f.logins.Add(1)
	if f.offline.Load() {
		return nil, fmt.Errorf("%w: dial tcp 127.0.0.1:8000: connect: connection refused", baerapi.ErrNetwork)
	}
	if password != f.password {
		return nil, &baerapi.StatusError{Status: 401, Kind: baerapi.ErrAuth}
	}
	return &baerapi.Token{AccessToken: "token-" + username, TokenType: "bearer"}, nil
}

func (f *fakeAuth) CreateUser(_ context.Context, user baerapi.UserCreate) (*baerapi.User, error) {
	f.creates.Add(1)
	f.created = append(f.created, user)
	return &baerapi.User{ID: 1, Username: user.Username, DisplayName: user.DisplayName}, nil
}

func newStore(t *testing.T, auth *fakeAuth) (*session.Store, *persistence.Store) {
	t.Helper()

	storage, err := persistence.NewMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = storage.Shutdown(context.Background()) })

	return session.New(context.Background(), storage, auth, nil), storage
}

func TestLogin(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	auth := &fakeAuth{password: "secret123"}
	store, storage := newStore(t, auth)

	var changes []session.Change
	store.Subscribe(func(c session.Change, _ session.Session) { changes = append(changes, c) })

	_, err := store.Login(ctx, "alice", "wrong")
	require.ErrorIs(t, err, baerapi.ErrAuth)
	require.False(t, store.Current().LoggedIn())
	require.Empty(t, changes)

	s, err := store.Login(ctx, " alice ", "secret123")
	require.NoError(t, err)
	require.Equal(t, "token-alice", s.Token)
	require.Equal(t, "alice", s.User.Username)
	require.Equal(t, "token-alice", store.Token())
	require.Equal(t, []session.Change{session.LoggedIn}, changes)

	token, err := storage.Get(ctx, core.TokenKey)
	require.NoError(t, err)
	require.Equal(t, "token-alice", string(token))

	rehydrated := session.New(ctx, storage, auth, nil)
	require.True(t, rehydrated.Current().LoggedIn())
	require.Equal(t, "alice", rehydrated.Current().User.Username)
}

func TestFailedLoginKeepsPreviousSession(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store, _ := newStore(t, &fakeAuth{password: "secret123"})

	_, err := store.Login(ctx, "alice", "secret123")
	require.NoError(t, err)

	_, err = store.Login(ctx, "bob", "nope")
	require.ErrorIs(t, err, baerapi.ErrAuth)
	require.Equal(t, "alice", store.Current().User.Username)
}

func TestLoginWhileBackendUnreachable(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	auth := &fakeAuth{password: "secret123"}
	store, storage := newStore(t, auth)

	_, err := store.Login(ctx, "alice", "secret123")
	require.NoError(t, err)

	var changes []session.Change
	store.Subscribe(func(c session.Change, _ session.Session) { changes = append(changes, c) })

	auth.offline.Store(true)

	_, err = store.Login(ctx, "bob", "hunter22")
	require.ErrorIs(t, err, baerapi.ErrNetwork)
	require.NotErrorIs(t, err, baerapi.ErrAuth)

	require.True(t, store.Current().LoggedIn())
	require.Equal(t, "alice", store.Current().User.Username)
	require.Equal(t, "token-alice", store.Token())
	require.Empty(t, changes)

	token, err := storage.Get(ctx, core.TokenKey)
	require.NoError(t, err)
	require.Equal(t, "token-alice", string(token))
}

func TestRegister(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("empty password issues no request", func(t *testing.T) {
		t.Parallel()

		auth := &fakeAuth{password: "secret123"}
		store, _ := newStore(t, auth)

		_, err := store.Register(ctx, "alice", "", "")
		require.ErrorIs(t, err, session.ErrMissingCredentials)
		require.ErrorIs(t, err, baerapi.ErrValidation)
		require.Zero(t, auth.creates.Load())
		require.Zero(t, auth.logins.Load())
	})

	t.Run("creates then logs in", func(t *testing.T) {
		t.Parallel()

		auth := &fakeAuth{password: "secret123"}
		store, _ := newStore(t, auth)

		s, err := store.Register(ctx, "alice", "secret123", " Alice ")
		require.NoError(t, err)
		require.True(t, s.LoggedIn())
		require.Equal(t, "Alice", s.User.DisplayName)
		require.Equal(t, "Alice", auth.created[0].DisplayName)
		require.EqualValues(t, 1, auth.logins.Load())
	})
}

func TestLogoutAndExpire(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store, storage := newStore(t, &fakeAuth{password: "secret123"})

	var changes []session.Change
	unsubscribe := store.Subscribe(func(c session.Change, _ session.Session) { changes = append(changes, c) })

	_, err := store.Login(ctx, "alice", "secret123")
	require.NoError(t, err)

	store.Expire()
	require.False(t, store.Current().LoggedIn())
	require.Empty(t, store.Token())

	_, err = storage.Get(ctx, core.TokenKey)
	require.ErrorIs(t, err, core.ErrKeyNotFound)

	// Already anonymous.
	store.Expire()
	store.Logout(ctx)

	_, err = store.Login(ctx, "alice", "secret123")
	require.NoError(t, err)
	store.Logout(ctx)

	require.Equal(t, []session.Change{session.LoggedIn, session.Expired, session.LoggedIn, session.LoggedOut}, changes)

	unsubscribe()
	_, err = store.Login(ctx, "alice", "secret123")
	require.NoError(t, err)
	require.Len(t, changes, 4)
}

func TestRehydrationDiscardsTokenWithoutUser(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	storage, err := persistence.NewMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = storage.Shutdown(ctx) })

	require.NoError(t, storage.Put(ctx, core.TokenKey, []byte("orphan")))

	store := session.New(ctx, storage, &fakeAuth{}, nil)
	require.False(t, store.Current().LoggedIn())

	_, err = storage.Get(ctx, core.TokenKey)
	require.ErrorIs(t, err, core.ErrKeyNotFound)

	require.NoError(t, storage.Put(ctx, core.TokenKey, []byte("tok")))
	require.NoError(t, storage.Put(ctx, core.UserKey, []byte("{not json")))

	store = session.New(ctx, storage, &fakeAuth{}, nil)
	require.False(t, store.Current().LoggedIn())
}
