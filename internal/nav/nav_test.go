package nav_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"baerhub/internal/core"
	"baerhub/internal/nav"
	"baerhub/internal/notice"
	"baerhub/internal/persistence"
	"baerhub/internal/session"
	"baerhub/internal/testbackend"
	"baerhub/pkg/baerapi"
)

type fixture struct {
	backend *testbackend.Server
	storage *persistence.Store
	store   *session.Store
	nav     *nav.Nav
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	ctx := context.Background()

	backend := testbackend.New()
	t.Cleanup(backend.Close)

	storage, err := persistence.NewMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = storage.Shutdown(ctx) })

	api := baerapi.NewClient(&baerapi.ClientConfig{BaseURL: backend.URL})
	t.Cleanup(func() { _ = api.Close() })

	store := session.New(ctx, storage, api, nil)
	api.SetCredentials(store)

	n := nav.New(ctx, store, storage, nil)
	t.Cleanup(n.Close)

	return &fixture{backend: backend, storage: storage, store: store, nav: n}
}

func TestAnonymousView(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	view := f.nav.View()
	require.False(t, view.LoggedIn())
	require.Nil(t, view.Pill)

	f.nav.ToggleDropdown()
	require.False(t, f.nav.View().LoggedIn())
}

func TestLoginFlow(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t)
	f.backend.AddUser("alice", "secret123", "")

	modal := f.nav.Modal()
	require.Same(t, modal, f.nav.Modal())

	modal.Open(nav.LoginTab)
	require.True(t, modal.IsOpen())

	n, err := modal.SubmitLogin(ctx)
	require.ErrorIs(t, err, nav.ErrFormIncomplete)
	require.Equal(t, notice.FillAllFields, n.Text)
	require.Zero(t, f.backend.CountRequests("POST", "/token"))

	modal.FillLogin("alice", "wrong")
	_, err = modal.SubmitLogin(ctx)
	require.ErrorIs(t, err, baerapi.ErrAuth)
	require.Equal(t, notice.BadCredentials, modal.LoginForm().Error)
	require.True(t, modal.IsOpen())

	modal.SwitchTab(nav.RegisterTab)
	require.Empty(t, modal.LoginForm().Error)
	modal.SwitchTab(nav.LoginTab)

	modal.FillLogin("alice", "secret123")
	n, err = modal.SubmitLogin(ctx)
	require.NoError(t, err)
	require.Equal(t, "Welcome back, alice!", n.Text)
	require.False(t, modal.IsOpen())

	view := f.nav.View()
	require.True(t, view.LoggedIn())
	require.Equal(t, "A", view.Pill.Letter)
	require.Equal(t, "alice", view.Pill.Username)
	require.False(t, view.Pill.DropdownOpen)
}

func TestDropdown(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t)
	f.backend.AddUser("alice", "secret123", "")

	_, err := f.store.Login(ctx, "alice", "secret123")
	require.NoError(t, err)

	f.nav.ToggleDropdown()
	require.True(t, f.nav.View().Pill.DropdownOpen)
	f.nav.ToggleDropdown()
	require.False(t, f.nav.View().Pill.DropdownOpen)

	f.nav.ToggleDropdown()
	f.nav.OutsideClick()
	require.False(t, f.nav.View().Pill.DropdownOpen)

	f.nav.ToggleDropdown()
	n := f.nav.Logout(ctx)
	require.Equal(t, notice.LoggedOut, n.Text)
	require.False(t, f.nav.View().LoggedIn())

	_, err = f.store.Login(ctx, "alice", "secret123")
	require.NoError(t, err)
	require.False(t, f.nav.View().Pill.DropdownOpen)
}

func TestRegisterFlow(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t)

	modal := f.nav.Modal()
	modal.Open(nav.RegisterTab)

	modal.FillRegister("bear", "", "")
	n, err := modal.SubmitRegister(ctx)
	require.ErrorIs(t, err, session.ErrMissingCredentials)
	require.Equal(t, "Username and password required.", n.Text)
	require.Equal(t, n.Text, modal.RegisterForm().Error)
	require.Zero(t, f.backend.CountRequests("POST", "/user"))

	modal.FillRegister("bear", "honey123", "Bear")
	n, err = modal.SubmitRegister(ctx)
	require.NoError(t, err)
	require.Equal(t, "Welcome back, bear!", n.Text)
	require.Equal(t, nav.LoginTab, modal.Tab())
	require.False(t, modal.IsOpen())
	require.True(t, f.store.Current().LoggedIn())

	f.store.Logout(ctx)

	modal.Open(nav.RegisterTab)
	modal.FillRegister("bear", "again123", "")
	n, err = modal.SubmitRegister(ctx)
	require.ErrorIs(t, err, baerapi.ErrValidation)
	require.Equal(t, "Username already taken", n.Text)
	require.Equal(t, nav.RegisterTab, modal.Tab())
}

func TestTheme(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t)

	require.Equal(t, nav.Light, f.nav.Theme())

	theme, err := f.nav.ToggleTheme(ctx)
	require.NoError(t, err)
	require.Equal(t, nav.Dark, theme)

	raw, err := f.storage.Get(ctx, core.ThemeKey)
	require.NoError(t, err)
	require.Equal(t, "dark", string(raw))

	reloaded := nav.New(ctx, f.store, f.storage, nil)
	t.Cleanup(reloaded.Close)
	require.Equal(t, nav.Dark, reloaded.Theme())

	require.ErrorIs(t, f.nav.SetTheme(ctx, "sepia"), nav.ErrUnknownTheme)
}
