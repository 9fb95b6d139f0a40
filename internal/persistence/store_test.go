package persistence

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"baerhub/internal/config"
	"baerhub/internal/core"
)

func TestStore(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	store, err := NewMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Shutdown(ctx) })

	_, err = store.Get(ctx, core.TokenKey)
	require.ErrorIs(t, err, core.ErrKeyNotFound)

	require.NoError(t, store.Put(ctx, core.TokenKey, []byte("tok")))

	value, err := store.Get(ctx, core.TokenKey)
	require.NoError(t, err)
	require.Equal(t, []byte("tok"), value)

	require.NoError(t, store.Delete(ctx, core.TokenKey))

	_, err = store.Get(ctx, core.TokenKey)
	require.ErrorIs(t, err, core.ErrKeyNotFound)
}

func TestStoreSurvivesReopen(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	cfg := &config.Config{DataDir: t.TempDir()}

	store := &Store{Config: cfg}
	require.NoError(t, store.Init(ctx))
	require.NoError(t, store.Put(ctx, core.ThemeKey, []byte("dark")))
	require.NoError(t, store.Shutdown(ctx))

	_, err := store.Get(ctx, core.ThemeKey)
	require.ErrorIs(t, err, ErrNotOpen)

	reopened := &Store{Config: cfg}
	require.NoError(t, reopened.Init(ctx))
	t.Cleanup(func() { _ = reopened.Shutdown(ctx) })

	value, err := reopened.Get(ctx, core.ThemeKey)
	require.NoError(t, err)
	require.Equal(t, []byte("dark"), value)
}

func TestStoreRequiresDataDir(t *testing.T) {
	t.Parallel()

	store := &Store{Config: &config.Config{}}
	require.ErrorIs(t, store.Init(context.Background()), ErrNoDataDir)
}
