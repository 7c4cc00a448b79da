package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func openTestBackends(t *testing.T) map[string]Backend {
	t.Helper()

	sqlite, err := Open(context.Background(), DriverSQLite, ":memory:", zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlite.Close() })

	return map[string]Backend{
		DriverMemory: NewMemory(),
		DriverSQLite: sqlite,
	}
}

func TestBackendGetSet(t *testing.T) {
	ctx := context.Background()

	for name, backend := range openTestBackends(t) {
		t.Run(name, func(t *testing.T) {
			kv := backend.Namespace("browser-a")

			_, ok, err := kv.Get(ctx, "missing")
			require.NoError(t, err)
			assert.False(t, ok)

			require.NoError(t, kv.Set(ctx, "text", "tall — of great height"))
			v, ok, err := kv.Get(ctx, "text")
			require.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, "tall — of great height", v)

			require.NoError(t, kv.Set(ctx, "text", "short — of little height"))
			v, _, err = kv.Get(ctx, "text")
			require.NoError(t, err)
			assert.Equal(t, "short — of little height", v, "last write wins")
		})
	}
}

func TestBackendNamespacesAreIsolated(t *testing.T) {
	ctx := context.Background()

	for name, backend := range openTestBackends(t) {
		t.Run(name, func(t *testing.T) {
			a := backend.Namespace("a")
			b := backend.Namespace("b")

			require.NoError(t, a.Set(ctx, "settings", `{"roundSize":6}`))

			_, ok, err := b.Get(ctx, "settings")
			require.NoError(t, err)
			assert.False(t, ok)

			v, ok, err := backend.Namespace("a").Get(ctx, "settings")
			require.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, `{"roundSize":6}`, v)
		})
	}
}

func TestOpenUnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), "mysql", "", zap.NewNop())
	assert.ErrorIs(t, err, ErrUnknownDriver)

	_, err = NewSQLStore(nil, "mysql")
	assert.ErrorIs(t, err, ErrUnknownDriver)
}

func TestMigrateIsIdempotent(t *testing.T) {
	backend, err := Open(context.Background(), DriverSQLite, ":memory:", zap.NewNop())
	require.NoError(t, err)
	defer backend.Close()

	store, ok := backend.(*SQLStore)
	require.True(t, ok)
	assert.NoError(t, Migrate(store.db, DriverSQLite, zap.NewNop()))
}
