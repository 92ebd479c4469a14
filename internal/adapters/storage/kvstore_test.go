package storage_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/calendarease/core/internal/ports"
)

// runKVStoreContract exercises the behaviour every backend must share
func runKVStoreContract(t *testing.T, kv ports.KVStore) {
	t.Helper()
	ctx := context.Background()

	t.Run("missing key", func(t *testing.T) {
		v, ok, err := kv.Get(ctx, "absent")
		require.NoError(t, err)
		require.False(t, ok)
		require.Nil(t, v)
	})

	t.Run("set many then get", func(t *testing.T) {
		require.NoError(t, kv.SetMany(ctx,
			ports.Entry{Key: ports.TasksKey, Value: []byte(`[{"id":"1"}]`)},
			ports.Entry{Key: ports.VoiceNotesKey, Value: []byte(`[]`)},
		))

		v, ok, err := kv.Get(ctx, ports.TasksKey)
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, `[{"id":"1"}]`, string(v))

		v, ok, err = kv.Get(ctx, ports.VoiceNotesKey)
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, `[]`, string(v))
	})

	t.Run("overwrite replaces value", func(t *testing.T) {
		require.NoError(t, kv.SetMany(ctx, ports.Entry{Key: ports.TasksKey, Value: []byte(`[]`)}))

		v, ok, err := kv.Get(ctx, ports.TasksKey)
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, `[]`, string(v))
	})

	t.Run("opaque values", func(t *testing.T) {
		require.NoError(t, kv.SetMany(ctx, ports.Entry{Key: "raw", Value: []byte("not json {")}))

		v, ok, err := kv.Get(ctx, "raw")
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, "not json {", string(v))
	})

	t.Run("ping", func(t *testing.T) {
		require.NoError(t, kv.Ping(ctx))
	})
}
